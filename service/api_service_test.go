package service

import (
	"context"
	"net/http"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/albatross-zkp/api"
	"github.com/vocdoni/albatross-zkp/storage"
	"go.vocdoni.io/dvote/db/metadb"
)

func TestAPIService(t *testing.T) {
	c := qt.New(t)

	store := storage.New(metadb.NewTest(t))
	defer store.Close()

	// Port 0 lets the OS choose an available port
	apiService := NewAPI(api.APIConfig{Host: "127.0.0.1", Port: 0, Storage: store})
	c.Assert(apiService.Addr(), qt.Equals, "")

	ctx := context.Background()
	c.Assert(apiService.Start(ctx), qt.IsNil)
	defer apiService.Stop()

	resp, err := http.Get("http://" + apiService.Addr() + api.PingEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Body.Close(), qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)

	// Test stopping and restarting
	apiService.Stop()
	c.Assert(apiService.Addr(), qt.Equals, "")
	c.Assert(apiService.Start(ctx), qt.IsNil)

	// Test starting an already running service
	c.Assert(apiService.Start(ctx), qt.ErrorMatches, "service already running")
}
