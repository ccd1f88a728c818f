package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/albatross-zkp/api"
	"github.com/vocdoni/albatross-zkp/lightclient"
	"github.com/vocdoni/albatross-zkp/types"
)

func writeJSON(c *qt.C, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	c.Check(json.NewEncoder(w).Encode(v), qt.IsNil)
}

// testServer answers the API routes with fixed responses.
func testServer(c *qt.C) *httptest.Server {
	r := chi.NewRouter()
	r.Get(api.PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get(api.StateEndpoint, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(c, w, &api.StateResponse{
			Height:          3,
			Role:            "b",
			StateCommitment: types.NewInt(4242),
			Header:          []byte{1, 2, 3},
		})
	})
	r.Get(api.ExportEndpoint, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(c, w, &lightclient.Export{
			Height:       3,
			ShapeID:      "merger_b/bw6_761",
			PublicInputs: []*types.BigInt{types.NewInt(1), types.NewInt(2), types.NewInt(3), types.NewInt(77)},
			Proof:        []byte{0xaa},
			MergerA:      lightclient.VerifyingKey{Circuit: "merger_a", Key: []byte{0x0a}},
			MergerB:      lightclient.VerifyingKey{Circuit: "merger_b", Key: []byte{0x0b}},
		})
	})
	r.Get(api.KeysEndpoint, func(w http.ResponseWriter, r *http.Request) {
		role := chi.URLParam(r, api.RoleURLParam)
		if role != "a" {
			api.ErrMalformedRole.Write(w)
			return
		}
		writeJSON(c, w, &api.KeyResponse{Role: "A", Circuit: "merger_a", VerifyingKey: []byte{0x0a}})
	})
	r.Get(api.CheckpointEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, api.HeightURLParam) != "2" {
			api.ErrCheckpointNotFound.Write(w)
			return
		}
		writeJSON(c, w, &api.CheckpointResponse{Height: 2, StateCommitment: types.NewInt(4242), Root: types.NewInt(9)})
	})
	srv := httptest.NewServer(r)
	c.Cleanup(srv.Close)
	return srv
}

func TestRequests(t *testing.T) {
	c := qt.New(t)
	cli, err := New(testServer(c).URL)
	c.Assert(err, qt.IsNil)

	st, err := cli.State()
	c.Assert(err, qt.IsNil)
	c.Assert(st.Height, qt.Equals, uint64(3))
	c.Assert(st.StateCommitment.MathBigInt().Int64(), qt.Equals, int64(4242))
	c.Assert([]byte(st.Header), qt.DeepEquals, []byte{1, 2, 3})

	e, err := cli.Export()
	c.Assert(err, qt.IsNil)
	c.Assert(e.Height, qt.Equals, uint64(3))
	c.Assert(e.PublicInputs, qt.HasLen, 4)
	c.Assert(e.MergerB.Circuit, qt.Equals, "merger_b")
	inputs, err := e.Inputs()
	c.Assert(err, qt.IsNil)
	c.Assert(inputs.MergerADigest.Int64(), qt.Equals, int64(77))

	vk, err := cli.VerifyingKey("a")
	c.Assert(err, qt.IsNil)
	c.Assert(vk.Circuit, qt.Equals, "merger_a")
	c.Assert([]byte(vk.VerifyingKey), qt.DeepEquals, []byte{0x0a})

	cp, err := cli.Checkpoint(2)
	c.Assert(err, qt.IsNil)
	c.Assert(cp.Height, qt.Equals, uint64(2))
	c.Assert(cp.Root.MathBigInt().Int64(), qt.Equals, int64(9))
}

func TestErrorResponses(t *testing.T) {
	c := qt.New(t)
	cli, err := New(testServer(c).URL)
	c.Assert(err, qt.IsNil)

	_, err = cli.VerifyingKey("c")
	var apiErr *Error
	c.Assert(err, qt.ErrorAs, &apiErr)
	c.Assert(apiErr.HTTPStatus, qt.Equals, http.StatusBadRequest)
	c.Assert(apiErr.Code, qt.Equals, api.ErrMalformedRole.Code)
	c.Assert(apiErr.Message, qt.Equals, api.ErrMalformedRole.Error())

	_, err = cli.Checkpoint(9)
	c.Assert(err, qt.ErrorAs, &apiErr)
	c.Assert(apiErr.HTTPStatus, qt.Equals, http.StatusNotFound)
	c.Assert(apiErr.Code, qt.Equals, api.ErrCheckpointNotFound.Code)

	// a body that is not an API error is kept as the message
	_, err = cli.get("unknown")
	c.Assert(err, qt.ErrorAs, &apiErr)
	c.Assert(apiErr.HTTPStatus, qt.Equals, http.StatusNotFound)
	c.Assert(apiErr.Code, qt.Equals, 0)
	c.Assert(apiErr.Message, qt.Contains, "404 page not found")
}

func TestRetries(t *testing.T) {
	c := qt.New(t)
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the first two connections are dropped without a response
		if attempts.Add(1) <= 2 {
			conn, _, err := w.(http.Hijacker).Hijack()
			c.Check(err, qt.IsNil)
			c.Check(conn.Close(), qt.IsNil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host, err := url.Parse(srv.URL)
	c.Assert(err, qt.IsNil)
	cli := &HTTPclient{c: srv.Client(), host: host, retries: DefaultRetries, retryWait: time.Millisecond}
	_, err = cli.get(api.PingEndpoint)
	c.Assert(err, qt.IsNil)
	c.Assert(attempts.Load(), qt.Equals, int32(3))

	attempts.Store(-10)
	cli.retries = 2
	_, err = cli.get(api.PingEndpoint)
	c.Assert(err, qt.ErrorMatches, "http request failed after 2 attempts: .*")
}
