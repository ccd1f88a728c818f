package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vocdoni/albatross-zkp/api"
	"github.com/vocdoni/albatross-zkp/log"
)

// shutdownTimeout bounds the graceful shutdown of the API server.
const shutdownTimeout = 5 * time.Second

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	conf api.APIConfig
	api  *api.API
	mu   sync.Mutex
}

// NewAPI creates a new APIService instance.
func NewAPI(conf api.APIConfig) *APIService {
	return &APIService{conf: conf}
}

// Start begins the API server. It returns an error if the service
// is already running or if it fails to start.
func (as *APIService) Start(_ context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.api != nil {
		return fmt.Errorf("service already running")
	}
	conf := as.conf
	a, err := api.New(&conf)
	if err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	as.api = a
	return nil
}

// Stop halts the API server.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.api == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := as.api.Close(ctx); err != nil {
		log.Warnw("API server shutdown", "error", err)
	}
	as.api = nil
}

// Addr returns the address the API server listens on, or an empty string if
// it is not running.
func (as *APIService) Addr() string {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.api == nil {
		return ""
	}
	return as.api.Addr().String()
}
