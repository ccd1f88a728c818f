// Package api serves the proven state, the merger verifying keys and the
// checkpoint history to light clients. It is read-only.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/albatross-zkp/log"
	"github.com/vocdoni/albatross-zkp/setup"
	"github.com/vocdoni/albatross-zkp/state"
	stg "github.com/vocdoni/albatross-zkp/storage"
)

// APIConfig type represents the configuration for the API HTTP server.
// Storage is required. Without Keys the key and export endpoints answer
// not found, and without Checkpoints so does the checkpoint endpoint.
type APIConfig struct {
	Host        string
	Port        int
	Storage     *stg.Storage
	Keys        *setup.Keys
	Checkpoints *state.Checkpoints
}

// API type represents the API HTTP server.
type API struct {
	router      *chi.Mux
	server      *http.Server
	listener    net.Listener
	storage     *stg.Storage
	keys        *setup.Keys
	checkpoints *state.Checkpoints
}

// New creates a new API instance with the given configuration and starts
// the HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Storage == nil {
		return nil, fmt.Errorf("missing storage instance")
	}
	a := &API{
		storage:     conf.Storage,
		keys:        conf.Keys,
		checkpoints: conf.Checkpoints,
	}

	// Initialize router
	a.initRouter()
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", conf.Host, conf.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	a.listener = ln
	a.server = &http.Server{Handler: a.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Infow("starting API server", "address", ln.Addr().String())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server stopped")
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// Addr returns the address the server listens on.
func (a *API) Addr() net.Addr {
	return a.listener.Addr()
}

// Close gracefully stops the HTTP server.
func (a *API) Close(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", StateEndpoint, "method", "GET")
	a.router.Get(StateEndpoint, a.state)
	log.Infow("register handler", "endpoint", ExportEndpoint, "method", "GET")
	a.router.Get(ExportEndpoint, a.export)
	log.Infow("register handler", "endpoint", KeysEndpoint, "method", "GET")
	a.router.Get(KeysEndpoint, a.verifyingKey)
	log.Infow("register handler", "endpoint", CheckpointEndpoint, "method", "GET")
	a.router.Get(CheckpointEndpoint, a.checkpoint)
	log.Infow("register handler", "endpoint", ArtifactsEndpoint, "method", "GET")
	a.router.Get(ArtifactsEndpoint, a.artifact)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
