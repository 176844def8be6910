package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/sync-hub/internal/account"
	"github.com/nerrad567/sync-hub/internal/device"
	"github.com/nerrad567/sync-hub/internal/infrastructure/config"
	"github.com/nerrad567/sync-hub/internal/infrastructure/logging"
	"github.com/nerrad567/sync-hub/internal/module"
	"github.com/nerrad567/sync-hub/internal/registration"
	"github.com/nerrad567/sync-hub/internal/share"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       *config.Config
	Logger       *logging.Logger
	Accounts     *account.Repository
	Devices      *device.Repository
	Shares       *share.Repository
	Modules      *module.Repository
	Registration *registration.Service
	Version      string
}

// Server is the HTTP API server for Sync Hub.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg          *config.Config
	logger       *logging.Logger
	accounts     *account.Repository
	devices      *device.Repository
	shares       *share.Repository
	modules      *module.Repository
	registration *registration.Service
	version      string
	server       *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, repositories)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Accounts == nil || deps.Devices == nil || deps.Shares == nil || deps.Modules == nil {
		return nil, fmt.Errorf("all repositories are required")
	}
	if deps.Registration == nil {
		return nil, fmt.Errorf("registration service is required")
	}

	return &Server{
		cfg:          deps.Config,
		logger:       deps.Logger,
		accounts:     deps.Accounts,
		devices:      deps.Devices,
		shares:       deps.Shares,
		modules:      deps.Modules,
		registration: deps.Registration,
		version:      deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
