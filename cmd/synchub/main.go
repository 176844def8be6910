// Sync Hub - device synchronisation backend
//
// This is the main entry point for the Sync Hub server. Sync Hub lets
// several physical devices belonging to one logical account exchange
// small opaque data blobs and discover each other, authenticated by
// per-device passwords issued at registration and linked together via
// one-time share codes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/sync-hub/internal/account"
	"github.com/nerrad567/sync-hub/internal/api"
	"github.com/nerrad567/sync-hub/internal/device"
	"github.com/nerrad567/sync-hub/internal/infrastructure/config"
	"github.com/nerrad567/sync-hub/internal/infrastructure/logging"
	"github.com/nerrad567/sync-hub/internal/module"
	"github.com/nerrad567/sync-hub/internal/registration"
	"github.com/nerrad567/sync-hub/internal/share"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Sync Hub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised", cfg.LogFields()...)

	// Repositories, in dependency order: accounts own the directory
	// layout, devices live under accounts, shares and modules under both.
	accounts, err := account.NewRepository(cfg.Storage.DataPath, cfg.GC.AccountInterval, log)
	if err != nil {
		return fmt.Errorf("initialising account repository: %w", err)
	}
	if err := accounts.Load(ctx); err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}

	devices := device.NewRepository(accounts, cfg.GC.DeviceExpiration, cfg.GC.DeviceInterval, log)
	if err := devices.Load(ctx); err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	shares := share.NewRepository(accounts, cfg.GC.ShareExpiration, cfg.GC.ShareStaleInterval, log)
	if err := shares.Load(ctx); err != nil {
		return fmt.Errorf("loading shares: %w", err)
	}

	modules := module.NewRepository(devices, cfg.GC.ModuleExpiration, cfg.GC.ModuleInterval, log)

	log.Info("state loaded",
		"accounts", len(accounts.List()),
		"devices", len(devices.All()),
	)

	// Background sweeps. Close in reverse order on shutdown.
	accounts.Start(ctx)
	defer accounts.Close()
	devices.Start(ctx)
	defer devices.Close()
	shares.Start(ctx)
	defer shares.Close()
	modules.Start(ctx)
	defer modules.Close()

	// Linking protocol
	reg := registration.NewService(accounts, devices, shares, log)

	// HTTP API
	server, err := api.New(api.Deps{
		Config:       cfg,
		Logger:       log,
		Accounts:     accounts,
		Devices:      devices,
		Shares:       shares,
		Modules:      modules,
		Registration: reg,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server listening",
		"address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: API server first,
	// then the background sweeps.

	log.Info("Sync Hub stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Checks SYNCHUB_CONFIG environment variable first, then uses default.
func getConfigPath() string {
	if path := os.Getenv("SYNCHUB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
