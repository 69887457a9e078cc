package main

import (
	"chat-relay/repositories"
	"chat-relay/runtime"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the relay lifecycle, and centralizes error reporting.
// Returning instead of exiting lets every deferred cleanup (database close) run.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := loadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Repository, shared by every session
	repository, closeRepository, err := openRepository(config.RepositoryBackend, log)
	if err != nil {
		return exitRuntime, err
	}
	defer closeRepository()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Listener
	address := config.Address()
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	// 5. Start the relay
	relay := runtime.NewRelay(log, runtime.NewListenerAcceptor(listener), repository,
		runtime.WithIdleTimeout(config.SessionIdleTimeout),
		runtime.WithRestartInterval(config.RestartInterval),
		runtime.WithHeartbeat(config.HeartbeatInterval),
		runtime.WithHealthAddress(config.HealthAddress()),
	)
	if err := relay.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("relay failed to start: %w", err)
	}
	log.Info("Relay listening", "address", relay.Addr(), "backend", config.RepositoryBackend, "at", time.Now().UTC())

	// 6. Wait for a signal or a fatal error
	<-relay.Done()
	if err := relay.Err(); err != nil {
		return exitRuntime, fmt.Errorf("relay stopped: %w", err)
	}
	log.Info("Program stopped cleanly")
	return exitOK, nil
}

// openRepository builds the single repository of the process.
func openRepository(backend string, log *slog.Logger) (repositories.IRelayRepository, func(), error) {
	switch backend {
	case backendBadger:
		db, err := repositories.OpenInMemoryDB()
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		closeDB := func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}
		return repositories.NewBadgerRepository(db, log), closeDB, nil
	default:
		return repositories.NewMemoryRepository(), func() {}, nil
	}
}
