package main

import (
	"chat-relay/client"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run loads the configuration, connects to the relay and hands over to the menu.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	config, err := loadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Establish connection to the relay.
	c, err := client.Dial(ctx, config.ServerAddress, client.WithLogger(log), client.WithTimeout(config.Timeout))
	if err != nil {
		return exitRuntime, err
	}
	// Defer ensures the connection is closed even if the menu fails later.
	defer func() {
		log.Info("Closing connection...")
		_ = c.Close()
	}()

	// 4. A signal closes the connection, which unblocks any pending exchange.
	context.AfterFunc(ctx, func() { _ = c.Close() })

	m := newMenu(os.Stdin, os.Stdout, c, config.Colours)
	if err := m.Run(); err != nil {
		if ctx.Err() != nil {
			return exitOK, nil
		}
		return exitRuntime, err
	}
	return exitOK, nil
}
