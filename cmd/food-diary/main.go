// cmd/food-diary/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mcp-food-diary/internal/config"
	"mcp-food-diary/internal/observability"
	"mcp-food-diary/internal/server"
)

func main() {
	cfg := config.Load()
	cfg.RegisterFlags(flag.CommandLine)

	address := flag.String("address", "", "Address (alias for host)")
	version := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *version {
		fmt.Println("mcp-food-diary version 1.0.0")
		os.Exit(0)
	}

	// Use address if provided, otherwise use host
	if *address != "" {
		cfg.Host = *address
	}

	log := observability.Init(os.Stdout, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Create server
	srv, err := server.NewDiaryServer(cfg)
	if err != nil {
		log.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigCh:
		log.Info("received shutdown signal")
	case err := <-errCh:
		log.Error("server error", "error", err)
	}

	// Graceful shutdown
	log.Info("shutting down")
	cancel()
	if err := srv.Stop(); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
