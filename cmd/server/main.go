// Command server runs the vibefeed session backend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vibefeed/internal/config"
	"vibefeed/internal/observability"
	"vibefeed/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.Configure(cfg.Env, cfg.LogLevel)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "vibefeed",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		observability.GlobalLogger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			observability.GlobalLogger.Error("server shutdown error", "error", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			observability.GlobalLogger.Error("tracer shutdown error", "error", err)
		}
	}()

	observability.GlobalLogger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
