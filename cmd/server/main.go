// Command server runs the Yatube web application.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/observability"
	"yatube/internal/server"
)

// @title Yatube API
// @version 1.0
// @description Blog with posts, groups, comments and follows. Every page also answers with JSON when the client accepts application/json.

// @contact.name Yatube maintainers

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.SetupLogger(cfg.Env, cfg.LogLevel)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "yatube",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	if err := serve(srv, stop, shutdownTracing); err != nil {
		log.Fatal(err)
	}
}

// lifecycle is the part of server.Server that serve drives.
type lifecycle interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serve runs srv until a signal arrives on stop, then shuts down the server
// and the tracer. It returns only after both are released, since Start
// returns as soon as the listener closes.
func serve(srv lifecycle, stop <-chan os.Signal, shutdownTracing func(context.Context) error) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-stop

		middleware.Logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracer shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		return err
	}
	<-done
	return nil
}
