// docscand serves the document scanning pipeline over HTTP.
//
// Endpoints:
//
//	POST /scan              multipart "file" (or a raw image body) → recognition result
//	POST /documents         save a recognized document
//	GET  /documents         search saved documents (?q=&from=&to=&type=&limit=)
//	GET  /documents/{id}    fetch one document
//	POST /export/{format}   render a document as pdf, docx, xlsx, html or txt
//	GET  /health            liveness
//
// Configuration comes from an optional YAML file (-config) overridden by
// DOCSCAN_* environment variables. DOCSCAN_API_KEY enables bearer token
// authentication and DOCSCAN_CORS_ORIGINS sets the allowed CORS origins.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gardar/docscan/pkg/pipeline"
	"github.com/gardar/docscan/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		loaded, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Override from environment variables.
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		slog.Error("applying environment", "error", err)
		os.Exit(1)
	}

	apiKey := os.Getenv("DOCSCAN_API_KEY")
	corsOrigins := os.Getenv("DOCSCAN_CORS_ORIGINS")

	engine, err := pipeline.NewEngine(cfg)
	if err != nil {
		slog.Error("creating OCR engine", "engine", cfg.OCR.Engine, "error", err)
		os.Exit(1)
	}

	docs, err := store.New(cfg.Database, store.WithLogger(logger))
	if err != nil {
		slog.Error("opening document store", "path", cfg.Database, "error", err)
		os.Exit(1)
	}
	defer docs.Close()

	p := pipeline.New(engine, pipeline.WithConfig(cfg), pipeline.WithLogger(logger))
	h := newHandler(p, docs)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = h.routes()
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute, // OCR of a large photo can be slow
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr, "engine", cfg.OCR.Engine, "database", cfg.Database)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
