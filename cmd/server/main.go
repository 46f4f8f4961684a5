package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crc32-rainbow/internal/api"
	"crc32-rainbow/internal/config"
	"crc32-rainbow/internal/cracker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvConfig), "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger, err := cfg.Log.Build()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	poly, err := cfg.Engine.PolynomialValue()
	if err != nil {
		return err
	}

	// Build the index before accepting requests
	engine, err := cracker.New(&cracker.Options{
		Polynomial: &poly,
		MaxWidth:   cfg.Engine.MaxWidth,
		Workers:    cfg.Engine.Workers,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	// Initialize database
	logger.Info("connecting to database", zap.String("path", cfg.Server.DBPath))
	db, err := api.InitDB(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := api.CreateSchema(db); err != nil {
		return err
	}

	cache, err := api.OpenCache(cfg.Server.CacheTTL)
	if err != nil {
		return err
	}
	defer cache.Close()

	// Create server with database connection
	server := api.NewServer(engine, db, &api.Options{
		APIKey: cfg.Server.APIKey,
		Strict: cfg.Engine.Strict,
		Cache:  cache,
		Logger: logger,
	})

	mux := chi.NewMux()
	mux.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	mux.Handle("/metrics", promhttp.Handler())
	h := api.HandlerWithOptions(server, api.ChiServerOptions{
		BaseRouter:       mux,
		ErrorHandlerFunc: api.ErrorHandler,
	})

	s := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("signal received, stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
