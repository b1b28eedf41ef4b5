package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bryanwahyu/automaton-code/internal/app"
	"github.com/bryanwahyu/automaton-code/internal/config"
	"github.com/bryanwahyu/automaton-code/internal/infra/httpserver"
	"github.com/bryanwahyu/automaton-code/internal/middleware"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	path := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Logger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := middleware.NewMetrics()
	svc, err := app.NewService(ctx, cfg, log, metrics)
	if err != nil {
		log.Error("service init failed", "error", err)
		os.Exit(1)
	}

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit.RPS > 0 {
		limiter = middleware.NewRateLimiter(ctx, cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	}

	var ready atomic.Bool
	handler := httpserver.NewRouter(svc, httpserver.Options{
		MaxCodeBytes: cfg.Server.MaxCodeBytes,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Log:          log,
		Metrics:      metrics,
		Limiter:      limiter,
		Ready: middleware.CheckFunc(func(context.Context) error {
			if !ready.Load() {
				return errors.New("shutting down")
			}
			return nil
		}),
		Checks: map[string]middleware.HealthChecker{
			"analyzers": middleware.CheckFunc(func(context.Context) error {
				if svc.Registry.Len() == 0 {
					return errors.New("no analyzers registered")
				}
				return nil
			}),
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if srv.WriteTimeout <= cfg.Analysis.Timeout {
		srv.WriteTimeout = cfg.Analysis.Timeout + 5*time.Second
	}

	go func() {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()
	ready.Store(true)

	<-ctx.Done()
	ready.Store(false)
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
