package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	h "github.com/veranemoloko/imgpoll/internal/api/http"
	cfgpkg "github.com/veranemoloko/imgpoll/internal/config"
	"github.com/veranemoloko/imgpoll/internal/fetch"
	svc "github.com/veranemoloko/imgpoll/internal/service"
)

func main() {
	cfg, err := cfgpkg.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	cfgpkg.SetupLogger(cfg)
	slog.Info("configuration loaded successfully")

	opener := fetch.NewHTTPOpener(fetch.Options{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.FetchTimeout,
		ChunkSize:   cfg.ChunkSize,
		MaxBodySize: cfg.MaxBodySize,
	})
	worker := fetch.NewWorker(opener, nil, nil, slog.Default())
	fetchService := svc.NewFetchService(worker, cfg, slog.Default())

	router := h.NewRouter(fetchService, slog.Default())
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		// A fetch in flight is abandoned here; it has no consumer left
		// to poll its cancellation through.
		fetchService.Cancel()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}
