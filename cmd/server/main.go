package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"fraudintel/internal/platform/config"
	"fraudintel/internal/platform/httpserver"
	"fraudintel/internal/platform/logger"
)

// main wires dependencies, serves HTTP, and runs the background pipelines
// (audit worker, outbox relay, notification consumer) until a signal arrives.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.close()

	srv := httpserver.New(cfg.Addr, app.router)

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range app.background {
		g.Go(func() error {
			if err := job.run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("background job stopped", "job", job.name, "error", err)
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		log.Info("starting fraudintel", "addr", cfg.Addr, "storage", app.storage)
		return httpserver.Run(gctx, srv)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
