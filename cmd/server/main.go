package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"kyc/internal/platform/config"
	"kyc/internal/platform/httpserver"
	"kyc/internal/platform/logger"
	httptransport "kyc/internal/transport/http"
)

// main wires the stores, the command service and its transports, then runs
// the Kafka intake and the ops HTTP server until SIGINT or SIGTERM.
func main() {
	cfg := config.FromEnv()
	log := logger.NewWithWriter(os.Stdout, cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("kyc core stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	router := httptransport.NewRouter(httptransport.NewHandler(
		log, app.query, app.tracker, app.service, cfg.Server.AdminToken, app.checks...,
	))
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting ops server", "addr", cfg.Server.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if app.consumer != nil {
		g.Go(func() error {
			log.Info("consuming commands", "topic", cfg.Kafka.CommandsTopic, "group", cfg.Kafka.ConsumerGroup)
			if err := app.consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		app.registrar.Wait()
		return nil
	})

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}
