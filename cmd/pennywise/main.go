package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pennywise/internal/amqp"
	"pennywise/internal/cache"
	"pennywise/internal/cli"
	apphttp "pennywise/internal/http"
	"pennywise/internal/log"
	"pennywise/internal/notify"
	"pennywise/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	logger.Info("Starting pennywise server", log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	l, closeStore, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Failed to close storage", log.FieldError, err)
		}
	}()

	var (
		notifier notify.Notifier = notify.LogNotifier{Logger: logger.WithComponent(log.ComponentApp).Logger}
		exports  services.ExportRequester
	)
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(ctx, cli.AMQPConfig(cfg))
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		notifier = notify.Multi{notifier, client}
		exports = client
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, Sheets export unavailable")
	}

	// The HTTP surface has no interactive prompt, so deletes are confirmed.
	svc := services.NewLedgerService(l, notifier, notify.AlwaysConfirm, exports, logger)

	proxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		logger.Error("Invalid trusted proxies", log.FieldError, err)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:             ":" + cfg.Port,
		RateLimitPerMin:  cfg.RateLimitPerMin,
		TrustedProxies:   proxies,
		SummaryCacheSize: cfg.SummaryCacheSize,
		SummaryCacheTTL:  cfg.SummaryCacheTTL,
	}, svc, logger)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return cache.NewJanitor(srv.Cleaners()...).Run(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(cfg.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
