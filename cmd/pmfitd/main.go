package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ankitjain91/pmfit-analyzer/internal/analysis"
	"github.com/ankitjain91/pmfit-analyzer/internal/api"
	"github.com/ankitjain91/pmfit-analyzer/internal/cache"
	"github.com/ankitjain91/pmfit-analyzer/internal/config"
	"github.com/ankitjain91/pmfit-analyzer/internal/health"
	"github.com/ankitjain91/pmfit-analyzer/internal/logging"
	"github.com/ankitjain91/pmfit-analyzer/internal/metrics"
	"github.com/ankitjain91/pmfit-analyzer/internal/queue"
	"github.com/ankitjain91/pmfit-analyzer/internal/sources"
	"github.com/ankitjain91/pmfit-analyzer/internal/store"
	"github.com/ankitjain91/pmfit-analyzer/internal/tracing"
	"github.com/ankitjain91/pmfit-analyzer/internal/upstream"
)

func main() {
	cfg := config.FromEnv()
	ctx := context.Background()

	logger := logging.New(cfg.AppName + "d")

	shutdownTracing, err := tracing.InitTracing(ctx, cfg.AppName+"d")
	if err != nil {
		logger.Plain().WithError(err).Fatal("failed to initialize tracing")
	}
	defer shutdownTracing()

	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	// Optional persistence: run cache-only when no DSN is configured.
	var db *store.Store
	var dbPinger health.Pinger
	if cfg.DB.DSN != "" {
		db, err = store.Connect(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Plain().WithError(err).Fatal("db connect failed")
		}
		defer db.Close()
		dbPinger = db
	} else {
		logger.Plain().Warn("no DB_DSN configured, reports are cache-only")
	}

	q := queue.New(queue.Config{
		MaxConcurrency: cfg.Queue.MaxConcurrency,
		MaxRetries:     cfg.Queue.MaxRetries,
		BackoffBase:    cfg.Queue.BackoffBase,
		BackoffMax:     cfg.Queue.BackoffMax,
		JitterPercent:  cfg.Queue.JitterPercent,
		DedupTTL:       cfg.Queue.DedupTTL,
	}, queue.WithLogger(logger))

	up := upstream.NewClient(q, cfg.Upstream.Timeout)
	src := sources.New(up, cfg.Upstream)
	reportCache := cache.New(cfg.Cache.ReportTTL)

	var reportStore analysis.Store
	if db != nil {
		reportStore = db
	}
	svc := analysis.NewService(src, reportCache, reportStore, cfg.PrefetchEnabled)

	server := api.NewServer(svc, src,
		health.HTTPHandler(dbPinger, q),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Plain().WithField("addr", httpSrv.Addr).Info("pmfitd HTTP server starting")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Plain().WithError(err).Fatal("pmfitd HTTP server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Plain().Info("shutdown signal received")

	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(stopCtx); err != nil {
		logger.Plain().WithError(err).Error("http shutdown failed")
	}
	// Let queued work (retries, prefetch) settle before exit.
	if err := q.Drain(stopCtx); err != nil {
		logger.Plain().WithError(err).Warn("queue drain timed out")
	}
	logger.Plain().Info("pmfitd stopped")
}
