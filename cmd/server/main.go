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
	"time"

	"github.com/go-chi/chi/v5"

	"dossier/internal/audit"
	"dossier/internal/dossier/cache"
	"dossier/internal/dossier/handler"
	dossierMetrics "dossier/internal/dossier/metrics"
	"dossier/internal/dossier/service"
	"dossier/internal/dossier/store"
	"dossier/internal/platform/config"
	"dossier/internal/platform/httpserver"
	"dossier/internal/platform/logger"
	httpMetrics "dossier/internal/platform/metrics"
	"dossier/internal/platform/redis"
	"dossier/internal/storage/pool"
	"dossier/internal/storage/postgres"
	"dossier/internal/storage/registry"
	"dossier/internal/storage/shard"
	"dossier/internal/storage/sqlite"
	"dossier/internal/tracker"
)

// main wires dependencies once, serves HTTP, and drains on signal: in-flight
// operations are cancelled while HTTP shuts down, then store pools close.
func main() {
	cfg, err := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("dossier stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	router, err := buildShardRouter(cfg.ShardRanges)
	if err != nil {
		return err
	}
	reg, err := buildRegistry(cfg, router.Instances())
	if err != nil {
		return err
	}
	log.Info("store registry loaded", "stores", len(reg.Names()), "base_dir", cfg.BaseDir)

	dialer := pool.Drivers{
		registry.DriverSQLite:   sqlite.NewDialer(sqlite.WithLogger(log)),
		registry.DriverPostgres: postgres.NewDialer(),
	}
	pools := pool.NewManager(reg, dialer,
		pool.WithCapacity(cfg.Pool.Capacity),
		pool.WithAcquireTimeout(cfg.Pool.AcquireTimeout),
		pool.WithLogger(log),
		pool.WithMetrics(pool.NewMetrics()),
	)

	tr := tracker.New(
		tracker.WithLogger(log),
		tracker.WithMetrics(tracker.NewMetrics()),
		tracker.WithDefaultTimeout(cfg.Dossier.OperationTimeout),
		tracker.WithReconnect(cfg.Dossier.ReconnectInterval, func() {
			n := pools.DrainIdle()
			log.Info("store pools recycled", "closed_idle", n)
		}),
	)
	tr.Start(ctx)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(dossierMetrics.New()),
		service.WithFanOutLimit(cfg.Dossier.FanOutLimit),
		service.WithTimeout(cfg.Dossier.OperationTimeout),
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		// the cache is optional; resolve still works without it
		log.Warn("record cache disabled", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
		opts = append(opts, service.WithCache(cache.NewRedisCache(rdb.Client, cfg.Redis.TTL)))
		log.Info("record cache enabled", "ttl", cfg.Redis.TTL)
	}

	sink, closeSink, err := buildAuditSink(cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeSink()
	publisher := audit.NewPublisher(cfg.Audit.Buffer)
	auditCtx, stopAudit := context.WithCancel(context.Background())
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		_ = audit.NewWorker(publisher, sink, audit.WithWorkerLogger(log)).Run(auditCtx)
	}()
	opts = append(opts, service.WithAuditor(publisher))

	svc := service.New(store.New(pools, store.WithRouter(router), store.WithLogger(log)), tr, opts...)

	r := chi.NewRouter()
	handler.New(svc, pools, log, httpMetrics.New()).Register(r)
	srv := httpserver.New(cfg.Addr, r, cfg.Dossier.OperationTimeout)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting dossier", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
	defer cancel()

	err = drain(shutdownCtx, log, srv, tr, pools)
	stopAudit()
	select {
	case <-auditDone:
	case <-shutdownCtx.Done():
		log.Warn("audit flush did not finish", "pending", publisher.Pending())
	}
	log.Info("dossier stopped")
	return err
}

func buildShardRouter(spec string) (*shard.Router, error) {
	tables, err := shard.ParseTables(spec)
	if err != nil {
		return nil, fmt.Errorf("SHARD_RANGES: %w", err)
	}
	return shard.New(tables)
}

// buildRegistry reads the optional manifest, else derives every store's file
// from the base dir. Shard instances are registered alongside.
func buildRegistry(cfg config.Server, shardInstances []string) (*registry.Registry, error) {
	if cfg.Manifest == "" {
		return registry.New(registry.ForBaseDir(cfg.BaseDir, shardInstances...)...)
	}
	m, err := registry.LoadManifest(cfg.Manifest)
	if err != nil {
		return nil, err
	}
	descs, err := m.Descriptors(cfg.BaseDir, shardInstances...)
	if err != nil {
		return nil, err
	}
	return registry.New(descs...)
}

func buildAuditSink(cfg config.AuditConfig, log *slog.Logger) (audit.Sink, func(), error) {
	if len(cfg.Brokers) == 0 {
		return audit.NewLogSink(log), func() {}, nil
	}
	sink, err := audit.NewKafkaSink(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.Ping(pingCtx); err != nil {
		log.Warn("audit brokers unreachable at startup", "error", err)
	}
	log.Info("audit events to kafka", "topic", cfg.Topic)
	return sink, sink.Close, nil
}
