// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// slowmoded adapts the slowmode of chat channels to their message rate.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/go-core-stack/slowmode/config"
	"github.com/go-core-stack/slowmode/db"
	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/host"
	"github.com/go-core-stack/slowmode/httpapi"
	"github.com/go-core-stack/slowmode/monitor"
	"github.com/go-core-stack/slowmode/rate"
	"github.com/go-core-stack/slowmode/store"
)

const (
	// attempts at reaching the store before giving up on startup
	storeConnectAttempts = 10

	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Log) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	return zc.Build()
}

// waitHealthy retries check with backoff until it succeeds, the
// attempts are exhausted or ctx is done
func waitHealthy(ctx context.Context, logger *zap.Logger, name string, check func(ctx context.Context) error) error {
	policy := retrypolicy.NewBuilder[any]().
		WithBackoff(200*time.Millisecond, 5*time.Second).
		WithMaxAttempts(storeConnectAttempts).
		OnRetry(func(e failsafe.ExecutionEvent[any]) {
			logger.Warn("store not reachable, retrying",
				zap.String("backend", name),
				zap.Int("attempt", e.Attempts()),
				zap.Error(e.LastError()))
		}).
		Build()
	return failsafe.With(policy).WithContext(ctx).Run(func() error {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return check(cctx)
	})
}

// newStore connects the configured backend, the returned func releases
// its connections
func newStore(ctx context.Context, cfg config.Store, logger *zap.Logger) (monitor.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendMongo:
		client, err := db.NewMongoClient(&db.MongoConfig{
			Host:     cfg.Mongo.Host,
			Port:     cfg.Mongo.Port,
			Uri:      cfg.Mongo.Uri,
			Username: cfg.Mongo.Username,
			Password: cfg.Mongo.Password,
			Tracing:  cfg.Mongo.Tracing,
		})
		if err != nil {
			return nil, nil, err
		}
		closer := func() { _ = client.Disconnect(context.Background()) }
		if err := waitHealthy(ctx, logger, cfg.Backend, client.HealthCheck); err != nil {
			closer()
			return nil, nil, err
		}
		s, err := store.NewMongo(client, cfg.Mongo.Database,
			store.WithTransactions(cfg.Mongo.Transactions),
			store.WithMongoLogger(logger))
		if err != nil {
			closer()
			return nil, nil, err
		}
		return s, closer, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closer := func() { _ = rdb.Close() }
		err := waitHealthy(ctx, logger, cfg.Backend, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		if err != nil {
			closer()
			return nil, nil, err
		}
		s := store.NewRedis(rdb,
			store.WithKeyPrefix(cfg.Redis.KeyPrefix),
			store.WithRedisLogger(logger))
		return s, closer, nil
	}

	logger.Warn("using in-memory store, configuration is lost on restart")
	return store.NewMemory(), func() {}, nil
}

func run(args []string) error {
	fs := pflag.NewFlagSet("slowmoded", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path of the YAML configuration file")
	logLevel := fs.String("log.level", "", "log level, overrides the configuration file")
	listen := fs.String("http.listen", "", "HTTP listen address, overrides the configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *listen != "" {
		cfg.HTTP.Listen = *listen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	instance := uuid.New().String()
	db.SetSourceIdentifier("slowmoded-" + instance)
	logger = logger.With(zap.String("instance", instance))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	st, closeStore, err := newStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	dir := host.NewDirectory(host.WithDirectoryLogger(logger))
	var h monitor.Host = dir
	handlerOpts := []httpapi.Option{
		httpapi.WithLogger(logger),
		httpapi.WithGatherer(reg),
	}
	resyncOpts := []monitor.ResyncOption{
		monitor.WithResyncLogger(logger),
	}
	if cfg.Throttle.Enabled() {
		th, err := host.NewThrottled(dir, rate.NewLimitManager(cfg.Throttle.GlobalRate),
			cfg.Throttle.ChannelRate, cfg.Throttle.Burst,
			host.WithThrottleLogger(logger),
			host.WithThrottleRegisterer(reg))
		if err != nil {
			return err
		}
		h = th
		handlerOpts = append(handlerOpts, httpapi.WithReleaser(th))
		resyncOpts = append(resyncOpts, monitor.WithResyncReleaser(th))
	}

	registry := monitor.NewRegistry(st, h,
		monitor.WithLogger(logger),
		monitor.WithRegisterer(reg),
		monitor.WithPaceCeiling(host.MaxPace))
	if _, err := registry.Initialize(ctx); err != nil {
		return err
	}

	resync := monitor.NewResyncer(registry, cfg.Monitor.ResyncInterval, resyncOpts...)
	srv := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           httpapi.NewHandler(registry, dir, handlerOpts...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return resync.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	logger.Info("stopped", zap.Error(err))
	return err
}
