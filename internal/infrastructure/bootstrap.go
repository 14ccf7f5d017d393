package infrastructure

import (
	"context"
	"log/slog"

	"famledger/internal/cache"
	"famledger/internal/config"
	"famledger/internal/repository/postgres"
	"famledger/internal/service"
	transportHTTP "famledger/internal/transport/http"
	transportNATS "famledger/internal/transport/nats"
	"famledger/internal/worker"
)

// Bootstrap initialises all dependencies from config and wires up the
// application. Returns the App, a cleanup function, or an error.
func Bootstrap(ctx context.Context) (*App, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	pool, err := connectPostgres(cfg.DSN())
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	cleanupFns = append(cleanupFns, pool.Close)

	db := postgres.New(pool)
	opts := service.Options{Logger: slog.Default()}

	// Optional balance cache.
	if cfg.RedisEnabled() {
		rdb, err := connectRedis(cfg.RedisAddr())
		if err != nil {
			return nil, runCleanup(cleanupFns), err
		}
		cleanupFns = append(cleanupFns, func() { _ = rdb.Close() })
		opts.Cache = cache.NewBalanceCache(rdb, slog.Default())
	}

	var servers []Server

	// Optional side-effect bus: notifications and audit go over NATS, and the
	// audit worker plus the command handler ride the same connection.
	if cfg.NatsEnabled() {
		nc, err := connectNats(cfg.NatsAddr())
		if err != nil {
			return nil, runCleanup(cleanupFns), err
		}
		cleanupFns = append(cleanupFns, nc.Close)

		bus := transportNATS.NewBus(nc)
		opts.Notifier = bus
		opts.Audit = bus

		svc := service.New(db, opts)
		servers = append(servers, worker.NewAuditWorker(db, nc))
		servers = append(servers, transportNATS.NewHandler(svc, nc))

		if addr, apiErr := cfg.ApiAddr(); apiErr == nil {
			servers = append(servers, transportHTTP.NewServer(addr, svc))
		}

		return NewApp(servers), runCleanup(cleanupFns), nil
	}

	svc := service.New(db, opts)
	if addr, apiErr := cfg.ApiAddr(); apiErr == nil {
		servers = append(servers, transportHTTP.NewServer(addr, svc))
	}

	return NewApp(servers), runCleanup(cleanupFns), nil
}

// runCleanup returns a single function that calls all cleanup functions in
// reverse order.
func runCleanup(fns []func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
