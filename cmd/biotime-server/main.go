package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/live"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/service"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store/gormstore"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store/sqlite"
	"github.com/Rasheed893/biotime-live-view/internal/config"
	"github.com/Rasheed893/biotime-live-view/internal/db"
	"github.com/Rasheed893/biotime-live-view/internal/grpcapi"
	"github.com/Rasheed893/biotime-live-view/internal/httpapi"
	"github.com/Rasheed893/biotime-live-view/internal/livefeed"
	"github.com/Rasheed893/biotime-live-view/internal/logging"
	"github.com/Rasheed893/biotime-live-view/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("biotime-server exited")
		os.Exit(1)
	}
}

// backend bundles the store implementations for one database driver.
type backend struct {
	logs   store.LogStore
	dir    store.DirectoryStore
	msgs   store.MessageStore
	ping   store.Pinger
	events store.EventAppender
	close  func() error
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	loc, err := cfg.Filter.Location()
	if err != nil {
		return fmt.Errorf("filter timezone: %w", err)
	}
	schema, err := store.ParseSchema(cfg.Database.Schema)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg, schema, loc)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(); err != nil {
			logging.Warn().Err(err).Msg("closing database")
		}
	}()

	// Services
	guard := service.NewGuard(service.GuardConfig{
		Name:    "store",
		Timeout: cfg.Database.QueryTimeout,
	})
	logs := service.NewLogService(be.logs, guard)
	directory := service.NewDirectory(be.dir, be.msgs, guard)
	health := service.NewHealth(be.ping, guard)
	compiler := filter.NewCompiler(filter.ParsePolicy(cfg.Filter.Strict), loc)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	deps := httpapi.Dependencies{
		Addr:        cfg.Server.HTTPAddr(),
		Logs:        logs,
		Directory:   directory,
		Health:      health,
		Compiler:    compiler,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
	}

	if cfg.Live.Enabled {
		rec := live.NewReconciler(logs, live.Config{
			Interval:  cfg.Live.Interval,
			Highlight: cfg.Live.Highlight,
			MaxRows:   cfg.Live.MaxRows,
			Window:    cfg.Live.Window,
		})
		hub := livefeed.NewHub()
		detach := hub.Attach(rec)
		defer detach()

		tree.AddLiveService(rec)
		tree.AddLiveService(hub)
		deps.Live, deps.Hub = rec, hub
	}

	if cfg.IsDev() && cfg.Database.Simulate {
		tree.AddDataService(service.NewSimulator(be.dir, be.events, service.SimulatorConfig{
			Interval: cfg.Database.SimulateInterval,
			Location: loc,
		}))
	}

	srv := httpapi.NewServer(deps)
	tree.AddAPIService(supervisor.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	if cfg.Server.GRPCAddr != "" {
		tree.AddAPIService(grpcapi.New(grpcapi.Config{
			Addr:            cfg.Server.GRPCAddr,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}, health))
	}

	logging.Info().
		Str("env", cfg.Env).
		Str("driver", cfg.Database.Driver).
		Str("schema", string(schema)).
		Str("http", deps.Addr).
		Str("grpc", cfg.Server.GRPCAddr).
		Bool("live", cfg.Live.Enabled).
		Bool("strict", cfg.Filter.Strict).
		Str("timezone", loc.String()).
		Msg("starting biotime-server")

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor: %w", err)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, s := range report {
			logging.Warn().Str("service", s.Name).Msg("service did not stop in time")
		}
	}
	logging.Info().Msg("biotime-server stopped")
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, schema store.Schema, loc *time.Location) (*backend, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return openSQLite(ctx, cfg, schema, loc)
	default:
		return openGorm(ctx, cfg, schema)
	}
}

func openSQLite(ctx context.Context, cfg *config.Config, schema store.Schema, loc *time.Location) (*backend, error) {
	sqlDB, err := db.Open(ctx, db.Config{
		Path:    cfg.Database.Path,
		Env:     cfg.Env,
		PoolMax: cfg.Database.PoolMax,
	})
	if err != nil {
		return nil, err
	}

	if cfg.IsDev() && cfg.Database.SeedDev {
		if err := db.SeedDev(ctx, sqlDB, db.SeedDevOptions{
			HistoryEvents: 1500,
			HistoryDays:   7,
			Now:           time.Now().In(loc),
		}); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		logging.Info().Str("path", cfg.Database.Path).Msg("dev seed applied")
	}

	worker := db.NewWorker(sqlDB)
	dir := sqlite.NewDirectoryStore(sqlDB)
	return &backend{
		logs:   sqlite.NewLogStore(sqlDB, schema),
		dir:    dir,
		msgs:   sqlite.NewMessageStore(sqlDB, worker),
		ping:   dir,
		events: sqlite.NewEventWriter(worker, schema),
		close: func() error {
			worker.Close()
			return sqlDB.Close()
		},
	}, nil
}

func openGorm(ctx context.Context, cfg *config.Config, schema store.Schema) (*backend, error) {
	gl := logging.Logger().With().Str("component", "gorm").Logger()
	gdb, err := db.OpenGorm(ctx, db.GormConfig{
		Driver:  cfg.Database.Driver,
		DSN:     cfg.Database.DSN,
		PoolMax: cfg.Database.PoolMax,
		Log:     &gl,
	})
	if err != nil {
		return nil, err
	}
	if err := gormstore.AutoMigrate(gdb.WithContext(ctx)); err != nil {
		_ = db.CloseGorm(gdb)
		return nil, err
	}

	if cfg.IsDev() && cfg.Database.SeedDev {
		if err := gormstore.SeedDirectory(ctx, gdb); err != nil {
			_ = db.CloseGorm(gdb)
			return nil, err
		}
	}

	dir := gormstore.NewDirectoryStore(gdb)
	return &backend{
		logs:   gormstore.NewLogStore(gdb, schema),
		dir:    dir,
		msgs:   gormstore.NewMessageStore(gdb),
		ping:   dir,
		events: gormstore.NewEventWriter(gdb, schema),
		close:  func() error { return db.CloseGorm(gdb) },
	}, nil
}
