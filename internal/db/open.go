package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Rasheed893/biotime-live-view/internal/logging"
)

// Config selects the SQLite file backing the default store.
type Config struct {
	Path    string // e.g. "./data/biotime.db"
	Env     string // "dev" | "prod"
	PoolMax int    // max open connections, default 10

	// BusyTimeout is how long a connection waits on a locked database.
	// Defaults to 5s.
	BusyTimeout time.Duration
}

// sqliteDSN builds a modernc DSN with per-connection pragmas.
func sqliteDSN(path string, busy time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "busy_timeout("+strconv.FormatInt(busy.Milliseconds(), 10)+")")
	return "file:" + path + "?" + q.Encode()
}

// Open opens the SQLite file, creating its directory if needed, checks it
// answers and brings the schema up to date.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/biotime.db"
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.PoolMax <= 0 {
		cfg.PoolMax = 10
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("Open: mkdir %s: %w", filepath.Dir(cfg.Path), err)
	}

	conn, err := sql.Open("sqlite", sqliteDSN(cfg.Path, cfg.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}

	// WAL lets readers share the pool; writes go through Worker.
	conn.SetMaxOpenConns(cfg.PoolMax)
	conn.SetMaxIdleConns(cfg.PoolMax)
	conn.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("Open: ping %s: %w", cfg.Path, err)
	}

	if err := Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logging.Info().
		Str("path", cfg.Path).
		Str("env", cfg.Env).
		Int("pool_max", cfg.PoolMax).
		Msg("sqlite database ready")
	return conn, nil
}
