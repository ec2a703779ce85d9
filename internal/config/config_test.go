package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// isolate runs the test in an empty directory so no config.yaml or .env
// from the repo leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4000 || cfg.Server.HTTPAddr() != ":4000" {
		t.Errorf("unexpected server defaults %+v", cfg.Server)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Schema != "denormalized" || cfg.Database.PoolMax != 10 {
		t.Errorf("unexpected database defaults %+v", cfg.Database)
	}
	if cfg.Database.QueryTimeout != 15*time.Second {
		t.Errorf("expected 15s query timeout, got %v", cfg.Database.QueryTimeout)
	}
	if cfg.Live.Interval != time.Second || cfg.Live.Highlight != 2*time.Second || cfg.Live.MaxRows != 500 {
		t.Errorf("unexpected live defaults %+v", cfg.Live)
	}
	if !cfg.IsDev() || cfg.Filter.Strict {
		t.Errorf("expected dev env and lenient filters, got %+v", cfg)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	yaml := `
env: prod
database:
  driver: postgres
  dsn: postgres://localhost/biotime
  schema: joined
live:
  interval: 2s
server:
  cors_origins:
    - http://a.test
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("BIOTIME_LIVE_MAX_ROWS", "100")
	t.Setenv("BIOTIME_SERVER_GRPC_ADDR", ":9090")
	t.Setenv("BIOTIME_FILTER_STRICT", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "prod" || cfg.Database.Driver != "postgres" || cfg.Database.Schema != "joined" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Live.Interval != 2*time.Second || cfg.Live.MaxRows != 100 {
		t.Errorf("unexpected live config %+v", cfg.Live)
	}
	if cfg.Server.GRPCAddr != ":9090" || !cfg.Filter.Strict {
		t.Errorf("env values not applied: %+v %+v", cfg.Server, cfg.Filter)
	}
	if !slices.Equal(cfg.Server.CORSOrigins, []string{"http://a.test"}) {
		t.Errorf("unexpected origins %v", cfg.Server.CORSOrigins)
	}
}

func TestLoad_LegacyEnvAndCommaLists(t *testing.T) {
	isolate(t)
	t.Setenv("API_PORT", "5050")
	t.Setenv("DB_POOL_MAX", "4")
	t.Setenv("BIOTIME_SERVER_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5050 || cfg.Database.PoolMax != 4 {
		t.Errorf("legacy keys not applied: port=%d pool=%d", cfg.Server.Port, cfg.Database.PoolMax)
	}
	if !slices.Equal(cfg.Server.CORSOrigins, []string{"http://a.test", "http://b.test"}) {
		t.Errorf("unexpected origins %v", cfg.Server.CORSOrigins)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BIOTIME_LOGGING_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("BIOTIME_LOGGING_LEVEL") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level from .env, got %q", cfg.Logging.Level)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"unknown driver", "BIOTIME_DATABASE_DRIVER", "mssql", "Driver"},
		{"interval too fast", "BIOTIME_LIVE_INTERVAL", "100ms", "Interval"},
		{"interval too slow", "BIOTIME_LIVE_INTERVAL", "5s", "Interval"},
		{"bad schema", "BIOTIME_DATABASE_SCHEMA", "star", "Schema"},
		{"bad timezone", "BIOTIME_FILTER_TIMEZONE", "Mars/Olympus", "timezone"},
		{"postgres without dsn", "BIOTIME_DATABASE_DRIVER", "postgres", "DSN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"BIOTIME_ENV":               "env",
		"BIOTIME_DATABASE_POOL_MAX": "database.pool_max",
		"BIOTIME_SERVER_GRPC_ADDR":  "server.grpc_addr",
		"BIOTIME_LIVE_MAX_ROWS":     "live.max_rows",
		"API_PORT":                  "server.port",
		"BIOTIME_UNKNOWN_X":         "",
		"PATH":                      "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterConfig_Location(t *testing.T) {
	loc, err := FilterConfig{Timezone: "Asia/Riyadh"}.Location()
	if err != nil || loc.String() != "Asia/Riyadh" {
		t.Errorf("unexpected location %v %v", loc, err)
	}
	if loc, _ := (FilterConfig{}).Location(); loc != time.Local {
		t.Errorf("expected Local, got %v", loc)
	}
}
