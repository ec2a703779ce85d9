// Package config loads the server configuration. Sources are layered,
// later ones winning:
//
//  1. built-in defaults
//  2. a YAML file (CONFIG_PATH, else ./config.yaml or ./config.yml)
//  3. environment variables, after a .env file in the working directory
//     has been applied
//
// Environment keys are BIOTIME_<SECTION>_<KEY>, e.g. BIOTIME_DATABASE_DRIVER
// or BIOTIME_LIVE_MAX_ROWS. API_PORT and DB_POOL_MAX are accepted for
// compatibility with older deployments.
package config

import (
	"net"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for images without /usr/share/zoneinfo
)

type Config struct {
	// Env is "dev" or "prod". Dev seeds demo data and may run the simulator.
	Env      string         `koanf:"env" validate:"oneof=dev prod"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Filter   FilterConfig   `koanf:"filter"`
	Live     LiveConfig     `koanf:"live"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	GRPCAddr        string        `koanf:"grpc_addr"` // empty disables the gRPC health server
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit" validate:"gte=0"` // requests per minute per IP, 0 disables
}

// HTTPAddr is the listen address for the HTTP API.
func (s ServerConfig) HTTPAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type DatabaseConfig struct {
	Driver       string        `koanf:"driver" validate:"oneof=sqlite postgres mysql sqlserver"`
	Path         string        `koanf:"path"` // sqlite file
	DSN          string        `koanf:"dsn" validate:"required_unless=Driver sqlite"`
	Schema       string        `koanf:"schema" validate:"oneof=denormalized joined"`
	PoolMax      int           `koanf:"pool_max" validate:"gte=1"`
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gte=0"`
	SeedDev      bool          `koanf:"seed_dev"`

	Simulate         bool          `koanf:"simulate"`
	SimulateInterval time.Duration `koanf:"simulate_interval"`
}

type FilterConfig struct {
	// Strict rejects malformed filter input with 400 instead of ignoring it.
	Strict bool `koanf:"strict"`
	// Timezone is the IANA zone event times are recorded in. Empty or
	// "Local" means the server's zone.
	Timezone string `koanf:"timezone"`
}

// Location resolves Timezone.
func (f FilterConfig) Location() (*time.Location, error) {
	if f.Timezone == "" || strings.EqualFold(f.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(f.Timezone)
}

type LiveConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Interval  time.Duration `koanf:"interval" validate:"gte=1s,lte=3s"`
	Highlight time.Duration `koanf:"highlight" validate:"gt=0"`
	MaxRows   int           `koanf:"max_rows" validate:"gte=1"`
	Window    int           `koanf:"window" validate:"gte=1,lte=500"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// IsDev reports whether development conveniences are enabled.
func (c *Config) IsDev() bool { return c.Env == "dev" }
