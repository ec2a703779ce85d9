package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	ConfigPathEnvVar = "CONFIG_PATH"
	envPrefix        = "BIOTIME_"
)

var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

var sections = []string{"server", "database", "filter", "live", "logging"}

var sliceConfigPaths = []string{"server.cors_origins"}

var legacyEnv = map[string]string{
	"API_PORT":    "server.port",
	"DB_POOL_MAX": "database.pool_max",
}

func defaultConfig() *Config {
	return &Config{
		Env: "dev",
		Server: ServerConfig{
			Host:            "",
			Port:            4000,
			GRPCAddr:        "",
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       600,
		},
		Database: DatabaseConfig{
			Driver:           "sqlite",
			Path:             "./data/biotime.db",
			Schema:           "denormalized",
			PoolMax:          10,
			QueryTimeout:     15 * time.Second,
			SeedDev:          true,
			SimulateInterval: 3 * time.Second,
		},
		Live: LiveConfig{
			Enabled:   true,
			Interval:  time.Second,
			Highlight: 2 * time.Second,
			MaxRows:   500,
			Window:    50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the config file and the
// environment, then validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Env = strings.ToLower(cfg.Env)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc maps an environment variable name to a config path,
// or "" to ignore it.
//
//	BIOTIME_ENV                -> env
//	BIOTIME_DATABASE_POOL_MAX  -> database.pool_max
//	BIOTIME_SERVER_GRPC_ADDR   -> server.grpc_addr
//	API_PORT                   -> server.port
func envTransformFunc(key string) string {
	if path, ok := legacyEnv[key]; ok {
		return path
	}
	if !strings.HasPrefix(key, envPrefix) {
		return ""
	}

	rest := strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if rest == "env" {
		return "env"
	}
	for _, s := range sections {
		if field, ok := strings.CutPrefix(rest, s+"_"); ok && field != "" {
			return s + "." + field
		}
	}
	return ""
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks field constraints and the timezone.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if _, err := c.Filter.Location(); err != nil {
		return fmt.Errorf("filter.timezone: %w", err)
	}
	return nil
}
