package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormConfig selects a server-class database reached through gorm.
type GormConfig struct {
	Driver  string // "postgres" | "mysql" | "sqlserver"
	DSN     string
	PoolMax int

	// Log receives gorm's slow-query and error output. Nil silences it.
	Log *zerolog.Logger
}

// Dialector returns the gorm dialector for cfg.Driver.
func Dialector(cfg GormConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "postgresql":
		return postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		}), nil
	case "mysql", "mariadb":
		return mysql.New(mysql.Config{
			DSN:                       cfg.DSN,
			SkipInitializeWithVersion: true,
		}), nil
	case "sqlserver", "mssql":
		return sqlserver.New(sqlserver.Config{DSN: cfg.DSN}), nil
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", cfg.Driver)
	}
}

func OpenGorm(ctx context.Context, cfg GormConfig) (*gorm.DB, error) {
	if cfg.PoolMax <= 0 {
		cfg.PoolMax = 10
	}

	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormLogger(cfg.Log),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.PoolMax)
	sqlDB.SetMaxIdleConns(cfg.PoolMax / 2)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return gdb, nil
}

// CloseGorm closes the pool underneath gdb.
func CloseGorm(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogger(l *zerolog.Logger) logger.Interface {
	if l == nil {
		return logger.Discard
	}
	return logger.New(l, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
