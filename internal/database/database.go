package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const maxConnectBackoff = 30 * time.Second

// Options configures how the storage connection pool is opened.
type Options struct {
	Driver       string
	DSN          string
	Attempts     int
	Backoff      time.Duration
	MaxOpenConns int
	Logger       zerolog.Logger
}

type opener func(driver, dsn string) (*gorm.DB, error)

// Open establishes a single connection attempt using the named driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn must not be empty", driver)
	}

	config := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), config)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(withForeignKeys(dsn)), config)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	return db, nil
}

// ConnectWithRetry opens the pool, retrying with capped exponential backoff.
// It gives up after opts.Attempts failures or when ctx is done.
func ConnectWithRetry(ctx context.Context, opts Options) (*gorm.DB, error) {
	return connectWithRetry(ctx, opts, Open)
}

func connectWithRetry(ctx context.Context, opts Options, open opener) (*gorm.DB, error) {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := opts.Backoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := open(opts.Driver, opts.DSN)
		if err == nil {
			if err := configurePool(db, opts.MaxOpenConns); err != nil {
				return nil, err
			}
			opts.Logger.Info().Str("driver", opts.Driver).Int("attempt", attempt).Msg("database connected")
			return db, nil
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		opts.Logger.Warn().Err(err).
			Str("driver", opts.Driver).
			Int("attempt", attempt).
			Dur("retry_in", backoff).
			Msg("database connection failed")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("database connect aborted: %w", ctx.Err())
		case <-timer.C:
		}

		backoff *= 2
		if backoff > maxConnectBackoff {
			backoff = maxConnectBackoff
		}
	}

	return nil, fmt.Errorf("database unavailable after %d attempt(s): %w", attempts, lastErr)
}

// Ping verifies the pool can reach the database.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func configurePool(db *gorm.DB, maxOpen int) error {
	if maxOpen <= 0 {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	return nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=1"
	}
	return dsn + "?_foreign_keys=1"
}
