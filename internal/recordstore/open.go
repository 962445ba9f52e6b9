package recordstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"example.com/johar/internal/sqliteutil"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

// Config selects and parameterises a backend. DSN is the sqlite path, the
// postgres connection string or the redis URL depending on Driver.
type Config struct {
	Driver         string
	DSN            string
	Prefix         string
	S3             S3Config
	ConnectTimeout time.Duration
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Open builds the configured backend. Network backends are pinged with
// exponential backoff until ConnectTimeout elapses.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Backend, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		db, err := sqliteutil.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		b, err := NewSQLite(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return b, nil
	case DriverPostgres:
		b, err := NewPostgres(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := waitReady(ctx, b, cfg.ConnectTimeout, logger.With("driver", driver)); err != nil {
			b.Close()
			return nil, err
		}
		if err := b.Init(ctx); err != nil {
			b.Close()
			return nil, err
		}
		return b, nil
	case DriverRedis:
		b, err := NewRedis(cfg.DSN, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		if err := waitReady(ctx, b, cfg.ConnectTimeout, logger.With("driver", driver)); err != nil {
			b.Close()
			return nil, err
		}
		return b, nil
	case DriverS3:
		b, err := NewS3(ctx, cfg.S3, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		if err := waitReady(ctx, b, cfg.ConnectTimeout, logger.With("driver", driver)); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func waitReady(ctx context.Context, p pinger, timeout time.Duration, logger *slog.Logger) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = timeout

	op := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return p.Ping(pingCtx)
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("store not ready, retrying", "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		return fmt.Errorf("store not reachable: %w", err)
	}
	return nil
}
