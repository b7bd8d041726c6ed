package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// PostgreSQL error codes the retrier cares about.
const (
	pgErrUniqueViolation      = "23505"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrAdminShutdown        = "57P01"
	pgErrCannotConnectNow     = "57P03"
)

// RetryConfig bounds how long a write is retried.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig keeps an audit write well inside the caller's timeout.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:      3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
	MaxElapsedTime:  4 * time.Second,
}

// Retrier retries database writes with exponential backoff. Only transient
// server and connection errors are retried.
type Retrier struct {
	cfg    RetryConfig
	logger zerolog.Logger
}

// NewRetrier creates a Retrier with DefaultRetryConfig.
func NewRetrier() *Retrier {
	return NewRetrierWithConfig(DefaultRetryConfig)
}

// NewRetrierWithConfig creates a Retrier with cfg.
func NewRetrierWithConfig(cfg RetryConfig) *Retrier {
	return &Retrier{cfg: cfg, logger: zerolog.Nop()}
}

// WithLogger sets the logger used for retry warnings.
func (r *Retrier) WithLogger(logger zerolog.Logger) *Retrier {
	r.logger = logger
	return r
}

// Retry runs op until it succeeds, fails permanently or the retry budget is
// spent. op receives the 1-based attempt number.
func (r *Retrier) Retry(ctx context.Context, op func(attempt int) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.MaxElapsedTime = r.cfg.MaxElapsedTime

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op(attempt)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) || attempt > r.cfg.MaxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn().Err(err).Int("attempt", attempt).Msg("transient database error, retrying")
		return err
	}, backoff.WithContext(b, ctx))
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrAdminShutdown, pgErrCannotConnectNow:
			return true
		}
		return false
	}
	return pgconn.SafeToRetry(err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
