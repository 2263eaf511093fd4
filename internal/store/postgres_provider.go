package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/lib/pq"
	"github.com/shaibs3/mediavault/internal/db"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type PostgresProvider struct {
	*sqlProvider
	cb *gobreaker.CircuitBreaker
}

// NewPostgresProvider connects to postgres and bootstraps the schema
func NewPostgresProvider(config DbProviderConfig, logger *zap.Logger, meter metric.Meter) (*PostgresProvider, error) {
	pgLogger := logger.Named("postgres")

	connStr, ok := config.stringDetail("conn_str")
	if !ok {
		return nil, fmt.Errorf("conn_str is required for Postgres provider")
	}
	pgLogger.Info("initializing Postgres provider")

	dbConn, err := sql.Open("postgres", connStr)
	if err != nil {
		pgLogger.Error("failed to open Postgres connection", zap.Error(err))
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	if err := dbConn.Ping(); err != nil {
		pgLogger.Error("failed to ping Postgres", zap.Error(err))
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	// Automatically create tables if they do not exist
	if _, err := dbConn.Exec(db.Schema); err != nil {
		pgLogger.Error("failed to create initial tables", zap.Error(err))
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to create initial tables: %w", err)
	}

	pgLogger.Info("Postgres provider initialized successfully")
	return newPostgresProvider(dbConn, pgLogger, meter), nil
}

func newPostgresProvider(dbConn *sql.DB, logger *zap.Logger, meter metric.Meter) *PostgresProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PostgresDB",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isDomainError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	p := &PostgresProvider{cb: cb}
	p.sqlProvider = &sqlProvider{
		db:       dbConn,
		queries:  db.NewQueries(dbConn, db.DialectPostgres),
		backend:  DbTypePostgres,
		logger:   logger,
		metrics:  newStoreMetrics(meter),
		classify: classifyPostgres,
		run:      p.withBreakerAndRetry,
		now:      time.Now,
	}
	return p
}

// withBreakerAndRetry runs fn through the circuit breaker, retrying transient failures
func (p *PostgresProvider) withBreakerAndRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		func() error {
			_, err := p.cb.Execute(func() (interface{}, error) {
				return nil, fn()
			})
			return err
		},
		retry.Attempts(3),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !isDomainError(err) && ctx.Err() == nil && !errors.Is(err, gobreaker.ErrOpenState)
		}),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn("retrying store operation",
				zap.String("operation", op),
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
}

func classifyPostgres(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConstraintViolation, pqErr.Message)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Message)
		}
	}
	return classifyCommon(err)
}
