package store

import (
	"encoding/json"
	"fmt"

	"github.com/shaibs3/mediavault/internal/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ProviderFactory defines the interface for creating database providers
type ProviderFactory interface {
	CreateProvider(configJSON string) (DbProvider, error)
}

// DbProviderFactory implements ProviderFactory for creating database providers
type DbProviderFactory struct {
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
}

// NewDbProviderFactory creates a new provider factory
func NewDbProviderFactory(logger *zap.Logger, tel *telemetry.Telemetry) *DbProviderFactory {
	return &DbProviderFactory{
		logger:    logger.Named("factory"),
		telemetry: tel,
	}
}

func (f *DbProviderFactory) CreateProvider(configJSON string) (DbProvider, error) {
	var config DbProviderConfig

	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return nil, fmt.Errorf("failed to parse database configuration JSON: %w", err)
	}

	f.logger.Info("creating database provider", zap.String("db_type", config.DbType.String()))

	// Validate database type
	if !config.DbType.IsValid() {
		return nil, fmt.Errorf("unsupported database type: %s", config.DbType)
	}

	var telemetryMeter metric.Meter
	if f.telemetry != nil {
		telemetryMeter = f.telemetry.Meter
	}

	switch config.DbType {
	case DbTypePostgres:
		return NewPostgresProvider(config, f.logger, telemetryMeter)
	case DbTypeSQLite:
		return NewSQLiteProvider(config, f.logger, telemetryMeter)
	case DbTypeMemory:
		f.logger.Info("Using InMemoryProvider for DB")
		return NewInMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.DbType)
	}
}
