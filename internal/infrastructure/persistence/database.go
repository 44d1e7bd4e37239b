package persistence

import (
	"fmt"
	"time"

	"github.com/heraerp/platform/internal/infrastructure/config"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the Postgres connection pool with a zap-backed GORM logger.
// Driver errors are translated so unique violations surface as gorm.ErrDuplicatedKey.
func NewDatabase(cfg *config.DatabaseConfig, zapLogger *zap.Logger, logLevel gormlogger.LogLevel) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig(zapLogger, logLevel, cfg.SlowQueryThresh))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := RegisterOrganizationGuard(db); err != nil {
		return nil, fmt.Errorf("failed to register organization guard: %w", err)
	}

	return &Database{DB: db}, nil
}

// GormConfig is the gorm.Config every connection uses
func GormConfig(zapLogger *zap.Logger, logLevel gormlogger.LogLevel, slowThreshold time.Duration) *gorm.Config {
	var l gormlogger.Interface = gormlogger.Default.LogMode(gormlogger.Silent)
	if zapLogger != nil {
		l = logger.NewGormLogger(zapLogger, logLevel, slowThreshold)
	}
	return &gorm.Config{
		Logger:                 l,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}
