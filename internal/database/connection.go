// internal/database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"receipt-emulator/internal/config"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	*sql.DB
	dsn    string
	logger *zap.Logger
}

// NewConnection opens and verifies a PostgreSQL connection pool
func NewConnection(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	dsn := cfg.GetDatabaseDSN()

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	return &DB{DB: sqlDB, dsn: dsn, logger: logger}, nil
}

// Health checks that the database answers within the context deadline
func (db *DB) Health(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	db.logger.Info("Closing database connection")
	return db.DB.Close()
}
