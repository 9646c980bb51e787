// Package database owns the PostgreSQL connection and schema
// migrations.
package database

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inboxkit/inboxkit/internal/models"
)

// Pool limits sized for a single API instance sharing one database.
const (
	maxIdleConns    = 10
	maxOpenConns    = 100
	connMaxLifetime = time.Hour
	connMaxIdleTime = 10 * time.Minute
)

// Connect opens the database and configures the connection pool.
// Production deployments must not disable TLS on the wire.
func Connect(databaseURL string) (*gorm.DB, error) {
	if os.Getenv("APP_ENV") == "production" && strings.Contains(databaseURL, "sslmode=disable") {
		return nil, fmt.Errorf("SSL mode cannot be disabled in production")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	slog.Info("connected to database")
	return db, nil
}

// Migrate brings the schema up to date for every persisted model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Organization{},
		&models.ApiKey{},
		&models.Domain{},
		&models.Inbox{},
		&models.Thread{},
		&models.Message{},
		&models.ThreadMessage{},
		&models.Attachment{},
		&models.Webhook{},
		&models.WebhookAttempt{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("database migrations completed")
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
