package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"summarist-billing/internal/domain/billing"
	"summarist-billing/internal/domain/plans"
	"summarist-billing/internal/domain/users"
)

// OpenPostgres connects to dsn. Unique violations are translated to
// gorm.ErrDuplicatedKey.
func OpenPostgres(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("connected to postgres")
	return db, nil
}

// Migrate creates or updates the tables for every stored model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&users.User{},
		&plans.Plan{},
		&billing.Payment{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
