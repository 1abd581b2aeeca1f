package db

import (
	"errors"
	"strings"

	"github.com/devcircularity/commerce-backend/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open connects to the configured Postgres database.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	log.Info("database connected")
	return conn, nil
}
