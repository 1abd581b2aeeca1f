package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/devcircularity/commerce-backend/internal/clock"
	"github.com/devcircularity/commerce-backend/internal/config"
	"github.com/devcircularity/commerce-backend/internal/db"
	"github.com/devcircularity/commerce-backend/internal/file/payloadfile"
	"github.com/devcircularity/commerce-backend/internal/migration"
	"github.com/devcircularity/commerce-backend/internal/observability"
	"github.com/devcircularity/commerce-backend/internal/observability/logger"
	"github.com/devcircularity/commerce-backend/internal/payment"
	"github.com/devcircularity/commerce-backend/internal/server"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// version is stamped via -ldflags at build time.
var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Supply(observability.BuildInfo{Version: version}),
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		clock.Module,
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),
		payment.Module,
		payloadfile.Module,
		server.Module,
	)
	app.Run()
}
