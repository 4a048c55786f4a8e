package cmd

import (
	"fmt"

	"sales-service/config"
	"sales-service/infrastructure/persistence/sqlstore"
	"sales-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenDatabase 按 database.driver 打开连接并按需迁移。API 进程和 outbox worker 共用。
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	dbConfig := sqlstore.FromAppConfig(cfg.Database)

	db, err := dbConfig.Connect()
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := sqlstore.AutoMigrate(db); err != nil {
			_ = sqlstore.Close(db)
			return nil, fmt.Errorf("failed to auto migrate: %w", err)
		}
		logger.Info("Database schema migrated", zap.String("driver", cfg.Database.Driver))
	}
	return db, nil
}
