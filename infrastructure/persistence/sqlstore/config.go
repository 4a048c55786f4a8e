/*
Package sqlstore 基于 GORM 的持久化实现，支持 MySQL、PostgreSQL、SQLite。

仓储从 ctx 中取 UnitOfWork 开启的事务；不在事务中调用时自行开启短事务，
保证销售单与明细的写入原子性。
*/
package sqlstore

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sales-service/config"
	"sales-service/infrastructure/persistence/sqlstore/po"
	"sales-service/pkg/logger"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 10
	DefaultConnMaxLifetime = 10 * time.Minute
	DefaultConnMaxIdleTime = 5 * time.Minute
)

// Config 连接参数，由 config.DatabaseConfig 转换而来
type Config struct {
	Driver          string
	Host            string
	Port            string
	Username        string
	Password        string
	Database        string
	SSLMode         string
	LogLevel        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func FromAppConfig(cfg config.DatabaseConfig) Config {
	return Config{
		Driver:          cfg.Driver,
		Host:            cfg.Host,
		Port:            cfg.Port,
		Username:        cfg.Username,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		LogLevel:        cfg.LogLevel,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}

// DSN 按驱动拼接连接串
func (c *Config) DSN() string {
	switch c.Driver {
	case "mysql":
		dsn := mysqlDriver.NewConfig()
		dsn.User = c.Username
		dsn.Passwd = c.Password
		dsn.Net = "tcp"
		dsn.Addr = net.JoinHostPort(c.Host, c.Port)
		dsn.DBName = c.Database
		dsn.ParseTime = true
		dsn.Loc = time.UTC
		dsn.Collation = "utf8mb4_unicode_ci"
		dsn.Params = map[string]string{"charset": "utf8mb4"}
		dsn.ReadTimeout = 10 * time.Second
		dsn.WriteTimeout = 10 * time.Second
		return dsn.FormatDSN()
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
	default:
		if c.Database == "" {
			return "file::memory:?cache=shared"
		}
		return c.Database
	}
}

func (c *Config) isInMemorySQLite() bool {
	return c.Driver == "sqlite" && (c.Database == "" || strings.Contains(c.Database, ":memory:") || strings.Contains(c.Database, "mode=memory"))
}

func (c *Config) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case "mysql":
		return mysql.Open(c.DSN()), nil
	case "postgres":
		return postgres.Open(c.DSN()), nil
	case "sqlite":
		if !c.isInMemorySQLite() {
			if err := os.MkdirAll(filepath.Dir(c.Database), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return sqlite.Open(c.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

func (c *Config) applyDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = DefaultConnMaxIdleTime
	}
	// SQLite 单写者
	if c.Driver == "sqlite" {
		c.MaxOpenConns = 1
		c.MaxIdleConns = 1
	}
}

// Connect 打开连接池
func (c *Config) Connect() (*gorm.DB, error) {
	c.applyDefaults()

	dialector, err := c.dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(logger.ParseGormLevel(c.LogLevel)),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(c.ConnMaxIdleTime)

	logger.Info("Database connected",
		zap.String("driver", c.Driver),
		zap.String("host", c.Host),
		zap.String("database", c.Database),
		zap.Int("max_open_conns", c.MaxOpenConns),
	)
	return db, nil
}

// AutoMigrate 建表 / 补字段
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&po.SalePO{}, &po.SaleItemPO{}, &po.OutboxEventPO{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping 健康检查
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
