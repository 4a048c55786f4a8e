package cmd

import (
	"context"
	"fmt"
	"net/http"

	"sales-service/api"
	"sales-service/api/health"
	apisale "sales-service/api/sale"
	saleapp "sales-service/application/sale"
	"sales-service/config"
	"sales-service/domain/sale"
	"sales-service/domain/shared"
	"sales-service/infrastructure/messaging"
	"sales-service/infrastructure/persistence/memory"
	"sales-service/infrastructure/persistence/retry"
	"sales-service/infrastructure/persistence/sqlstore"
	"sales-service/infrastructure/persistence/sqlstore/po"
	"sales-service/pkg/logger"
	"sales-service/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AppBuilder 组装 App：存储、事件发布器、应用服务、路由
type AppBuilder struct {
	cfg        *config.Config
	publisher  shared.EventPublisher
	skipLogger bool
}

// NewBuilder creates a new AppBuilder
func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// WithPublisher 替换 events.publisher 选出的发布器（仍会套上指标统计）
func (b *AppBuilder) WithPublisher(p shared.EventPublisher) *AppBuilder {
	b.publisher = p
	return b
}

// WithoutLoggerInit 沿用调用方已经配置好的全局 logger
func (b *AppBuilder) WithoutLoggerInit() *AppBuilder {
	b.skipLogger = true
	return b
}

// Build creates the App instance. 失败时已打开的资源会被释放。
func (b *AppBuilder) Build(ctx context.Context) (app *App, err error) {
	if !b.skipLogger {
		if err := logger.Init(&b.cfg.Log, b.cfg.App.Env); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	logger.Info("Starting application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env),
		zap.String("database", b.cfg.Database.Driver),
		zap.String("publisher", b.cfg.Events.Publisher))

	var closers []func() error
	defer func() {
		if err != nil {
			closeAll(closers)
		}
	}()

	var m *metrics.Metrics
	if b.cfg.Metrics.Enabled {
		m = metrics.New(b.cfg.Metrics.Namespace)
	}

	db, repo, uow, err := b.initStorage()
	if err != nil {
		return nil, err
	}
	if db != nil {
		closers = append(closers, func() error { return sqlstore.Close(db) })
	}

	publisher, closePublisher, err := b.initPublisher(ctx, db, m)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closePublisher)

	var opts []saleapp.Option
	if m != nil {
		opts = append(opts, saleapp.WithObserver(m))
	}
	saleService := saleapp.NewApplicationService(repo, uow, publisher, opts...)

	if b.cfg.App.Seed {
		if _, err := saleapp.Seed(ctx, repo); err != nil {
			return nil, fmt.Errorf("failed to seed demo sales: %w", err)
		}
	}

	router := api.NewRouter(b.cfg, m, health.NewController(b.cfg, b.healthCheckers(db)), apisale.NewController(saleService))
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}

	return &App{
		config:  b.cfg,
		router:  router,
		server:  server,
		closers: closers,
	}, nil
}

func (b *AppBuilder) initStorage() (*gorm.DB, sale.Repository, shared.UnitOfWork, error) {
	retryConfig := retry.FromAppConfig(b.cfg.Database.Retry)

	if b.cfg.Database.Driver == "memory" {
		logger.Info("Using in-memory persistence layer")
		return nil, memory.NewSaleRepository(), memory.NewUnitOfWork(retryConfig), nil
	}

	db, err := OpenDatabase(b.cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return db, sqlstore.NewSaleRepository(db), sqlstore.NewUnitOfWork(db, retryConfig), nil
}

// initPublisher 按 events.publisher 选择发布器，外面统一套一层指标统计
func (b *AppBuilder) initPublisher(ctx context.Context, db *gorm.DB, m *metrics.Metrics) (shared.EventPublisher, func() error, error) {
	publisher, closeFn, err := b.selectPublisher(ctx, db, m)
	if err != nil {
		return nil, nil, err
	}
	if m != nil {
		publisher = messaging.NewInstrumentedPublisher(publisher, m)
	}
	return publisher, closeFn, nil
}

func (b *AppBuilder) selectPublisher(ctx context.Context, db *gorm.DB, m *metrics.Metrics) (shared.EventPublisher, func() error, error) {
	noop := func() error { return nil }

	if b.publisher != nil {
		return b.publisher, noop, nil
	}

	switch kind := b.cfg.Events.Publisher; kind {
	case "bus":
		bus := shared.NewEventBus()
		if err := saleapp.RegisterEventHandlers(bus, logger.Get()); err != nil {
			return nil, nil, fmt.Errorf("failed to register event handlers: %w", err)
		}
		return bus, noop, nil
	case "outbox":
		if db == nil {
			return nil, nil, fmt.Errorf("events.publisher outbox requires a SQL database")
		}
		return sqlstore.NewOutboxPublisher(sqlstore.NewOutboxRepository(db)), noop, nil
	default:
		relay, closeRelay, err := NewRelay(ctx, kind, b.cfg, m)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s publisher: %w", kind, err)
		}
		return messaging.NewPublisher(relay), closeRelay, nil
	}
}

// healthCheckers 内存存储没有外部依赖；SQL 存储检查连接，outbox 模式额外报告积压
func (b *AppBuilder) healthCheckers(db *gorm.DB) map[string]health.Checker {
	if db == nil {
		return nil
	}

	checkers := map[string]health.Checker{
		"database": func(ctx context.Context) (string, error) {
			return "", sqlstore.Ping(ctx, db)
		},
	}
	if b.publisher == nil && b.cfg.Events.Publisher == "outbox" {
		outbox := sqlstore.NewOutboxRepository(db)
		checkers["outbox"] = func(ctx context.Context) (string, error) {
			counts, err := outbox.CountByStatus(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("pending=%d failed=%d", counts[po.EventStatusPending], counts[po.EventStatusFailed]), nil
		}
	}
	return checkers
}

func closeAll(closers []func() error) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("Failed to release resource", zap.Error(err))
		}
	}
}
