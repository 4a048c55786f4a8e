package api

import (
	"net/http"

	"sales-service/api/health"
	"sales-service/api/middleware"
	"sales-service/api/sale"
	"sales-service/config"
	"sales-service/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Router Route configuration
type Router struct {
	engine           *gin.Engine
	config           *config.Config
	metrics          *metrics.Metrics
	healthController *health.Controller
	saleController   *sale.Controller
}

// NewRouter Create route configuration. m 可以为 nil（metrics.enabled=false）
func NewRouter(
	cfg *config.Config,
	m *metrics.Metrics,
	healthController *health.Controller,
	saleController *sale.Controller,
) *Router {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 顺序有意义：先生成请求 ID，再 recovery / 日志
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.RecoveryMiddleware())
	engine.Use(middleware.LoggingMiddleware())
	if m != nil {
		engine.Use(m.GinMiddleware())
	}
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit))

	return &Router{
		engine:           engine,
		config:           cfg,
		metrics:          m,
		healthController: healthController,
		saleController:   saleController,
	}
}

// SetupRoutes Set up all routes
func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	{
		r.healthController.RegisterRoutes(apiGroup)
		r.saleController.RegisterRoutes(apiGroup)
	}

	if r.metrics != nil {
		r.engine.GET(r.config.Metrics.Path, gin.WrapH(r.metrics.Handler()))
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
			"sales":   "/api/v1/sales",
		})
	})
}

// GetEngine Get Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
