package health

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"time"

	"sales-service/config"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// Checker 检查一个依赖；detail 是可选的补充信息（例如 outbox 积压量）
type Checker func(ctx context.Context) (detail string, err error)

// Controller 健康检查：/health 汇总各依赖，/health/ready 任一依赖失败即不可用
type Controller struct {
	config    *config.Config
	checkers  map[string]Checker
	startTime time.Time
}

// NewController checkers 为空时（内存存储）只报告进程本身
func NewController(cfg *config.Config, checkers map[string]Checker) *Controller {
	return &Controller{
		config:    cfg,
		checkers:  checkers,
		startTime: time.Now(),
	}
}

func (c *Controller) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", c.Health)
	router.GET("/health/live", c.Liveness)
	router.GET("/health/ready", c.Readiness)
}

// HealthResponse /health 的响应体
type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Storage   string           `json:"storage"`
	Publisher string           `json:"publisher"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

func (c *Controller) Health(ctx *gin.Context) {
	checks := make(map[string]Check, len(c.checkers))
	overallStatus := "healthy"

	for _, name := range c.checkerNames() {
		check := c.run(ctx.Request.Context(), c.checkers[name])
		checks[name] = check
		if check.Status != "healthy" {
			overallStatus = "unhealthy"
		}
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	ctx.JSON(statusCode, HealthResponse{
		Status:    overallStatus,
		Version:   c.config.App.Version,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Storage:   c.config.Database.Driver,
		Publisher: c.config.Events.Publisher,
		Checks:    checks,
	})
}

func (c *Controller) Liveness(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (c *Controller) Readiness(ctx *gin.Context) {
	for _, name := range c.checkerNames() {
		if check := c.run(ctx.Request.Context(), c.checkers[name]); check.Status != "healthy" {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": name + " not available",
			})
			return
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (c *Controller) checkerNames() []string {
	return slices.Sorted(maps.Keys(c.checkers))
}

func (c *Controller) run(ctx context.Context, checker Checker) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	detail, err := checker(ctx)
	latency := time.Since(start).String()

	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency}
	}
	return Check{Status: "healthy", Message: detail, Latency: latency}
}
