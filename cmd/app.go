package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"sales-service/api"
	"sales-service/config"
	"sales-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// App HTTP 服务及其持有的资源
type App struct {
	config  *config.Config
	router  *api.Router
	server  *http.Server
	closers []func() error
}

// Run 启动 HTTP 服务，ctx 取消后优雅关闭
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", a.server.Addr),
			zap.String("health", "/api/v1/health"))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.release()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return a.Shutdown()
}

// Shutdown 等待进行中的请求，超时由 server.shutdown_timeout 控制
func (a *App) Shutdown() error {
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(ctx)
	a.release()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func (a *App) release() {
	closeAll(a.closers)
	a.closers = nil
	_ = logger.Sync()
}

// GetServer 获取 gin 引擎（用于测试）
func (a *App) GetServer() *gin.Engine {
	return a.router.GetEngine()
}
