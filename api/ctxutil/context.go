// Package ctxutil 把 gin 请求上的信息搬到 context.Context，供应用层和仓储使用
package ctxutil

import (
	"context"

	"sales-service/api/response"
	"sales-service/infrastructure/persistence"

	"github.com/gin-gonic/gin"
)

// WithRequestID 返回带请求 ID 的 request context。
// RequestIDMiddleware 已经写入时原样返回。
func WithRequestID(ctx *gin.Context) context.Context {
	reqCtx := ctx.Request.Context()
	if persistence.RequestIDFromContext(reqCtx) != "" {
		return reqCtx
	}
	return persistence.ContextWithRequestID(reqCtx, response.GetRequestID(ctx))
}

func RequestIDFromContext(ctx context.Context) string {
	return persistence.RequestIDFromContext(ctx)
}
