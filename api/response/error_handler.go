package response

import (
	stdErrors "errors"
	"net/http"
	"runtime"

	"sales-service/domain/shared"
	"sales-service/pkg/errors"
	"sales-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

func captureStack(skip int) []string {
	var pcs [16]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		frame, more := frames.Next()
		if frame.Function != "" {
			stack = append(stack, frame.Function)
		}
		if !more {
			break
		}
	}
	return stack
}

// HandleError 处理参数绑定、路径参数解析等框架层错误，统一返回 VALIDATION_ERROR。
func HandleError(c *gin.Context, err error, message string, status int) {
	requestID := GetRequestID(c)

	logger.Warn(message,
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Int("status", status),
		zap.Error(err))

	c.JSON(status, &Response{
		Success:   false,
		Error:     string(errors.CodeValidation),
		Message:   message + ": " + err.Error(),
		Code:      status,
		RequestID: requestID,
	})
}

// HandleAppError 按应用错误码映射 HTTP 状态码。
// 5xx 记录 Error 日志并附带堆栈，4xx 只记 Warn。
func HandleAppError(c *gin.Context, err error) {
	requestID := GetRequestID(c)
	appErr := errors.FromDomainError(err)
	httpStatus := appErr.HTTPStatusCode()

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("error_code", string(appErr.Code)),
		zap.Int("http_status", httpStatus),
	}
	if appErr.Err != nil {
		fields = append(fields, zap.Error(appErr.Err))
	}

	if httpStatus >= http.StatusInternalServerError {
		fields = append(fields, zap.Strings("stack", extractStack(err)))
		logger.Error(appErr.Message, fields...)
	} else {
		logger.Warn(appErr.Message, fields...)
	}

	c.JSON(httpStatus, &Response{
		Success:   false,
		Error:     string(appErr.Code),
		Message:   appErr.Message,
		Code:      httpStatus,
		RequestID: requestID,
	})
}

// extractStack 优先取错误发生点的堆栈，没有时在处理点捕获
func extractStack(err error) []string {
	var stacker shared.Stacker
	if stdErrors.As(err, &stacker) {
		if stack := stacker.Stack(); len(stack) > 0 {
			return stack
		}
	}
	return captureStack(4) // Callers, captureStack, extractStack, HandleAppError
}
