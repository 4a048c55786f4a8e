package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

type requestIDKey struct{}

// legacyRequestIDKey 兼容直接用字符串 key 写入 request_id 的调用方
const legacyRequestIDKey = "request_id"

// TxFromContext returns the transaction opened by the unit of work, or nil.
func TxFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// ContextWithTx attaches a transaction so repositories join it.
func ContextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// DB returns the transaction from ctx when present, otherwise db bound to ctx.
func DB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := TxFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	//nolint:staticcheck // string key kept for callers outside this module
	if id, ok := ctx.Value(legacyRequestIDKey).(string); ok {
		return id
	}
	return ""
}
