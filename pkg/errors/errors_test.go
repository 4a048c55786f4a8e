package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"sales-service/domain/sale"
	"sales-service/domain/shared"

	"github.com/stretchr/testify/assert"
)

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   ErrorCode
		status int
	}{
		{"invalid quantity", sale.NewInvalidQuantityError(0), CodeValidation, http.StatusBadRequest},
		{"negative price", sale.NewInvalidUnitPriceError("Mouse"), CodeValidation, http.StatusBadRequest},
		{"quantity limit", sale.NewQuantityLimitExceededError("Mouse", 21), CodeQuantityLimit, http.StatusUnprocessableEntity},
		{"already cancelled", sale.NewAlreadyCancelledError("SALE-001"), CodeSaleAlreadyCancelled, http.StatusUnprocessableEntity},
		{"generic business rule", shared.NewBusinessRuleError("sale", "nope"), CodeBusinessRule, http.StatusUnprocessableEntity},
		{"sale not found", sale.NewSaleNotFoundError(7), CodeSaleNotFound, http.StatusNotFound},
		{"item not found", sale.NewItemNotFoundError(9), CodeSaleItemNotFound, http.StatusNotFound},
		{"concurrent modification", sale.NewConcurrentModificationError(7), CodeConcurrentModify, http.StatusConflict},
		{"publish failed", fmt.Errorf("%w: sale.created: %w", shared.ErrPublishFailed, stdErrors.New("broker down")), CodeEventPublishFailed, http.StatusBadGateway},
		{"wrapped not found", fmt.Errorf("load: %w", sale.NewSaleNotFoundError(1)), CodeSaleNotFound, http.StatusNotFound},
		{"unknown", stdErrors.New("disk on fire"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomainError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, appErr.HTTPStatusCode())
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestFromDomainError_HidesInternalMessage(t *testing.T) {
	appErr := FromDomainError(stdErrors.New("dial tcp 10.0.0.1:3306: connection refused"))
	assert.Equal(t, "internal server error", appErr.Message)
}

func TestFromDomainError_KeepsDomainMessage(t *testing.T) {
	appErr := FromDomainError(sale.NewQuantityLimitExceededError("Mouse", 21))
	assert.Contains(t, appErr.Message, "Mouse")
	assert.Contains(t, appErr.Message, "21")
}

func TestFromDomainError_PassesAppErrorThrough(t *testing.T) {
	original := Validation("bad page")
	assert.Same(t, original, FromDomainError(fmt.Errorf("ctx: %w", original)))
	assert.Nil(t, FromDomainError(nil))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(CodeSaleNotFound, "missing"))
	assert.True(t, Is(err, CodeSaleNotFound))
	assert.False(t, Is(err, CodeInternal))
	assert.False(t, Is(stdErrors.New("plain"), CodeInternal))
}
