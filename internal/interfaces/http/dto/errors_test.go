package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{shared.ErrNotFound, ErrCodeNotFound, http.StatusNotFound},
		{shared.ErrAlreadyExists, ErrCodeAlreadyExists, http.StatusConflict},
		{shared.ErrConcurrencyConflict, ErrCodeConcurrencyConflict, http.StatusConflict},
		{shared.ErrInvalidInput, ErrCodeInvalidInput, http.StatusBadRequest},
		{shared.ErrForbidden, ErrCodeForbidden, http.StatusForbidden},
		{shared.ErrRoleMismatch, ErrCodeRoleMismatch, http.StatusForbidden},
		{shared.ErrInvalidState, ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{shared.ErrInsufficientStock, ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.ErrConfigurationMissing, ErrCodeConfigurationMissing, http.StatusUnprocessableEntity},
		{shared.ErrEvaluationFailure, ErrCodeEvaluationFailure, http.StatusUnprocessableEntity},
		{shared.ErrDataIntegrity, ErrCodeDataIntegrity, http.StatusInternalServerError},
		{shared.NewDomainError("INVALID_BOM", "no components"), ErrCodeInvalidInput, http.StatusBadRequest},
		{shared.NewDomainError("EMPTY_ORDER", "no lines"), ErrCodeBusinessRule, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		code := NormalizeErrorCode(shared.CodeOf(tt.err))
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, GetHTTPStatus(code))
		})
	}
}

func TestNormalizeErrorCode_PassThrough(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode(ErrCodeValidation))
	assert.Equal(t, "CUSTOM_ERROR", NormalizeErrorCode("CUSTOM_ERROR"))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("CUSTOM_ERROR"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, GetHTTPStatus(ErrCodeRequestTooLarge))
}

func TestEveryDomainCodeHasStatus(t *testing.T) {
	for domainCode, apiCode := range apiCodeByDomainCode {
		_, ok := statusByCode[apiCode]
		assert.True(t, ok, "%s maps to %s which has no HTTP status", domainCode, apiCode)
	}
}

func TestErrorResponseJSON(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponseWithRequestID("INSUFFICIENT_STOCK", "only 3 on hand", "req-41")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.False(t, decoded.Success)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeInsufficientStock, decoded.Error.Code)
	assert.Equal(t, "req-41", decoded.Error.RequestID)
	assert.False(t, decoded.Error.Timestamp.Before(before.Truncate(time.Second)))
	assert.NotContains(t, string(data), `"details"`)
	assert.NotContains(t, string(data), `"data"`)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Validation failed", "req-7", []ValidationDetail{
		{Field: "quantity", Message: "Must be greater than 0"},
		{Field: "product_id", Message: "Invalid UUID format"},
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "quantity", resp.Error.Details[0].Field)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		pages    int
		size     int
	}{
		{100, 10, 10, 10},
		{101, 10, 11, 10},
		{0, 10, 0, 10},
		{9, 10, 1, 10},
		{100, 0, 5, 20},
		{100, -1, 5, 20},
	}
	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta([]int{}, tt.total, 1, tt.pageSize)
		assert.True(t, resp.Success)
		assert.Equal(t, tt.pages, resp.Meta.TotalPages, "total %d size %d", tt.total, tt.pageSize)
		assert.Equal(t, tt.size, resp.Meta.PageSize)
	}
}
