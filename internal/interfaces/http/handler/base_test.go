package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/payroll/formula"
	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/erp/manufacturing/internal/infrastructure/logger"
	"github.com/erp/manufacturing/internal/interfaces/http/dto"
	"github.com/erp/manufacturing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testActor = "3d6f0a52-8c1e-4b7a-9f2d-5e4c3b2a1f00"

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// newTestEngine builds an engine with the same request-scoped middleware as
// the server
func newTestEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(logger.GinMiddleware(zap.NewNop()))
	return engine
}

type apiResult struct {
	Code int
	Body dto.Response
	Raw  string
}

// data decodes the response data into v
func (r apiResult) data(t *testing.T, v any) {
	t.Helper()
	raw, err := json.Marshal(r.Body.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func (r apiResult) errorCode() string {
	if r.Body.Error == nil {
		return ""
	}
	return r.Body.Error.Code
}

func perform(t *testing.T, engine *gin.Engine, method, path string, body any, actor string) apiResult {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(logger.RequestIDHeader, "req-handler-test")
	if actor != "" {
		req.Header.Set(logger.ActorIDHeader, actor)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	res := apiResult{Code: w.Code, Raw: w.Body.String()}
	_ = json.Unmarshal(w.Body.Bytes(), &res.Body)
	return res
}

func TestHandleError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"wrapped not found", production.ErrOrderNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"invalid state", production.ErrAlreadyClosed, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"no chain", approval.ErrNoChainConfigured, http.StatusUnprocessableEntity, dto.ErrCodeConfigurationMissing},
		{"stale step", approval.ErrStaleStep, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"duplicate pending", approval.ErrPendingRequestExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"inactive approver", approval.ErrApproverInactive, http.StatusForbidden, dto.ErrCodeForbidden},
		{
			"insufficient stock",
			fmt.Errorf("issue: %w", &strategy.InsufficientStockError{Requested: decimal.NewFromInt(10), Available: decimal.NewFromInt(4)}),
			http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock,
		},
		{
			"role mismatch",
			&approval.RoleMismatchError{Step: 1, Required: "Finance Director", Actual: "Clerk"},
			http.StatusForbidden, dto.ErrCodeRoleMismatch,
		},
		{
			"evaluation failure",
			&formula.EvaluationError{Expression: "1 +", Reason: "unexpected end"},
			http.StatusUnprocessableEntity, dto.ErrCodeEvaluationFailure,
		},
		{"bare sentinel", shared.ErrDataIntegrity, http.StatusInternalServerError, dto.ErrCodeDataIntegrity},
		{"deadline", fmt.Errorf("lock: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, dto.ErrCodeInternal},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine()
			h := &BaseHandler{}
			engine.GET("/fail", func(c *gin.Context) { h.HandleError(c, tt.err) })

			res := perform(t, engine, http.MethodGet, "/fail", nil, "")

			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Equal(t, tt.wantCode, res.errorCode())
			assert.False(t, res.Body.Success)
			assert.Equal(t, "req-handler-test", res.Body.Error.RequestID)
		})
	}
}

func TestHandleError_MessageExposure(t *testing.T) {
	engine := newTestEngine()
	h := &BaseHandler{}
	engine.GET("/stock", func(c *gin.Context) {
		h.HandleError(c, &strategy.InsufficientStockError{Requested: decimal.NewFromInt(10), Available: decimal.NewFromInt(4)})
	})
	engine.GET("/internal", func(c *gin.Context) {
		h.HandleError(c, errors.New("dial tcp 10.0.0.5:5432: secret detail"))
	})

	res := perform(t, engine, http.MethodGet, "/stock", nil, "")
	assert.Contains(t, res.Body.Error.Message, "short by 6")

	res = perform(t, engine, http.MethodGet, "/internal", nil, "")
	assert.NotContains(t, res.Raw, "secret detail")
}

func TestActor(t *testing.T) {
	engine := newTestEngine()
	h := &BaseHandler{}
	engine.GET("/me", func(c *gin.Context) {
		actor, ok := h.Actor(c)
		if !ok {
			return
		}
		h.Success(c, actor)
	})

	res := perform(t, engine, http.MethodGet, "/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, res.errorCode())

	res = perform(t, engine, http.MethodGet, "/me", nil, "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, dto.ErrCodeValidationFormat, res.errorCode())

	res = perform(t, engine, http.MethodGet, "/me", nil, testActor)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, testActor, res.Body.Data)
}

func TestQueryInt(t *testing.T) {
	engine := newTestEngine()
	engine.GET("/q", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"limit": queryInt(c, "limit", 20)})
	})

	for query, want := range map[string]float64{"": 20, "?limit=5": 5, "?limit=-1": 20, "?limit=abc": 20} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/q"+query, nil))
		var body map[string]float64
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, want, body["limit"], query)
	}
}

func TestParseUUIDParam(t *testing.T) {
	engine := newTestEngine()
	engine.GET("/items/:id", func(c *gin.Context) {
		if _, err := parseUUIDParam(c, "id"); err != nil {
			(&BaseHandler{}).InvalidID(c, "item ID")
			return
		}
		c.Status(http.StatusOK)
	})

	res := perform(t, engine, http.MethodGet, "/items/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusOK, res.Code)

	res = perform(t, engine, http.MethodGet, "/items/42", nil, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Invalid item ID", res.Body.Error.Message)
}
