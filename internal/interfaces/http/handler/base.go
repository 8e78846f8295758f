// Package handler holds the gin handlers of the manufacturing API. Handlers
// bind and validate requests, call one application service and translate
// domain errors into the standard response envelope.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/logger"
	"github.com/erp/manufacturing/internal/interfaces/http/dto"
	"github.com/erp/manufacturing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// errNoActor is returned when a request that records an actor has none
var errNoActor = errors.New("X-User-ID header is required")

// errorCategories are matched with errors.Is for typed errors that are not
// DomainError values themselves
var errorCategories = []*shared.DomainError{
	shared.ErrInsufficientStock,
	shared.ErrRoleMismatch,
	shared.ErrEvaluationFailure,
	shared.ErrNotFound,
	shared.ErrInvalidState,
	shared.ErrConcurrencyConflict,
	shared.ErrConfigurationMissing,
	shared.ErrAlreadyExists,
	shared.ErrInvalidInput,
	shared.ErrForbidden,
	shared.ErrDataIntegrity,
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID assigned by the logging middleware
func getRequestID(c *gin.Context) string {
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// getActorID extracts the acting user from the X-User-ID header
func getActorID(c *gin.Context) (uuid.UUID, error) {
	raw := logger.GetActorID(c.Request.Context())
	if raw == "" {
		raw = c.GetHeader(logger.ActorIDHeader)
	}
	if raw == "" {
		return uuid.Nil, errNoActor
	}
	return uuid.Parse(raw)
}

// parseUUIDParam reads a path parameter as a UUID
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// queryInt reads a positive integer query parameter, returning def when
// absent or malformed
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InvalidID sends a 400 for a malformed path identifier
func (h *BaseHandler) InvalidID(c *gin.Context, name string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat, "Invalid "+name)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindJSON binds and validates the request body. On failure it writes the
// 400 response and returns false.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// Actor resolves the acting user. On failure it writes the response and
// returns false.
func (h *BaseHandler) Actor(c *gin.Context) (uuid.UUID, bool) {
	actor, err := getActorID(c)
	switch {
	case errors.Is(err, errNoActor):
		h.Unauthorized(c, err.Error())
		return uuid.Nil, false
	case err != nil:
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat, "X-User-ID must be a UUID")
		return uuid.Nil, false
	}
	return actor, true
}

// HandleError converts domain errors to HTTP responses. Unknown errors are
// logged and reported as 500 without their message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	if code, ok := classify(err); ok {
		code = dto.NormalizeErrorCode(code)
		h.Error(c, dto.GetHTTPStatus(code), code, err.Error())
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		h.Error(c, http.StatusGatewayTimeout, dto.ErrCodeInternal, "Request timed out")
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

// classify returns the domain error code carried by err
func classify(err error) (string, bool) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code, true
	}
	for _, category := range errorCategories {
		if errors.Is(err, category) {
			return category.Code, true
		}
	}
	return "", false
}
