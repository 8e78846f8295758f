package handler

import (
	"context"
	"net/http"
	"testing"

	appapproval "github.com/erp/manufacturing/internal/application/approval"
	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubApprovalService struct {
	create  func(appapproval.CreateRequestCommand) (*appapproval.RequestResponse, error)
	approve func(appapproval.ApproveCommand) (*appapproval.RequestResponse, error)
	reject  func(appapproval.RejectCommand) (*appapproval.RequestResponse, error)
	get     func(uuid.UUID) (*appapproval.RequestResponse, error)
	pending func(role string, limit int) ([]appapproval.RequestResponse, error)
}

func (s *stubApprovalService) CreateRequest(_ context.Context, cmd appapproval.CreateRequestCommand) (*appapproval.RequestResponse, error) {
	return s.create(cmd)
}

func (s *stubApprovalService) Approve(_ context.Context, cmd appapproval.ApproveCommand) (*appapproval.RequestResponse, error) {
	return s.approve(cmd)
}

func (s *stubApprovalService) Reject(_ context.Context, cmd appapproval.RejectCommand) (*appapproval.RequestResponse, error) {
	return s.reject(cmd)
}

func (s *stubApprovalService) Get(_ context.Context, id uuid.UUID) (*appapproval.RequestResponse, error) {
	return s.get(id)
}

func (s *stubApprovalService) ListPendingForRole(_ context.Context, role string, limit int) ([]appapproval.RequestResponse, error) {
	return s.pending(role, limit)
}

func approvalEngine(svc ApprovalService) *gin.Engine {
	h := NewApprovalHandler(svc)
	engine := newTestEngine()
	engine.POST("/approvals", h.Create)
	engine.GET("/approvals/pending", h.ListPending)
	engine.GET("/approvals/:id", h.Get)
	engine.POST("/approvals/:id/approve", h.Approve)
	engine.POST("/approvals/:id/reject", h.Reject)
	return engine
}

func TestApprovalHandler_Create(t *testing.T) {
	documentID := uuid.New()
	var got appapproval.CreateRequestCommand
	svc := &stubApprovalService{
		create: func(cmd appapproval.CreateRequestCommand) (*appapproval.RequestResponse, error) {
			got = cmd
			return &appapproval.RequestResponse{ID: uuid.New(), DocumentType: cmd.DocumentType, Status: "pending"}, nil
		},
	}
	engine := approvalEngine(svc)
	body := map[string]any{"document_type": "purchase_order", "document_id": documentID}

	res := perform(t, engine, http.MethodPost, "/approvals", body, testActor)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	assert.Equal(t, documentID, got.DocumentID)
	assert.Equal(t, testActor, got.RequestedBy.String())

	res = perform(t, engine, http.MethodPost, "/approvals", body, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = perform(t, engine, http.MethodPost, "/approvals", map[string]any{
		"document_type": "sales_order", "document_id": documentID,
	}, testActor)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestApprovalHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no chain", approval.ErrNoChainConfigured, http.StatusUnprocessableEntity, dto.ErrCodeConfigurationMissing},
		{"already pending", approval.ErrPendingRequestExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubApprovalService{
				create: func(appapproval.CreateRequestCommand) (*appapproval.RequestResponse, error) {
					return nil, tt.err
				},
			}
			res := perform(t, approvalEngine(svc), http.MethodPost, "/approvals", map[string]any{
				"document_type": "payroll", "document_id": uuid.New(),
			}, testActor)
			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Equal(t, tt.wantCode, res.errorCode())
		})
	}
}

func TestApprovalHandler_Approve(t *testing.T) {
	requestID := uuid.New()
	var got appapproval.ApproveCommand
	svc := &stubApprovalService{
		approve: func(cmd appapproval.ApproveCommand) (*appapproval.RequestResponse, error) {
			got = cmd
			if cmd.ExpectedStep != nil && *cmd.ExpectedStep != 1 {
				return nil, approval.ErrStaleStep
			}
			return &appapproval.RequestResponse{ID: cmd.RequestID, Status: "pending", CurrentStep: 2}, nil
		},
	}
	engine := approvalEngine(svc)
	path := "/approvals/" + requestID.String() + "/approve"

	res := perform(t, engine, http.MethodPost, path, nil, testActor)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, requestID, got.RequestID)
	assert.Empty(t, got.Notes)
	assert.Nil(t, got.ExpectedStep)

	res = perform(t, engine, http.MethodPost, path, map[string]any{"notes": "ok", "expected_step": 1}, testActor)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, "ok", got.Notes)
	require.NotNil(t, got.ExpectedStep)

	res = perform(t, engine, http.MethodPost, path, map[string]any{"expected_step": 0}, testActor)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, dto.ErrCodeConcurrencyConflict, res.errorCode())

	res = perform(t, engine, http.MethodPost, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestApprovalHandler_Approve_RoleMismatch(t *testing.T) {
	svc := &stubApprovalService{
		approve: func(appapproval.ApproveCommand) (*appapproval.RequestResponse, error) {
			return nil, &approval.RoleMismatchError{Step: 2, Required: "Finance Director", Actual: "Manager"}
		},
	}

	res := perform(t, approvalEngine(svc), http.MethodPost, "/approvals/"+uuid.NewString()+"/approve", nil, testActor)

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, dto.ErrCodeRoleMismatch, res.errorCode())
	assert.Contains(t, res.Body.Error.Message, "Finance Director")
}

func TestApprovalHandler_Reject(t *testing.T) {
	var got appapproval.RejectCommand
	svc := &stubApprovalService{
		reject: func(cmd appapproval.RejectCommand) (*appapproval.RequestResponse, error) {
			got = cmd
			if cmd.Notes == "again" {
				return nil, approval.ErrNotPending
			}
			return &appapproval.RequestResponse{ID: cmd.RequestID, Status: "rejected"}, nil
		},
	}
	engine := approvalEngine(svc)
	path := "/approvals/" + uuid.NewString() + "/reject"

	res := perform(t, engine, http.MethodPost, path, map[string]any{"notes": "price too high"}, testActor)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, "price too high", got.Notes)
	var resp appapproval.RequestResponse
	res.data(t, &resp)
	assert.Equal(t, "rejected", resp.Status)

	res = perform(t, engine, http.MethodPost, path, map[string]any{"notes": "again"}, testActor)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, res.errorCode())

	res = perform(t, engine, http.MethodPost, path, "{", testActor)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, res.errorCode())
}

func TestApprovalHandler_GetAndPending(t *testing.T) {
	requestID := uuid.New()
	var gotRole string
	var gotLimit int
	svc := &stubApprovalService{
		get: func(id uuid.UUID) (*appapproval.RequestResponse, error) {
			if id != requestID {
				return nil, approval.ErrRequestNotFound
			}
			return &appapproval.RequestResponse{ID: id}, nil
		},
		pending: func(role string, limit int) ([]appapproval.RequestResponse, error) {
			gotRole, gotLimit = role, limit
			return []appapproval.RequestResponse{{ID: requestID, CurrentRole: role}}, nil
		},
	}
	engine := approvalEngine(svc)

	assert.Equal(t, http.StatusOK, perform(t, engine, http.MethodGet, "/approvals/"+requestID.String(), nil, "").Code)
	assert.Equal(t, http.StatusNotFound, perform(t, engine, http.MethodGet, "/approvals/"+uuid.NewString(), nil, "").Code)

	res := perform(t, engine, http.MethodGet, "/approvals/pending?role=Manager&limit=5", nil, "")
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, "Manager", gotRole)
	assert.Equal(t, 5, gotLimit)

	res = perform(t, engine, http.MethodGet, "/approvals/pending", nil, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}
