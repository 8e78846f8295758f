package handler

import (
	"context"

	appapproval "github.com/erp/manufacturing/internal/application/approval"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ApprovalService is the approval state machine as seen by the HTTP layer
type ApprovalService interface {
	CreateRequest(ctx context.Context, cmd appapproval.CreateRequestCommand) (*appapproval.RequestResponse, error)
	Approve(ctx context.Context, cmd appapproval.ApproveCommand) (*appapproval.RequestResponse, error)
	Reject(ctx context.Context, cmd appapproval.RejectCommand) (*appapproval.RequestResponse, error)
	Get(ctx context.Context, requestID uuid.UUID) (*appapproval.RequestResponse, error)
	ListPendingForRole(ctx context.Context, role string, limit int) ([]appapproval.RequestResponse, error)
}

// ApprovalHandler handles approval workflow endpoints
type ApprovalHandler struct {
	BaseHandler
	approvalService ApprovalService
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(approvalService ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// CreateApprovalRequest starts approval of a document
type CreateApprovalRequest struct {
	DocumentType string    `json:"document_type" binding:"required,oneof=purchase_order payroll inventory_adjustment" example:"purchase_order"`
	DocumentID   uuid.UUID `json:"document_id" binding:"required"`
}

// DecisionRequest carries an approver's notes. ExpectedStep guards against
// deciding on a step that has already moved on.
type DecisionRequest struct {
	Notes        string `json:"notes" binding:"max=1000"`
	ExpectedStep *int   `json:"expected_step" binding:"omitempty,gte=0"`
}

// Create starts approval of a document on behalf of the acting user
// POST /approvals
func (h *ApprovalHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req CreateApprovalRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.approvalService.CreateRequest(c.Request.Context(), appapproval.CreateRequestCommand{
		DocumentType: req.DocumentType,
		DocumentID:   req.DocumentID,
		RequestedBy:  actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns an approval request with its chain and log
// GET /approvals/:id
func (h *ApprovalHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.InvalidID(c, "approval request ID")
		return
	}
	resp, err := h.approvalService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve records the acting user's approval of the current step
// POST /approvals/:id/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	id, actor, req, ok := h.decision(c)
	if !ok {
		return
	}
	resp, err := h.approvalService.Approve(c.Request.Context(), appapproval.ApproveCommand{
		RequestID:    id,
		ApproverID:   actor,
		Notes:        req.Notes,
		ExpectedStep: req.ExpectedStep,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reject records the acting user's rejection
// POST /approvals/:id/reject
func (h *ApprovalHandler) Reject(c *gin.Context) {
	id, actor, req, ok := h.decision(c)
	if !ok {
		return
	}
	resp, err := h.approvalService.Reject(c.Request.Context(), appapproval.RejectCommand{
		RequestID:  id,
		ApproverID: actor,
		Notes:      req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListPending lists pending requests waiting on a role
// GET /approvals/pending?role=&limit=
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	role := c.Query("role")
	if role == "" {
		h.BadRequest(c, "role query parameter is required")
		return
	}
	resp, err := h.approvalService.ListPendingForRole(c.Request.Context(), role, queryInt(c, "limit", 20))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *ApprovalHandler) decision(c *gin.Context) (uuid.UUID, uuid.UUID, DecisionRequest, bool) {
	var req DecisionRequest
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.InvalidID(c, "approval request ID")
		return uuid.Nil, uuid.Nil, req, false
	}
	actor, ok := h.Actor(c)
	if !ok {
		return uuid.Nil, uuid.Nil, req, false
	}
	// an empty body is a decision without notes
	if c.Request.ContentLength != 0 {
		if !h.BindJSON(c, &req) {
			return uuid.Nil, uuid.Nil, req, false
		}
	}
	return id, actor, req, true
}
