package approval

import (
	"time"

	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/google/uuid"
)

// CreateRequestCommand starts approval of a document
type CreateRequestCommand struct {
	DocumentType string
	DocumentID   uuid.UUID
	RequestedBy  uuid.UUID
}

// ApproveCommand approves the current step. ExpectedStep, when set, must equal
// the request's current step or the call fails with a conflict.
type ApproveCommand struct {
	RequestID    uuid.UUID
	ApproverID   uuid.UUID
	Notes        string
	ExpectedStep *int
}

// RejectCommand rejects a pending request
type RejectCommand struct {
	RequestID  uuid.UUID
	ApproverID uuid.UUID
	Notes      string
}

// EntryResponse is one line of the approval log
type EntryResponse struct {
	Step         int       `json:"step"`
	ApproverID   uuid.UUID `json:"approver_id"`
	ApproverName string    `json:"approver_name"`
	Role         string    `json:"role"`
	Decision     string    `json:"decision"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// StepResponse is one step of the chain
type StepResponse struct {
	Order    int    `json:"order"`
	Role     string `json:"role"`
	Required bool   `json:"required"`
}

// RequestResponse is the API view of an approval request
type RequestResponse struct {
	ID           uuid.UUID       `json:"id"`
	DocumentType string          `json:"document_type"`
	DocumentID   uuid.UUID       `json:"document_id"`
	ChainID      uuid.UUID       `json:"chain_id"`
	Status       string          `json:"status"`
	CurrentStep  int             `json:"current_step"`
	CurrentRole  string          `json:"current_role,omitempty"`
	RequestedBy  uuid.UUID       `json:"requested_by"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	Version      int             `json:"version"`
	Steps        []StepResponse  `json:"steps"`
	Entries      []EntryResponse `json:"entries"`
}

// ToRequestResponse converts a request and its chain
func ToRequestResponse(r *approval.ApprovalRequest, chain *approval.ApprovalChain) *RequestResponse {
	resp := &RequestResponse{
		ID:           r.ID,
		DocumentType: string(r.DocumentType),
		DocumentID:   r.DocumentID,
		ChainID:      r.ChainID,
		Status:       string(r.Status),
		CurrentStep:  r.CurrentStep,
		RequestedBy:  r.RequestedBy,
		CreatedAt:    r.CreatedAt,
		CompletedAt:  r.CompletedAt,
		Version:      r.GetVersion(),
		Steps:        []StepResponse{},
		Entries:      make([]EntryResponse, 0, len(r.Entries)),
	}
	if chain != nil {
		for _, s := range chain.Steps {
			resp.Steps = append(resp.Steps, StepResponse{Order: s.Order, Role: s.Role, Required: s.Required})
		}
		if r.Status == approval.StatusPending {
			if role, err := chain.RoleAt(r.CurrentStep); err == nil {
				resp.CurrentRole = role
			}
		}
	}
	for _, e := range r.Entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			Step:         e.Step,
			ApproverID:   e.ApproverID,
			ApproverName: e.ApproverName,
			Role:         e.Role,
			Decision:     string(e.Decision),
			Notes:        e.Notes,
			CreatedAt:    e.CreatedAt,
		})
	}
	return resp
}
