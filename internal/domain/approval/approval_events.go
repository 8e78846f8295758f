package approval

import (
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeApprovalRequest = "ApprovalRequest"

// Event type constants
const (
	EventTypeRequested    = "approval.requested"
	EventTypeStepAdvanced = "approval.step_advanced"
	EventTypeApproved     = "approval.approved"
	EventTypeRejected     = "approval.rejected"
)

// RequestedEvent is raised when a document enters its approval chain
type RequestedEvent struct {
	shared.BaseDomainEvent
	DocumentType DocumentType `json:"document_type"`
	DocumentID   uuid.UUID    `json:"document_id"`
	RequestedBy  uuid.UUID    `json:"requested_by"`
	NextRole     string       `json:"next_role"`
}

// NewRequestedEvent creates a RequestedEvent
func NewRequestedEvent(r *ApprovalRequest, firstRole string) *RequestedEvent {
	return &RequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRequested, AggregateTypeApprovalRequest, r.ID),
		DocumentType:    r.DocumentType,
		DocumentID:      r.DocumentID,
		RequestedBy:     r.RequestedBy,
		NextRole:        firstRole,
	}
}

// StepAdvancedEvent is raised when an approval moves the request to the next step
type StepAdvancedEvent struct {
	shared.BaseDomainEvent
	DocumentType DocumentType `json:"document_type"`
	DocumentID   uuid.UUID    `json:"document_id"`
	ApproverID   uuid.UUID    `json:"approver_id"`
	CurrentStep  int          `json:"current_step"`
	NextRole     string       `json:"next_role"`
}

// NewStepAdvancedEvent creates a StepAdvancedEvent
func NewStepAdvancedEvent(r *ApprovalRequest, approverID uuid.UUID, nextRole string) *StepAdvancedEvent {
	return &StepAdvancedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStepAdvanced, AggregateTypeApprovalRequest, r.ID),
		DocumentType:    r.DocumentType,
		DocumentID:      r.DocumentID,
		ApproverID:      approverID,
		CurrentStep:     r.CurrentStep,
		NextRole:        nextRole,
	}
}

// ApprovedEvent is raised when the final step is approved
type ApprovedEvent struct {
	shared.BaseDomainEvent
	DocumentType DocumentType `json:"document_type"`
	DocumentID   uuid.UUID    `json:"document_id"`
	ApproverID   uuid.UUID    `json:"approver_id"`
}

// NewApprovedEvent creates an ApprovedEvent
func NewApprovedEvent(r *ApprovalRequest, approverID uuid.UUID) *ApprovedEvent {
	return &ApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApproved, AggregateTypeApprovalRequest, r.ID),
		DocumentType:    r.DocumentType,
		DocumentID:      r.DocumentID,
		ApproverID:      approverID,
	}
}

// RejectedEvent is raised when a request is rejected
type RejectedEvent struct {
	shared.BaseDomainEvent
	DocumentType DocumentType `json:"document_type"`
	DocumentID   uuid.UUID    `json:"document_id"`
	ApproverID   uuid.UUID    `json:"approver_id"`
	Step         int          `json:"step"`
	Notes        string       `json:"notes,omitempty"`
}

// NewRejectedEvent creates a RejectedEvent
func NewRejectedEvent(r *ApprovalRequest, approverID uuid.UUID, notes string) *RejectedEvent {
	return &RejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRejected, AggregateTypeApprovalRequest, r.ID),
		DocumentType:    r.DocumentType,
		DocumentID:      r.DocumentID,
		ApproverID:      approverID,
		Step:            r.CurrentStep,
		Notes:           notes,
	}
}
