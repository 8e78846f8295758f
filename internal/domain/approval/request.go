package approval

import (
	"fmt"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
)

// RequestStatus is the state of an approval request
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// IsTerminal reports whether no further transition is possible
func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Decision is the verdict recorded in an approval entry
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// RejectPolicy decides who may reject a pending request
type RejectPolicy string

const (
	// RejectPolicyCurrentStepRole requires the role of the current step, like approve
	RejectPolicyCurrentStepRole RejectPolicy = "current_step_role"
	// RejectPolicyAnyChainRole accepts any role that appears anywhere in the chain
	RejectPolicyAnyChainRole RejectPolicy = "any_chain_role"
)

// ParseRejectPolicy validates a reject policy name; empty means current_step_role
func ParseRejectPolicy(s string) (RejectPolicy, error) {
	switch RejectPolicy(s) {
	case "", RejectPolicyCurrentStepRole:
		return RejectPolicyCurrentStepRole, nil
	case RejectPolicyAnyChainRole:
		return RejectPolicyAnyChainRole, nil
	}
	return "", fmt.Errorf("%w: unknown reject policy %q", shared.ErrInvalidInput, s)
}

// Approver is a user who can act on approval steps
type Approver struct {
	ID     uuid.UUID
	Name   string
	Email  string
	Role   string
	Active bool
}

// ApprovalEntry is one append-only line of the approval log
type ApprovalEntry struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	Step         int
	ApproverID   uuid.UUID
	ApproverName string
	Role         string
	Decision     Decision
	Notes        string
	CreatedAt    time.Time
}

// ApprovalRequest tracks one document through its approval chain.
// While pending, len(Entries) == CurrentStep. On final approval CurrentStep stays
// on the last index and the last entry is an approval.
type ApprovalRequest struct {
	shared.BaseAggregateRoot
	DocumentType DocumentType
	DocumentID   uuid.UUID
	ChainID      uuid.UUID
	CurrentStep  int
	Status       RequestStatus
	RequestedBy  uuid.UUID
	CompletedAt  *time.Time
	Entries      []ApprovalEntry
}

// NewApprovalRequest starts a pending request at step 0 of chain
func NewApprovalRequest(chain *ApprovalChain, documentID, requestedBy uuid.UUID) (*ApprovalRequest, error) {
	if chain == nil {
		return nil, ErrNoChainConfigured
	}
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("%w: document ID cannot be empty", shared.ErrInvalidInput)
	}
	if err := chain.Validate(); err != nil {
		return nil, err
	}

	r := &ApprovalRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DocumentType:      chain.DocumentType,
		DocumentID:        documentID,
		ChainID:           chain.ID,
		CurrentStep:       0,
		Status:            StatusPending,
		RequestedBy:       requestedBy,
		Entries:           make([]ApprovalEntry, 0, len(chain.Steps)),
	}
	r.AddDomainEvent(NewRequestedEvent(r, chain.Steps[0].Role))
	return r, nil
}

// ApproveOutcome describes what an approval did
type ApproveOutcome struct {
	Status      RequestStatus
	CurrentStep int
	// NextRole is the role to notify when the request advanced; empty when completed
	NextRole string
	Entry    ApprovalEntry
}

// Completed reports whether the approval finished the chain
func (o ApproveOutcome) Completed() bool {
	return o.Status == StatusApproved
}

// Approve records an approval at the current step. On error nothing changes.
func (r *ApprovalRequest) Approve(chain *ApprovalChain, approver Approver, notes string, now time.Time) (ApproveOutcome, error) {
	required, err := r.checkActor(chain, approver)
	if err != nil {
		return ApproveOutcome{}, err
	}
	if approver.Role != required {
		return ApproveOutcome{}, &RoleMismatchError{Step: r.CurrentStep, Required: required, Actual: approver.Role}
	}

	entry := r.newEntry(approver, DecisionApproved, notes, now)
	r.Entries = append(r.Entries, entry)

	out := ApproveOutcome{Entry: entry}
	if r.CurrentStep >= chain.LastStep() {
		r.Status = StatusApproved
		r.CompletedAt = &now
		r.AddDomainEvent(NewApprovedEvent(r, approver.ID))
	} else {
		r.CurrentStep++
		out.NextRole = chain.Steps[r.CurrentStep].Role
		r.AddDomainEvent(NewStepAdvancedEvent(r, approver.ID, out.NextRole))
	}
	r.UpdatedAt = now
	r.IncrementVersion()

	out.Status = r.Status
	out.CurrentStep = r.CurrentStep
	return out, nil
}

// Reject ends the request as rejected. Who may reject is decided by policy.
// On error nothing changes.
func (r *ApprovalRequest) Reject(chain *ApprovalChain, approver Approver, notes string, policy RejectPolicy, now time.Time) (ApprovalEntry, error) {
	required, err := r.checkActor(chain, approver)
	if err != nil {
		return ApprovalEntry{}, err
	}

	switch policy {
	case RejectPolicyAnyChainRole:
		if !chain.HasRole(approver.Role) {
			return ApprovalEntry{}, &RoleMismatchError{Step: r.CurrentStep, Required: required, Actual: approver.Role}
		}
	default:
		if approver.Role != required {
			return ApprovalEntry{}, &RoleMismatchError{Step: r.CurrentStep, Required: required, Actual: approver.Role}
		}
	}

	entry := r.newEntry(approver, DecisionRejected, notes, now)
	r.Entries = append(r.Entries, entry)
	r.Status = StatusRejected
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(NewRejectedEvent(r, approver.ID, notes))
	return entry, nil
}

func (r *ApprovalRequest) checkActor(chain *ApprovalChain, approver Approver) (string, error) {
	if r.Status != StatusPending {
		return "", fmt.Errorf("%w: request %s is %s", ErrNotPending, r.ID, r.Status)
	}
	if chain == nil || chain.ID != r.ChainID {
		return "", fmt.Errorf("%w: chain %s of request %s is not available", ErrNoChainConfigured, r.ChainID, r.ID)
	}
	if !approver.Active {
		return "", fmt.Errorf("%w: %s", ErrApproverInactive, approver.ID)
	}
	return chain.RoleAt(r.CurrentStep)
}

func (r *ApprovalRequest) newEntry(approver Approver, decision Decision, notes string, now time.Time) ApprovalEntry {
	return ApprovalEntry{
		ID:           uuid.New(),
		RequestID:    r.ID,
		Step:         r.CurrentStep,
		ApproverID:   approver.ID,
		ApproverName: approver.Name,
		Role:         approver.Role,
		Decision:     decision,
		Notes:        notes,
		CreatedAt:    now,
	}
}

// CheckInvariant verifies the request against its chain
func (r *ApprovalRequest) CheckInvariant(chain *ApprovalChain) error {
	for i, e := range r.Entries {
		if e.Step != i {
			return fmt.Errorf("%w: entry %d recorded for step %d", shared.ErrDataIntegrity, i, e.Step)
		}
		if i < len(r.Entries)-1 && e.Decision != DecisionApproved {
			return fmt.Errorf("%w: entry %d is %s but is not the last entry", shared.ErrDataIntegrity, i, e.Decision)
		}
	}

	switch r.Status {
	case StatusPending:
		if len(r.Entries) != r.CurrentStep {
			return fmt.Errorf("%w: %d entries at step %d", shared.ErrDataIntegrity, len(r.Entries), r.CurrentStep)
		}
	case StatusApproved:
		if r.CurrentStep != chain.LastStep() || len(r.Entries) != len(chain.Steps) {
			return fmt.Errorf("%w: approved at step %d of %d", shared.ErrDataIntegrity, r.CurrentStep, len(chain.Steps))
		}
		if r.Entries[len(r.Entries)-1].Decision != DecisionApproved {
			return fmt.Errorf("%w: approved request ends with a rejection", shared.ErrDataIntegrity)
		}
	case StatusRejected:
		if len(r.Entries) != r.CurrentStep+1 || r.Entries[len(r.Entries)-1].Decision != DecisionRejected {
			return fmt.Errorf("%w: rejected request does not end with a rejection", shared.ErrDataIntegrity)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", shared.ErrDataIntegrity, r.Status)
	}
	return nil
}
