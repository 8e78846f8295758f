package approval

import (
	"context"

	"github.com/google/uuid"
)

// ChainRepository defines persistence for approval chains
type ChainRepository interface {
	// FindAll returns every chain with its steps, active or not
	FindAll(ctx context.Context) ([]ApprovalChain, error)

	// Create inserts a chain and its steps
	Create(ctx context.Context, chain *ApprovalChain) error
}

// RequestRepository defines persistence for approval requests
type RequestRepository interface {
	// FindByID loads a request with its entries; ErrRequestNotFound if absent
	FindByID(ctx context.Context, id uuid.UUID) (*ApprovalRequest, error)

	// FindPendingByDocument returns the pending request of a document, or ErrRequestNotFound
	FindPendingByDocument(ctx context.Context, docType DocumentType, documentID uuid.UUID) (*ApprovalRequest, error)

	// FindPending lists pending requests, oldest first
	FindPending(ctx context.Context, limit int) ([]ApprovalRequest, error)

	// Create inserts a new request
	Create(ctx context.Context, request *ApprovalRequest) error

	// SaveWithLock updates the request if the stored version is request.Version-1
	// and appends entries not yet stored. Returns shared.ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, request *ApprovalRequest) error
}

// ApproverDirectory resolves users that can act on approval steps
type ApproverDirectory interface {
	// FindByID returns ErrApproverNotFound when the user is unknown
	FindByID(ctx context.Context, id uuid.UUID) (*Approver, error)

	// FindActiveByRole lists active users whose role equals role exactly
	FindActiveByRole(ctx context.Context, role string) ([]Approver, error)
}
