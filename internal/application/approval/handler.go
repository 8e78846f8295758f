package approval

import (
	"context"
	"time"

	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentHandler applies approval outcomes to the document a request gates.
// Every method runs inside the same transaction as the request write.
type DocumentHandler interface {
	DocumentType() approval.DocumentType
	// Submit moves the document into its pending-approval state
	Submit(ctx context.Context, repos appshared.Repositories, documentID uuid.UUID) error
	// Finalize runs when the last step approves
	Finalize(ctx context.Context, repos appshared.Repositories, documentID uuid.UUID, now time.Time) ([]shared.DomainEvent, error)
	// Cancel runs when the request is rejected
	Cancel(ctx context.Context, repos appshared.Repositories, documentID uuid.UUID) error
}
