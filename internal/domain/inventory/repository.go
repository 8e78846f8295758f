package inventory

import (
	"context"

	"github.com/google/uuid"
)

// AdjustmentRepository defines persistence for inventory adjustments
type AdjustmentRepository interface {
	// FindByID returns ErrAdjustmentNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Adjustment, error)
	Create(ctx context.Context, a *Adjustment) error
	SaveWithLock(ctx context.Context, a *Adjustment) error
}
