package trade

import (
	"context"

	"github.com/google/uuid"
)

// PurchaseOrderRepository defines persistence for purchase orders
type PurchaseOrderRepository interface {
	// FindByID returns ErrPurchaseOrderNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	// Create returns shared.ErrAlreadyExists on a duplicate order number
	Create(ctx context.Context, o *PurchaseOrder) error
	// SaveWithLock updates header state using the version for optimistic locking
	SaveWithLock(ctx context.Context, o *PurchaseOrder) error
}
