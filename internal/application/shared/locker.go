package shared

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Locker serializes work on a key. Release must be called exactly once.
// Implementations: an in-process keyed mutex and a Redis lock for multi-instance deployments.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// CostingKey is the lock key of one costing record
func CostingKey(productID, warehouseID uuid.UUID) string {
	return fmt.Sprintf("costing:%s:%s", productID, warehouseID)
}

// ProductionOrderKey is the lock key of one production order
func ProductionOrderKey(orderID uuid.UUID) string {
	return "production_order:" + orderID.String()
}

// ApprovalRequestKey is the lock key of one approval request
func ApprovalRequestKey(requestID uuid.UUID) string {
	return "approval_request:" + requestID.String()
}

// ApprovalDocumentKey is the lock key used while creating a request for a document
func ApprovalDocumentKey(docType string, docID uuid.UUID) string {
	return fmt.Sprintf("approval_document:%s:%s", docType, docID)
}

// WithLock runs fn while holding key
func WithLock(ctx context.Context, locker Locker, key string, fn func(ctx context.Context) error) error {
	if locker == nil {
		return fn(ctx)
	}
	release, err := locker.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}
