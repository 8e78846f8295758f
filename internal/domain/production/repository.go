package production

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionOrderRepository defines persistence for production orders
type ProductionOrderRepository interface {
	// FindByID returns ErrOrderNotFound when the order does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*ProductionOrder, error)

	// Create inserts a new order
	Create(ctx context.Context, order *ProductionOrder) error

	// SaveWithLock persists the order only if the stored version is order.Version-1
	SaveWithLock(ctx context.Context, order *ProductionOrder) error

	// AccrueWIP adds amount to the cached WIP cost in a single conditional update,
	// moving a draft order to in_progress and bumping the version.
	// Returns ErrOrderClosed if the order is posted or cancelled.
	AccrueWIP(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// WIPTransactionRepository defines the append-only WIP log
type WIPTransactionRepository interface {
	Create(ctx context.Context, tx *WIPTransaction) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]WIPTransaction, error)
}

// BOMRepository defines persistence for bills of materials
type BOMRepository interface {
	// FindByID returns ErrBOMNotFound when the BOM does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*BOM, error)
	Create(ctx context.Context, bom *BOM) error
}

// BackflushRecordRepository defines persistence for backflush records
type BackflushRecordRepository interface {
	CreateBatch(ctx context.Context, records []BackflushRecord) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]BackflushRecord, error)
}

// VarianceRepository defines persistence for variance analyses
type VarianceRepository interface {
	CreateBatch(ctx context.Context, rows []VarianceAnalysis) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]VarianceAnalysis, error)
}
