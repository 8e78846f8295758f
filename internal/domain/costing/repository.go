package costing

import (
	"context"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
)

// CostingRecordRepository defines persistence for costing records
type CostingRecordRepository interface {
	// FindByProductAndWarehouse loads a record with its layers; shared.ErrNotFound if absent
	FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*CostingRecord, error)

	// Create inserts a new record; shared.ErrAlreadyExists if the pair already has one
	Create(ctx context.Context, record *CostingRecord) error

	// SaveWithLock persists the record only if the stored version is record.Version-1.
	// Returns shared.ErrConcurrencyConflict when another writer got there first.
	SaveWithLock(ctx context.Context, record *CostingRecord) error
}

// CostingTransactionRepository defines persistence for the append-only costing log
type CostingTransactionRepository interface {
	// Create appends a transaction
	Create(ctx context.Context, tx *CostingTransaction) error

	// FindByProductAndWarehouse lists transactions newest first
	FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID, filter shared.Filter) ([]CostingTransaction, int64, error)
}
