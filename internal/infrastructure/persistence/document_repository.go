package persistence

import (
	"context"

	"github.com/erp/manufacturing/internal/domain/inventory"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/trade"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by its ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateFindError(err, trade.ErrPurchaseOrderNotFound)
	}
	return model.ToDomain(), nil
}

// Create inserts an order and its lines
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, o *trade.PurchaseOrder) error {
	if err := r.db.WithContext(ctx).Create(models.PurchaseOrderModelFromDomain(o)).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

// SaveWithLock saves the header with optimistic locking (checks version).
// Lines are immutable once the order leaves draft.
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, o *trade.PurchaseOrder) error {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version-1).
		Updates(map[string]interface{}{
			"state":        o.State,
			"total_amount": o.TotalAmount,
			"remark":       o.Remark,
			"approved_at":  o.ApprovedAt,
			"received_at":  o.ReceivedAt,
			"version":      o.Version,
			"updated_at":   o.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)

// GormAdjustmentRepository implements AdjustmentRepository using GORM
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

// FindByID finds an adjustment by its ID
func (r *GormAdjustmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Adjustment, error) {
	var model models.InventoryAdjustmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateFindError(err, inventory.ErrAdjustmentNotFound)
	}
	return model.ToDomain(), nil
}

// Create inserts an adjustment
func (r *GormAdjustmentRepository) Create(ctx context.Context, a *inventory.Adjustment) error {
	if err := r.db.WithContext(ctx).Create(models.InventoryAdjustmentModelFromDomain(a)).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormAdjustmentRepository) SaveWithLock(ctx context.Context, a *inventory.Adjustment) error {
	result := r.db.WithContext(ctx).
		Model(&models.InventoryAdjustmentModel{}).
		Where("id = ? AND version = ?", a.ID, a.Version-1).
		Updates(map[string]interface{}{
			"state":       a.State,
			"posted_cost": a.PostedCost,
			"posted_at":   a.PostedAt,
			"version":     a.Version,
			"updated_at":  a.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ inventory.AdjustmentRepository = (*GormAdjustmentRepository)(nil)
