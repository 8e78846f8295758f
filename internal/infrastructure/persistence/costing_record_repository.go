package persistence

import (
	"context"

	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCostingRecordRepository implements CostingRecordRepository using GORM
type GormCostingRecordRepository struct {
	db *gorm.DB
}

// NewGormCostingRecordRepository creates a new GormCostingRecordRepository
func NewGormCostingRecordRepository(db *gorm.DB) *GormCostingRecordRepository {
	return &GormCostingRecordRepository{db: db}
}

// FindByProductAndWarehouse loads a record with its open layers
func (r *GormCostingRecordRepository) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*costing.CostingRecord, error) {
	var model models.CostingRecordModel
	err := r.db.WithContext(ctx).
		Preload("Layers", func(db *gorm.DB) *gorm.DB {
			return db.Order("received_at ASC, sequence ASC")
		}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&model).Error
	if err != nil {
		return nil, translateFindError(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// Create inserts a new record together with its layers
func (r *GormCostingRecordRepository) Create(ctx context.Context, record *costing.CostingRecord) error {
	model := models.CostingRecordModelFromDomain(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version), then brings the
// stored layers in line with the record: depleted layers are deleted, new ones
// inserted and partially consumed ones updated.
func (r *GormCostingRecordRepository) SaveWithLock(ctx context.Context, record *costing.CostingRecord) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.CostingRecordModel{}).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]interface{}{
			"quantity":      record.Valuation.Quantity,
			"value":         record.Valuation.Value,
			"average_cost":  record.Valuation.AverageCost,
			"next_sequence": record.Valuation.NextSequence,
			"version":       record.Version,
			"updated_at":    record.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	layers := models.CostingLayerModelsFromDomain(record.ID, record.Valuation.Layers)
	stale := db.Where("record_id = ?", record.ID)
	if len(layers) > 0 {
		ids := make([]uuid.UUID, len(layers))
		for i, l := range layers {
			ids[i] = l.ID
		}
		stale = stale.Where("id NOT IN ?", ids)
	}
	if err := stale.Delete(&models.CostingLayerModel{}).Error; err != nil {
		return err
	}
	if len(layers) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"remaining"}),
	}).Create(&layers).Error
}

var _ costing.CostingRecordRepository = (*GormCostingRecordRepository)(nil)

// GormCostingTransactionRepository implements CostingTransactionRepository using GORM
type GormCostingTransactionRepository struct {
	db *gorm.DB
}

// NewGormCostingTransactionRepository creates a new GormCostingTransactionRepository
func NewGormCostingTransactionRepository(db *gorm.DB) *GormCostingTransactionRepository {
	return &GormCostingTransactionRepository{db: db}
}

// Create appends a transaction
func (r *GormCostingTransactionRepository) Create(ctx context.Context, tx *costing.CostingTransaction) error {
	return r.db.WithContext(ctx).Create(models.CostingTransactionModelFromDomain(tx)).Error
}

// FindByProductAndWarehouse lists transactions of a pair, newest first by default
func (r *GormCostingTransactionRepository) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID, filter shared.Filter) ([]costing.CostingTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CostingTransactionModel{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID)
	if t, ok := filter.Filters["type"].(string); ok && t != "" {
		query = query.Where("type = ?", t)
	}
	if ref, ok := filter.Filters["reference_type"].(string); ok && ref != "" {
		query = query.Where("reference_type = ?", ref)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CostingTransactionModel
	if err := query.
		Order(costingTransactionSort.orderBy(filter, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]costing.CostingTransaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

var _ costing.CostingTransactionRepository = (*GormCostingTransactionRepository)(nil)
