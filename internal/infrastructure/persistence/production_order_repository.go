package persistence

import (
	"context"
	"time"

	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormProductionOrderRepository implements ProductionOrderRepository using GORM
type GormProductionOrderRepository struct {
	db *gorm.DB
}

// NewGormProductionOrderRepository creates a new GormProductionOrderRepository
func NewGormProductionOrderRepository(db *gorm.DB) *GormProductionOrderRepository {
	return &GormProductionOrderRepository{db: db}
}

// FindByID finds a production order by its ID
func (r *GormProductionOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.ProductionOrder, error) {
	var model models.ProductionOrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateFindError(err, production.ErrOrderNotFound)
	}
	return model.ToDomain(), nil
}

// Create inserts a new production order
func (r *GormProductionOrderRepository) Create(ctx context.Context, order *production.ProductionOrder) error {
	if err := r.db.WithContext(ctx).Create(models.ProductionOrderModelFromDomain(order)).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormProductionOrderRepository) SaveWithLock(ctx context.Context, order *production.ProductionOrder) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductionOrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version-1).
		Updates(map[string]interface{}{
			"state":       order.State,
			"wip_cost":    order.WIPCost,
			"actual_cost": order.ActualCost,
			"unit_cost":   order.UnitCost,
			"lot_number":  order.LotNumber,
			"posted_at":   order.PostedAt,
			"version":     order.Version,
			"updated_at":  order.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// AccrueWIP adds amount to the cached WIP cost with a single conditional update.
// The state predicate makes it fail once a close has committed.
func (r *GormProductionOrderRepository) AccrueWIP(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.ProductionOrderModel{}).
		Where("id = ? AND state IN ?", id, []production.OrderState{production.OrderStateDraft, production.OrderStateInProgress}).
		Updates(map[string]interface{}{
			"wip_cost":   gorm.Expr("wip_cost + ?", amount),
			"state":      production.OrderStateInProgress,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.ProductionOrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return production.ErrOrderNotFound
	}
	return production.ErrOrderClosed
}

var _ production.ProductionOrderRepository = (*GormProductionOrderRepository)(nil)

// GormWIPTransactionRepository implements WIPTransactionRepository using GORM
type GormWIPTransactionRepository struct {
	db *gorm.DB
}

// NewGormWIPTransactionRepository creates a new GormWIPTransactionRepository
func NewGormWIPTransactionRepository(db *gorm.DB) *GormWIPTransactionRepository {
	return &GormWIPTransactionRepository{db: db}
}

// Create appends a WIP transaction
func (r *GormWIPTransactionRepository) Create(ctx context.Context, tx *production.WIPTransaction) error {
	return r.db.WithContext(ctx).Create(models.WIPTransactionModelFromDomain(tx)).Error
}

// FindByOrder lists the WIP log of an order in posting order
func (r *GormWIPTransactionRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]production.WIPTransaction, error) {
	var rows []models.WIPTransactionModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]production.WIPTransaction, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ production.WIPTransactionRepository = (*GormWIPTransactionRepository)(nil)

// GormBOMRepository implements BOMRepository using GORM
type GormBOMRepository struct {
	db *gorm.DB
}

// NewGormBOMRepository creates a new GormBOMRepository
func NewGormBOMRepository(db *gorm.DB) *GormBOMRepository {
	return &GormBOMRepository{db: db}
}

// FindByID loads a BOM with its components in line order
func (r *GormBOMRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.BOM, error) {
	var model models.BOMModel
	err := r.db.WithContext(ctx).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translateFindError(err, production.ErrBOMNotFound)
	}
	return model.ToDomain(), nil
}

// Create inserts a BOM and its components
func (r *GormBOMRepository) Create(ctx context.Context, bom *production.BOM) error {
	if err := r.db.WithContext(ctx).Create(models.BOMModelFromDomain(bom)).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

var _ production.BOMRepository = (*GormBOMRepository)(nil)

// GormBackflushRecordRepository implements BackflushRecordRepository using GORM
type GormBackflushRecordRepository struct {
	db *gorm.DB
}

// NewGormBackflushRecordRepository creates a new GormBackflushRecordRepository
func NewGormBackflushRecordRepository(db *gorm.DB) *GormBackflushRecordRepository {
	return &GormBackflushRecordRepository{db: db}
}

// CreateBatch inserts the records of one backflush run
func (r *GormBackflushRecordRepository) CreateBatch(ctx context.Context, records []production.BackflushRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]*models.BackflushRecordModel, len(records))
	for i := range records {
		rows[i] = models.BackflushRecordModelFromDomain(&records[i])
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

// FindByOrder lists backflush records of an order
func (r *GormBackflushRecordRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]production.BackflushRecord, error) {
	var rows []models.BackflushRecordModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]production.BackflushRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ production.BackflushRecordRepository = (*GormBackflushRecordRepository)(nil)

// GormVarianceRepository implements VarianceRepository using GORM
type GormVarianceRepository struct {
	db *gorm.DB
}

// NewGormVarianceRepository creates a new GormVarianceRepository
func NewGormVarianceRepository(db *gorm.DB) *GormVarianceRepository {
	return &GormVarianceRepository{db: db}
}

// CreateBatch inserts the variance rows of a closed order
func (r *GormVarianceRepository) CreateBatch(ctx context.Context, rows []production.VarianceAnalysis) error {
	if len(rows) == 0 {
		return nil
	}
	out := make([]*models.VarianceAnalysisModel, len(rows))
	for i := range rows {
		out[i] = models.VarianceAnalysisModelFromDomain(&rows[i])
	}
	return r.db.WithContext(ctx).Create(out).Error
}

// FindByOrder lists the variance rows of an order
func (r *GormVarianceRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]production.VarianceAnalysis, error) {
	var rows []models.VarianceAnalysisModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]production.VarianceAnalysis, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ production.VarianceRepository = (*GormVarianceRepository)(nil)

