package models

import (
	"time"

	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionOrderModel is the persistence model for the ProductionOrder aggregate root.
type ProductionOrderModel struct {
	AggregateModel
	OrderNumber          string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	ProductID            uuid.UUID             `gorm:"type:uuid;not null;index"`
	BOMID                uuid.UUID             `gorm:"column:bom_id;type:uuid;not null;index"`
	WarehouseID          uuid.UUID             `gorm:"type:uuid;not null"`
	Quantity             decimal.Decimal       `gorm:"type:numeric(18,4);not null;default:0"`
	LotNumber            string                `gorm:"type:varchar(100)"`
	PlannedStart         *time.Time            `gorm:"type:timestamp"`
	PlannedEnd           *time.Time            `gorm:"type:timestamp"`
	State                production.OrderState `gorm:"type:varchar(20);not null;default:'draft';index"`
	WIPCost              decimal.Decimal       `gorm:"column:wip_cost;type:numeric(28,10);not null;default:0"`
	ActualCost           decimal.Decimal       `gorm:"type:numeric(28,10);not null;default:0"`
	UnitCost             decimal.Decimal       `gorm:"type:numeric(18,6);not null;default:0"`
	PostedAt             *time.Time            `gorm:"type:timestamp"`
	StandardMaterialCost decimal.NullDecimal   `gorm:"type:numeric(28,10)"`
	StandardLaborCost    decimal.NullDecimal   `gorm:"type:numeric(28,10)"`
	StandardOverheadCost decimal.NullDecimal   `gorm:"type:numeric(28,10)"`
}

// TableName returns the table name for GORM
func (ProductionOrderModel) TableName() string {
	return "production_orders"
}

// ToDomain converts the persistence model to a domain ProductionOrder.
func (m *ProductionOrderModel) ToDomain() *production.ProductionOrder {
	return &production.ProductionOrder{
		BaseAggregateRoot: m.Root(),
		OrderNumber:       m.OrderNumber,
		ProductID:         m.ProductID,
		BOMID:             m.BOMID,
		WarehouseID:       m.WarehouseID,
		Quantity:          m.Quantity,
		LotNumber:         m.LotNumber,
		PlannedStart:      m.PlannedStart,
		PlannedEnd:        m.PlannedEnd,
		State:             m.State,
		WIPCost:           m.WIPCost,
		ActualCost:        m.ActualCost,
		UnitCost:          m.UnitCost,
		PostedAt:          m.PostedAt,
		StandardCosts: production.StandardCosts{
			Material: m.StandardMaterialCost,
			Labor:    m.StandardLaborCost,
			Overhead: m.StandardOverheadCost,
		},
	}
}

// FromDomain populates the persistence model from a domain ProductionOrder.
func (m *ProductionOrderModel) FromDomain(o *production.ProductionOrder) {
	m.setRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.ProductID = o.ProductID
	m.BOMID = o.BOMID
	m.WarehouseID = o.WarehouseID
	m.Quantity = o.Quantity
	m.LotNumber = o.LotNumber
	m.PlannedStart = o.PlannedStart
	m.PlannedEnd = o.PlannedEnd
	m.State = o.State
	m.WIPCost = o.WIPCost
	m.ActualCost = o.ActualCost
	m.UnitCost = o.UnitCost
	m.PostedAt = o.PostedAt
	m.StandardMaterialCost = o.StandardCosts.Material
	m.StandardLaborCost = o.StandardCosts.Labor
	m.StandardOverheadCost = o.StandardCosts.Overhead
}

// ProductionOrderModelFromDomain creates a new persistence model from a domain ProductionOrder.
func ProductionOrderModelFromDomain(o *production.ProductionOrder) *ProductionOrderModel {
	m := &ProductionOrderModel{}
	m.FromDomain(o)
	return m
}

// BOMModel is the persistence model for a bill of materials.
type BOMModel struct {
	BaseModel
	Name       string              `gorm:"type:varchar(200);not null"`
	ProductID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	Revision   string              `gorm:"column:version;type:varchar(20);not null"`
	Active     bool                `gorm:"not null"`
	Components []BOMComponentModel `gorm:"foreignKey:BOMID;references:ID"`
}

// TableName returns the table name for GORM
func (BOMModel) TableName() string {
	return "boms"
}

// ToDomain converts the persistence model to a domain BOM.
func (m *BOMModel) ToDomain() *production.BOM {
	b := &production.BOM{
		BaseEntity: m.Entity(),
		Name:       m.Name,
		ProductID:  m.ProductID,
		Version:    m.Revision,
		Active:     m.Active,
		Components: make([]production.BOMComponent, len(m.Components)),
	}
	for i, c := range m.Components {
		b.Components[i] = production.BOMComponent{
			ComponentID:     c.ComponentID,
			QuantityPerUnit: c.QuantityPerUnit,
			Unit:            c.Unit,
		}
	}
	return b
}

// FromDomain populates the persistence model from a domain BOM.
func (m *BOMModel) FromDomain(b *production.BOM) {
	m.setEntity(b.BaseEntity)
	m.Name = b.Name
	m.ProductID = b.ProductID
	m.Revision = b.Version
	m.Active = b.Active
	m.Components = make([]BOMComponentModel, len(b.Components))
	for i, c := range b.Components {
		m.Components[i] = BOMComponentModel{
			ID:              uuid.New(),
			BOMID:           b.ID,
			Position:        i,
			ComponentID:     c.ComponentID,
			QuantityPerUnit: c.QuantityPerUnit,
			Unit:            c.Unit,
		}
	}
}

// BOMModelFromDomain creates a new persistence model from a domain BOM.
func BOMModelFromDomain(b *production.BOM) *BOMModel {
	m := &BOMModel{}
	m.FromDomain(b)
	return m
}

// BOMComponentModel is one component line of a BOM.
type BOMComponentModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	BOMID           uuid.UUID       `gorm:"column:bom_id;type:uuid;not null;index"`
	Position        int             `gorm:"not null"`
	ComponentID     uuid.UUID       `gorm:"type:uuid;not null"`
	QuantityPerUnit decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Unit            string          `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (BOMComponentModel) TableName() string {
	return "bom_components"
}

// WIPTransactionModel is a row of the append-only WIP log.
type WIPTransactionModel struct {
	ID        uuid.UUID               `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID               `gorm:"type:uuid;not null;index"`
	Category  production.CostCategory `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal         `gorm:"type:numeric(28,10);not null"`
	Quantity  decimal.NullDecimal     `gorm:"type:numeric(18,4)"`
	Notes     string                  `gorm:"type:text"`
	CreatedBy string                  `gorm:"type:varchar(100)"`
	CreatedAt time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WIPTransactionModel) TableName() string {
	return "wip_transactions"
}

// ToDomain converts the persistence model to a domain WIPTransaction.
func (m *WIPTransactionModel) ToDomain() production.WIPTransaction {
	return production.WIPTransaction{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Category:  m.Category,
		Amount:    m.Amount,
		Quantity:  m.Quantity,
		Notes:     m.Notes,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

// WIPTransactionModelFromDomain creates a new persistence model from a domain WIPTransaction.
func WIPTransactionModelFromDomain(t *production.WIPTransaction) *WIPTransactionModel {
	return &WIPTransactionModel{
		ID:        t.ID,
		OrderID:   t.OrderID,
		Category:  t.Category,
		Amount:    t.Amount,
		Quantity:  t.Quantity,
		Notes:     t.Notes,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
	}
}

// BackflushRecordModel is one component line of a backflush run.
type BackflushRecordModel struct {
	ID              uuid.UUID           `gorm:"type:uuid;primary_key"`
	RunID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	OrderID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	ComponentID     uuid.UUID           `gorm:"type:uuid;not null"`
	LotNumber       string              `gorm:"type:varchar(100)"`
	PlannedQuantity decimal.Decimal     `gorm:"type:numeric(18,4);not null"`
	ActualQuantity  decimal.Decimal     `gorm:"type:numeric(18,4);not null"`
	ScrapQuantity   decimal.Decimal     `gorm:"type:numeric(18,4);not null;default:0"`
	Variance        decimal.Decimal     `gorm:"type:numeric(18,4);not null;default:0"`
	IssuedCost      decimal.NullDecimal `gorm:"type:numeric(28,10)"`
	CreatedAt       time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BackflushRecordModel) TableName() string {
	return "backflush_records"
}

// ToDomain converts the persistence model to a domain BackflushRecord.
func (m *BackflushRecordModel) ToDomain() production.BackflushRecord {
	return production.BackflushRecord{
		ID:              m.ID,
		RunID:           m.RunID,
		OrderID:         m.OrderID,
		ComponentID:     m.ComponentID,
		LotNumber:       m.LotNumber,
		PlannedQuantity: m.PlannedQuantity,
		ActualQuantity:  m.ActualQuantity,
		ScrapQuantity:   m.ScrapQuantity,
		Variance:        m.Variance,
		IssuedCost:      m.IssuedCost,
		CreatedAt:       m.CreatedAt,
	}
}

// BackflushRecordModelFromDomain creates a new persistence model from a domain BackflushRecord.
func BackflushRecordModelFromDomain(r *production.BackflushRecord) *BackflushRecordModel {
	return &BackflushRecordModel{
		ID:              r.ID,
		RunID:           r.RunID,
		OrderID:         r.OrderID,
		ComponentID:     r.ComponentID,
		LotNumber:       r.LotNumber,
		PlannedQuantity: r.PlannedQuantity,
		ActualQuantity:  r.ActualQuantity,
		ScrapQuantity:   r.ScrapQuantity,
		Variance:        r.Variance,
		IssuedCost:      r.IssuedCost,
		CreatedAt:       r.CreatedAt,
	}
}

// VarianceAnalysisModel is one cost category row of a closed order's variance report.
type VarianceAnalysisModel struct {
	ID                 uuid.UUID               `gorm:"type:uuid;primary_key"`
	OrderID            uuid.UUID               `gorm:"type:uuid;not null;index"`
	Category           production.CostCategory `gorm:"type:varchar(20);not null"`
	StandardCost       decimal.Decimal         `gorm:"type:numeric(28,10);not null"`
	ActualCost         decimal.Decimal         `gorm:"type:numeric(28,10);not null"`
	VarianceAmount     decimal.Decimal         `gorm:"type:numeric(28,10);not null"`
	VariancePercentage decimal.Decimal         `gorm:"type:numeric(18,4);not null"`
	CreatedAt          time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VarianceAnalysisModel) TableName() string {
	return "variance_analyses"
}

// ToDomain converts the persistence model to a domain VarianceAnalysis.
func (m *VarianceAnalysisModel) ToDomain() production.VarianceAnalysis {
	return production.VarianceAnalysis{
		ID:                 m.ID,
		OrderID:            m.OrderID,
		Category:           m.Category,
		StandardCost:       m.StandardCost,
		ActualCost:         m.ActualCost,
		VarianceAmount:     m.VarianceAmount,
		VariancePercentage: m.VariancePercentage,
		CreatedAt:          m.CreatedAt,
	}
}

// VarianceAnalysisModelFromDomain creates a new persistence model from a domain VarianceAnalysis.
func VarianceAnalysisModelFromDomain(v *production.VarianceAnalysis) *VarianceAnalysisModel {
	return &VarianceAnalysisModel{
		ID:                 v.ID,
		OrderID:            v.OrderID,
		Category:           v.Category,
		StandardCost:       v.StandardCost,
		ActualCost:         v.ActualCost,
		VarianceAmount:     v.VarianceAmount,
		VariancePercentage: v.VariancePercentage,
		CreatedAt:          v.CreatedAt,
	}
}

