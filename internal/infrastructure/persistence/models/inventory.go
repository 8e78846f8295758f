package models

import (
	"time"

	"github.com/erp/manufacturing/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryAdjustmentModel is the persistence model for the Adjustment aggregate root.
type InventoryAdjustmentModel struct {
	AggregateModel
	AdjustmentNumber string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	ProductID        uuid.UUID                 `gorm:"type:uuid;not null;index:idx_adjustment_product_warehouse,priority:1"`
	WarehouseID      uuid.UUID                 `gorm:"type:uuid;not null;index:idx_adjustment_product_warehouse,priority:2"`
	QuantityDelta    decimal.Decimal           `gorm:"type:numeric(18,4);not null"`
	UnitCost         decimal.Decimal           `gorm:"type:numeric(18,6);not null;default:0"`
	Reason           string                    `gorm:"type:text"`
	State            inventory.AdjustmentState `gorm:"type:varchar(20);not null;default:'draft'"`
	PostedCost       decimal.NullDecimal       `gorm:"type:numeric(28,10)"`
	PostedAt         *time.Time                `gorm:"type:timestamp"`
}

// TableName returns the table name for GORM
func (InventoryAdjustmentModel) TableName() string {
	return "inventory_adjustments"
}

// ToDomain converts the persistence model to a domain Adjustment.
func (m *InventoryAdjustmentModel) ToDomain() *inventory.Adjustment {
	return &inventory.Adjustment{
		BaseAggregateRoot: m.Root(),
		AdjustmentNumber:  m.AdjustmentNumber,
		ProductID:         m.ProductID,
		WarehouseID:       m.WarehouseID,
		QuantityDelta:     m.QuantityDelta,
		UnitCost:          m.UnitCost,
		Reason:            m.Reason,
		State:             m.State,
		PostedCost:        m.PostedCost,
		PostedAt:          m.PostedAt,
	}
}

// FromDomain populates the persistence model from a domain Adjustment.
func (m *InventoryAdjustmentModel) FromDomain(a *inventory.Adjustment) {
	m.setRoot(a.BaseAggregateRoot)
	m.AdjustmentNumber = a.AdjustmentNumber
	m.ProductID = a.ProductID
	m.WarehouseID = a.WarehouseID
	m.QuantityDelta = a.QuantityDelta
	m.UnitCost = a.UnitCost
	m.Reason = a.Reason
	m.State = a.State
	m.PostedCost = a.PostedCost
	m.PostedAt = a.PostedAt
}

// InventoryAdjustmentModelFromDomain creates a new persistence model from a domain Adjustment.
func InventoryAdjustmentModelFromDomain(a *inventory.Adjustment) *InventoryAdjustmentModel {
	m := &InventoryAdjustmentModel{}
	m.FromDomain(a)
	return m
}
