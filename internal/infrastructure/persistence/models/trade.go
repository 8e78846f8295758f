package models

import (
	"time"

	"github.com/erp/manufacturing/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber  string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierName string                   `gorm:"type:varchar(200);not null"`
	WarehouseID  uuid.UUID                `gorm:"type:uuid;not null;index"`
	Lines        []PurchaseOrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount  decimal.Decimal          `gorm:"type:numeric(28,10);not null;default:0"`
	State        trade.PurchaseOrderState `gorm:"type:varchar(20);not null;default:'draft'"`
	Remark       string                   `gorm:"type:text"`
	ApprovedAt   *time.Time               `gorm:"type:timestamp"`
	ReceivedAt   *time.Time               `gorm:"type:timestamp"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder entity.
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	order := &trade.PurchaseOrder{
		BaseAggregateRoot: m.Root(),
		OrderNumber:       m.OrderNumber,
		SupplierName:      m.SupplierName,
		WarehouseID:       m.WarehouseID,
		TotalAmount:       m.TotalAmount,
		State:             m.State,
		Remark:            m.Remark,
		ApprovedAt:        m.ApprovedAt,
		ReceivedAt:        m.ReceivedAt,
		Lines:             make([]trade.PurchaseOrderLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		order.Lines[i] = trade.PurchaseOrderLine{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			Amount:    l.Amount,
		}
	}
	return order
}

// FromDomain populates the persistence model from a domain PurchaseOrder entity.
func (m *PurchaseOrderModel) FromDomain(o *trade.PurchaseOrder) {
	m.setRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.SupplierName = o.SupplierName
	m.WarehouseID = o.WarehouseID
	m.TotalAmount = o.TotalAmount
	m.State = o.State
	m.Remark = o.Remark
	m.ApprovedAt = o.ApprovedAt
	m.ReceivedAt = o.ReceivedAt
	m.Lines = make([]PurchaseOrderLineModel, len(o.Lines))
	for i, l := range o.Lines {
		m.Lines[i] = PurchaseOrderLineModel{
			ID:        l.ID,
			OrderID:   o.ID,
			Position:  i,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			Amount:    l.Amount,
		}
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder entity.
func PurchaseOrderModelFromDomain(o *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// PurchaseOrderLineModel is the persistence model for a purchase order line.
type PurchaseOrderLineModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position  int             `gorm:"not null"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	UnitCost  decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(28,10);not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}
