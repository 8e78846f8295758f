package models

import (
	"sort"
	"time"

	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostingRecordModel is the persistence model for the CostingRecord aggregate root.
type CostingRecordModel struct {
	AggregateModel
	ProductID    uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_costing_record_product_warehouse,priority:1"`
	WarehouseID  uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_costing_record_product_warehouse,priority:2"`
	Method       strategy.CostMethod `gorm:"type:varchar(20);not null"`
	Quantity     decimal.Decimal     `gorm:"type:numeric(18,4);not null;default:0"`
	Value        decimal.Decimal     `gorm:"type:numeric(28,10);not null;default:0"`
	AverageCost  decimal.Decimal     `gorm:"type:numeric(18,6);not null;default:0"`
	NextSequence int64               `gorm:"not null;default:0"`
	// Associations
	Layers []CostingLayerModel `gorm:"foreignKey:RecordID;references:ID"`
}

// TableName returns the table name for GORM
func (CostingRecordModel) TableName() string {
	return "costing_records"
}

// ToDomain converts the persistence model to a domain CostingRecord.
// Layers are returned in consumption order.
func (m *CostingRecordModel) ToDomain() *costing.CostingRecord {
	layers := make([]strategy.CostLayer, len(m.Layers))
	for i, l := range m.Layers {
		layers[i] = l.ToDomain()
	}
	sort.SliceStable(layers, func(i, j int) bool { return layers[i].Before(layers[j]) })

	return &costing.CostingRecord{
		BaseAggregateRoot: m.Root(),
		ProductID:         m.ProductID,
		WarehouseID:       m.WarehouseID,
		Method:            m.Method,
		Valuation: strategy.Valuation{
			Quantity:     m.Quantity,
			Value:        m.Value,
			AverageCost:  m.AverageCost,
			Layers:       layers,
			NextSequence: m.NextSequence,
		},
	}
}

// FromDomain populates the persistence model from a domain CostingRecord.
func (m *CostingRecordModel) FromDomain(r *costing.CostingRecord) {
	m.setRoot(r.BaseAggregateRoot)
	m.ProductID = r.ProductID
	m.WarehouseID = r.WarehouseID
	m.Method = r.Method
	m.Quantity = r.Valuation.Quantity
	m.Value = r.Valuation.Value
	m.AverageCost = r.Valuation.AverageCost
	m.NextSequence = r.Valuation.NextSequence
	m.Layers = CostingLayerModelsFromDomain(r.ID, r.Valuation.Layers)
}

// CostingRecordModelFromDomain creates a new persistence model from a domain CostingRecord.
func CostingRecordModelFromDomain(r *costing.CostingRecord) *CostingRecordModel {
	m := &CostingRecordModel{}
	m.FromDomain(r)
	return m
}

// CostingLayerModel is one open FIFO receipt layer.
type CostingLayerModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	RecordID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_costing_layer_record_seq,priority:1"`
	Sequence   int64           `gorm:"not null;index:idx_costing_layer_record_seq,priority:2"`
	Quantity   decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Remaining  decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	UnitCost   decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	ReceivedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CostingLayerModel) TableName() string {
	return "costing_layers"
}

// ToDomain converts the persistence model to a domain CostLayer.
func (m *CostingLayerModel) ToDomain() strategy.CostLayer {
	return strategy.CostLayer{
		ID:         m.ID,
		Sequence:   m.Sequence,
		Quantity:   m.Quantity,
		Remaining:  m.Remaining,
		UnitCost:   m.UnitCost,
		ReceivedAt: m.ReceivedAt,
	}
}

// CostingLayerModelsFromDomain converts the open layers of a record.
func CostingLayerModelsFromDomain(recordID uuid.UUID, layers []strategy.CostLayer) []CostingLayerModel {
	out := make([]CostingLayerModel, len(layers))
	for i, l := range layers {
		out[i] = CostingLayerModel{
			ID:         l.ID,
			RecordID:   recordID,
			Sequence:   l.Sequence,
			Quantity:   l.Quantity,
			Remaining:  l.Remaining,
			UnitCost:   l.UnitCost,
			ReceivedAt: l.ReceivedAt,
		}
	}
	return out
}

// CostingTransactionModel is a row of the append-only costing log.
type CostingTransactionModel struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primary_key"`
	RecordID         uuid.UUID                   `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID                   `gorm:"type:uuid;not null;index:idx_costing_tx_product_warehouse,priority:1"`
	WarehouseID      uuid.UUID                   `gorm:"type:uuid;not null;index:idx_costing_tx_product_warehouse,priority:2"`
	Type             costing.TransactionType     `gorm:"type:varchar(20);not null"`
	Method           strategy.CostMethod         `gorm:"type:varchar(20);not null"`
	Quantity         decimal.Decimal             `gorm:"type:numeric(18,4);not null"`
	UnitCost         decimal.Decimal             `gorm:"type:numeric(18,6);not null"`
	TotalCost        decimal.Decimal             `gorm:"type:numeric(28,10);not null"`
	QuantityAfter    decimal.Decimal             `gorm:"type:numeric(18,4);not null"`
	ValueAfter       decimal.Decimal             `gorm:"type:numeric(28,10);not null"`
	AverageCostAfter decimal.Decimal             `gorm:"type:numeric(18,6);not null"`
	ReferenceType    costing.ReferenceType       `gorm:"type:varchar(30);not null;index:idx_costing_tx_reference,priority:1"`
	ReferenceID      uuid.UUID                   `gorm:"type:uuid;index:idx_costing_tx_reference,priority:2"`
	LotNumber        string                      `gorm:"type:varchar(100)"`
	Consumed         []strategy.LayerConsumption `gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time                   `gorm:"not null;index:idx_costing_tx_product_warehouse,priority:3"`
}

// TableName returns the table name for GORM
func (CostingTransactionModel) TableName() string {
	return "costing_transactions"
}

// ToDomain converts the persistence model to a domain CostingTransaction.
func (m *CostingTransactionModel) ToDomain() *costing.CostingTransaction {
	return &costing.CostingTransaction{
		ID:               m.ID,
		RecordID:         m.RecordID,
		ProductID:        m.ProductID,
		WarehouseID:      m.WarehouseID,
		Type:             m.Type,
		Method:           m.Method,
		Quantity:         m.Quantity,
		UnitCost:         m.UnitCost,
		TotalCost:        m.TotalCost,
		QuantityAfter:    m.QuantityAfter,
		ValueAfter:       m.ValueAfter,
		AverageCostAfter: m.AverageCostAfter,
		Reference:        costing.Reference{Type: m.ReferenceType, ID: m.ReferenceID},
		LotNumber:        m.LotNumber,
		Consumed:         m.Consumed,
		CreatedAt:        m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain CostingTransaction.
func (m *CostingTransactionModel) FromDomain(t *costing.CostingTransaction) {
	m.ID = t.ID
	m.RecordID = t.RecordID
	m.ProductID = t.ProductID
	m.WarehouseID = t.WarehouseID
	m.Type = t.Type
	m.Method = t.Method
	m.Quantity = t.Quantity
	m.UnitCost = t.UnitCost
	m.TotalCost = t.TotalCost
	m.QuantityAfter = t.QuantityAfter
	m.ValueAfter = t.ValueAfter
	m.AverageCostAfter = t.AverageCostAfter
	m.ReferenceType = t.Reference.Type
	m.ReferenceID = t.Reference.ID
	m.LotNumber = t.LotNumber
	m.Consumed = t.Consumed
	m.CreatedAt = t.CreatedAt
}

// CostingTransactionModelFromDomain creates a new persistence model from a domain CostingTransaction.
func CostingTransactionModelFromDomain(t *costing.CostingTransaction) *CostingTransactionModel {
	m := &CostingTransactionModel{}
	m.FromDomain(t)
	return m
}
