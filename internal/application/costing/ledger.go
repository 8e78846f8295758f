package costing

import (
	"context"
	"errors"
	"fmt"

	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger books costing movements inside a caller's unit of work.
// It is bound to one transaction and collects the domain events raised by
// the records it touches; publish them only after the transaction commits.
type Ledger struct {
	svc    *Service
	repos  appshared.Repositories
	events []shared.DomainEvent
}

// Ledger returns a ledger bound to repos
func (s *Service) Ledger(repos appshared.Repositories) *Ledger {
	return &Ledger{svc: s, repos: repos}
}

// Events returns the domain events raised so far
func (l *Ledger) Events() []shared.DomainEvent {
	return l.events
}

// Receive books a receipt, creating the record with the default method if needed
func (l *Ledger) Receive(ctx context.Context, req ReceiptRequest) (*costing.CostingTransaction, error) {
	in := strategy.ReceiptInput{Quantity: req.Quantity, UnitCost: req.UnitCost, ReceivedAt: req.ReceivedAt}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	record, err := l.loadOrCreate(ctx, req.ProductID, req.WarehouseID, "")
	if err != nil {
		return nil, err
	}
	s, err := l.svc.strategies.GetCostStrategy(record.Method)
	if err != nil {
		return nil, err
	}

	m, err := record.Receive(s, in)
	if err != nil {
		return nil, err
	}
	return l.persist(ctx, record, costing.TransactionTypeReceipt, req.Quantity, m, req.Reference, req.LotNumber)
}

// Issue books an issue. A missing record has nothing on hand, so the issue
// fails with InsufficientStock and nothing is written.
func (l *Ledger) Issue(ctx context.Context, req IssueRequest) (*costing.CostingTransaction, error) {
	in := strategy.IssueInput{Quantity: req.Quantity}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	record, err := l.repos.CostingRecords().FindByProductAndWarehouse(ctx, req.ProductID, req.WarehouseID)
	if errors.Is(err, shared.ErrNotFound) {
		l.svc.recordShortage(ctx, l.svc.defaultMethod)
		return nil, &costing.InsufficientStockError{Requested: req.Quantity, Available: decimal.Zero}
	}
	if err != nil {
		return nil, err
	}
	s, err := l.svc.strategies.GetCostStrategy(record.Method)
	if err != nil {
		return nil, err
	}

	m, err := record.Issue(s, in)
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			l.svc.recordShortage(ctx, record.Method)
		}
		return nil, err
	}
	return l.persist(ctx, record, costing.TransactionTypeIssue, req.Quantity, m, req.Reference, req.LotNumber)
}

func (l *Ledger) loadOrCreate(ctx context.Context, productID, warehouseID uuid.UUID, method strategy.CostMethod) (*costing.CostingRecord, error) {
	record, err := l.repos.CostingRecords().FindByProductAndWarehouse(ctx, productID, warehouseID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if method == "" {
		method = l.svc.defaultMethod
	}
	record, err = costing.NewCostingRecord(productID, warehouseID, method)
	if err != nil {
		return nil, err
	}
	if err := l.repos.CostingRecords().Create(ctx, record); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// lost a lazy-init race; the retry re-reads the winner's record
			return nil, fmt.Errorf("%w: costing record created concurrently", shared.ErrConcurrencyConflict)
		}
		return nil, err
	}
	return record, nil
}

func (l *Ledger) persist(
	ctx context.Context,
	record *costing.CostingRecord,
	txType costing.TransactionType,
	quantity decimal.Decimal,
	m strategy.Movement,
	ref costing.Reference,
	lot string,
) (*costing.CostingTransaction, error) {
	if err := record.CheckInvariant(); err != nil {
		l.svc.logger.Error("costing invariant violated",
			zap.String("product_id", record.ProductID.String()),
			zap.String("warehouse_id", record.WarehouseID.String()),
			zap.Error(err))
		return nil, err
	}
	if err := l.repos.CostingRecords().SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	tx := costing.NewCostingTransaction(record, txType, quantity, m, ref, lot)
	if err := l.repos.CostingTransactions().Create(ctx, tx); err != nil {
		return nil, err
	}

	l.events = append(l.events, record.GetDomainEvents()...)
	record.ClearDomainEvents()
	return tx, nil
}
