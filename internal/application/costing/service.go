package costing

import (
	"context"
	"errors"
	"fmt"

	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/erp/manufacturing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StrategyProvider resolves the costing strategy of a method
type StrategyProvider interface {
	GetCostStrategy(method strategy.CostMethod) (strategy.CostingStrategy, error)
}

// Metrics receives ledger signals that are not carried by domain events
type Metrics interface {
	RecordShortage(ctx context.Context, method strategy.CostMethod)
	RecordConflictRetry(ctx context.Context, operation string)
}

// Config holds the costing service settings
type Config struct {
	DefaultMethod strategy.CostMethod
	MaxRetries    int
}

// Service is the costing ledger use-case service
type Service struct {
	scope         appshared.TransactionScope
	repos         appshared.Repositories
	strategies    StrategyProvider
	locker        appshared.Locker
	publisher     shared.EventPublisher
	metrics       Metrics
	logger        *zap.Logger
	defaultMethod strategy.CostMethod
	maxRetries    int
}

// NewService creates a new costing Service
func NewService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	strategies StrategyProvider,
	locker appshared.Locker,
	logger *zap.Logger,
	cfg Config,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultMethod == "" {
		cfg.DefaultMethod = strategy.CostMethodMovingAverage
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = appshared.DefaultMaxRetries
	}
	return &Service{
		scope:         scope,
		repos:         repos,
		strategies:    strategies,
		locker:        locker,
		publisher:     shared.NoOpEventPublisher{},
		logger:        logger,
		defaultMethod: cfg.DefaultMethod,
		maxRetries:    cfg.MaxRetries,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the ledger metrics recorder
func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
}

// DefaultMethod returns the method used for lazily created records
func (s *Service) DefaultMethod() strategy.CostMethod {
	return s.defaultMethod
}

// MaxRetries returns the optimistic-lock retry budget
func (s *Service) MaxRetries() int {
	return s.maxRetries
}

// RecordReceipt books a receipt in its own unit of work
func (s *Service) RecordReceipt(ctx context.Context, req ReceiptRequest) (*MovementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "costing", "record_receipt",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrWarehouseID, req.WarehouseID.String()))
	defer span.End()

	tx, err := s.runMovement(ctx, "receipt", req.ProductID, req.WarehouseID, func(ctx context.Context, l *Ledger) (*costing.CostingTransaction, error) {
		return l.Receive(ctx, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToMovementResult(tx), nil
}

// RecordIssue books an issue in its own unit of work.
// On InsufficientStock nothing is written.
func (s *Service) RecordIssue(ctx context.Context, req IssueRequest) (*MovementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "costing", "record_issue",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrWarehouseID, req.WarehouseID.String()))
	defer span.End()

	tx, err := s.runMovement(ctx, "issue", req.ProductID, req.WarehouseID, func(ctx context.Context, l *Ledger) (*costing.CostingTransaction, error) {
		return l.Issue(ctx, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToMovementResult(tx), nil
}

func (s *Service) runMovement(
	ctx context.Context,
	operation string,
	productID, warehouseID uuid.UUID,
	fn func(ctx context.Context, l *Ledger) (*costing.CostingTransaction, error),
) (*costing.CostingTransaction, error) {
	var (
		result *costing.CostingTransaction
		events []shared.DomainEvent
	)
	attempt := 0
	err := appshared.WithLock(ctx, s.locker, appshared.CostingKey(productID, warehouseID), func(ctx context.Context) error {
		return appshared.RetryOnConflict(ctx, s.maxRetries, func(ctx context.Context) error {
			if attempt > 0 {
				s.recordConflictRetry(ctx, operation)
			}
			attempt++
			return s.scope.Execute(ctx, func(repos appshared.Repositories) error {
				l := s.Ledger(repos)
				tx, err := fn(ctx, l)
				if err != nil {
					return err
				}
				result = tx
				events = l.Events()
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)
	return result, nil
}

// Initialize creates a record with an explicit costing method. Initializing an
// existing record with the same method is a no-op; with another method it fails.
func (s *Service) Initialize(ctx context.Context, productID, warehouseID uuid.UUID, method strategy.CostMethod) (*ValuationResponse, error) {
	if method == "" {
		method = s.defaultMethod
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: unknown costing method %q", shared.ErrInvalidInput, method)
	}
	if _, err := s.strategies.GetCostStrategy(method); err != nil {
		return nil, err
	}

	var record *costing.CostingRecord
	err := appshared.WithLock(ctx, s.locker, appshared.CostingKey(productID, warehouseID), func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos appshared.Repositories) error {
			existing, err := repos.CostingRecords().FindByProductAndWarehouse(ctx, productID, warehouseID)
			if err == nil {
				if existing.Method != method {
					return fmt.Errorf("%w: costing record already uses %s", shared.ErrAlreadyExists, existing.Method)
				}
				record = existing
				return nil
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			record, err = costing.NewCostingRecord(productID, warehouseID, method)
			if err != nil {
				return err
			}
			return repos.CostingRecords().Create(ctx, record)
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("costing record initialized",
		zap.String("product_id", productID.String()),
		zap.String("warehouse_id", warehouseID.String()),
		zap.String("method", string(record.Method)))
	return ToValuationResponse(record), nil
}

// GetValuation returns the current valuation of a product in a warehouse
func (s *Service) GetValuation(ctx context.Context, productID, warehouseID uuid.UUID) (*ValuationResponse, error) {
	record, err := s.repos.CostingRecords().FindByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return ToValuationResponse(record), nil
}

// ListTransactions lists the costing log of a product in a warehouse, newest first
func (s *Service) ListTransactions(ctx context.Context, productID, warehouseID uuid.UUID, filter shared.Filter) ([]TransactionResponse, int64, error) {
	rows, total, err := s.repos.CostingTransactions().FindByProductAndWarehouse(ctx, productID, warehouseID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]TransactionResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToTransactionResponse(r))
	}
	return out, total, nil
}

// Publish sends events raised inside a committed unit of work
func (s *Service) Publish(ctx context.Context, events []shared.DomainEvent) {
	s.publish(ctx, events)
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish costing events", zap.Error(err))
	}
}

func (s *Service) recordShortage(ctx context.Context, method strategy.CostMethod) {
	if s.metrics != nil {
		s.metrics.RecordShortage(ctx, method)
	}
}

func (s *Service) recordConflictRetry(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordConflictRetry(ctx, operation)
	}
}
