// Package shared holds the application-level unit of work, per-key
// serialization and retry helpers used by every use-case service.
package shared

import (
	"context"

	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/inventory"
	"github.com/erp/manufacturing/internal/domain/payroll"
	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/erp/manufacturing/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories.
// When a function is executed within a transaction scope, all repository operations
// are part of the same database transaction and are committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to every repository. Inside TransactionScope.Execute
// all repositories returned share the same underlying database transaction; outside
// it they run on the plain connection pool and are used for reads.
type Repositories interface {
	CostingRecords() costing.CostingRecordRepository
	CostingTransactions() costing.CostingTransactionRepository

	ProductionOrders() production.ProductionOrderRepository
	WIPTransactions() production.WIPTransactionRepository
	BOMs() production.BOMRepository
	BackflushRecords() production.BackflushRecordRepository
	Variances() production.VarianceRepository

	ApprovalChains() approval.ChainRepository
	ApprovalRequests() approval.RequestRepository
	Approvers() approval.ApproverDirectory

	PayrollFormulas() payroll.FormulaRepository
	Attendances() payroll.AttendanceRepository
	Payrolls() payroll.PayrollRepository
	PurchaseOrders() trade.PurchaseOrderRepository
	Adjustments() inventory.AdjustmentRepository
}
