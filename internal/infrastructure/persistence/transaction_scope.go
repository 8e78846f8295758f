package persistence

import (
	"context"

	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/costing"
	"github.com/erp/manufacturing/internal/domain/inventory"
	"github.com/erp/manufacturing/internal/domain/payroll"
	"github.com/erp/manufacturing/internal/domain/production"
	"github.com/erp/manufacturing/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appshared.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// GormRepositories provides access to all repositories bound to one *gorm.DB,
// either the connection pool or an open transaction.
type GormRepositories struct {
	db *gorm.DB
}

// NewRepositories returns repositories bound to db
func NewRepositories(db *gorm.DB) *GormRepositories {
	return &GormRepositories{db: db}
}

// CostingRecords returns the costing record repository.
func (r *GormRepositories) CostingRecords() costing.CostingRecordRepository {
	return NewGormCostingRecordRepository(r.db)
}

// CostingTransactions returns the costing transaction repository.
func (r *GormRepositories) CostingTransactions() costing.CostingTransactionRepository {
	return NewGormCostingTransactionRepository(r.db)
}

// ProductionOrders returns the production order repository.
func (r *GormRepositories) ProductionOrders() production.ProductionOrderRepository {
	return NewGormProductionOrderRepository(r.db)
}

// WIPTransactions returns the WIP transaction repository.
func (r *GormRepositories) WIPTransactions() production.WIPTransactionRepository {
	return NewGormWIPTransactionRepository(r.db)
}

// BOMs returns the bill of materials repository.
func (r *GormRepositories) BOMs() production.BOMRepository {
	return NewGormBOMRepository(r.db)
}

// BackflushRecords returns the backflush record repository.
func (r *GormRepositories) BackflushRecords() production.BackflushRecordRepository {
	return NewGormBackflushRecordRepository(r.db)
}

// Variances returns the variance analysis repository.
func (r *GormRepositories) Variances() production.VarianceRepository {
	return NewGormVarianceRepository(r.db)
}

// ApprovalChains returns the approval chain repository.
func (r *GormRepositories) ApprovalChains() approval.ChainRepository {
	return NewGormApprovalChainRepository(r.db)
}

// ApprovalRequests returns the approval request repository.
func (r *GormRepositories) ApprovalRequests() approval.RequestRepository {
	return NewGormApprovalRequestRepository(r.db)
}

// Approvers returns the approver directory.
func (r *GormRepositories) Approvers() approval.ApproverDirectory {
	return NewGormApproverDirectory(r.db)
}

// PayrollFormulas returns the payroll formula repository.
func (r *GormRepositories) PayrollFormulas() payroll.FormulaRepository {
	return NewGormPayrollFormulaRepository(r.db)
}

// Attendances returns the attendance repository.
func (r *GormRepositories) Attendances() payroll.AttendanceRepository {
	return NewGormAttendanceRepository(r.db)
}

// Payrolls returns the payroll repository.
func (r *GormRepositories) Payrolls() payroll.PayrollRepository {
	return NewGormPayrollRepository(r.db)
}

// PurchaseOrders returns the purchase order repository.
func (r *GormRepositories) PurchaseOrders() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.db)
}

// Adjustments returns the inventory adjustment repository.
func (r *GormRepositories) Adjustments() inventory.AdjustmentRepository {
	return NewGormAdjustmentRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appshared.TransactionScope = (*GormTransactionScope)(nil)

// Ensure GormRepositories implements Repositories
var _ appshared.Repositories = (*GormRepositories)(nil)
