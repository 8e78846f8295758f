package persistence

import (
	"context"
	"time"

	"github.com/erp/manufacturing/internal/domain/payroll"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPayrollFormulaRepository implements FormulaRepository using GORM
type GormPayrollFormulaRepository struct {
	db *gorm.DB
}

// NewGormPayrollFormulaRepository creates a new GormPayrollFormulaRepository
func NewGormPayrollFormulaRepository(db *gorm.DB) *GormPayrollFormulaRepository {
	return &GormPayrollFormulaRepository{db: db}
}

// FindByID finds a formula by its ID
func (r *GormPayrollFormulaRepository) FindByID(ctx context.Context, id uuid.UUID) (*payroll.PayrollFormula, error) {
	var model models.PayrollFormulaModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateFindError(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// Create inserts a formula
func (r *GormPayrollFormulaRepository) Create(ctx context.Context, f *payroll.PayrollFormula) error {
	if err := r.db.WithContext(ctx).Create(models.PayrollFormulaModelFromDomain(f)).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

var _ payroll.FormulaRepository = (*GormPayrollFormulaRepository)(nil)

// GormAttendanceRepository implements AttendanceRepository using GORM
type GormAttendanceRepository struct {
	db *gorm.DB
}

// NewGormAttendanceRepository creates a new GormAttendanceRepository
func NewGormAttendanceRepository(db *gorm.DB) *GormAttendanceRepository {
	return &GormAttendanceRepository{db: db}
}

// Create inserts an attendance record; one per employee and day
func (r *GormAttendanceRepository) Create(ctx context.Context, a *payroll.Attendance) error {
	if err := r.db.WithContext(ctx).Create(models.AttendanceModelFromDomain(a)).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

// FindByEmployeeBetween returns records with from <= date < to, oldest first
func (r *GormAttendanceRepository) FindByEmployeeBetween(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]payroll.Attendance, error) {
	var rows []models.AttendanceModel
	if err := r.db.WithContext(ctx).
		Where("employee_id = ? AND date >= ? AND date < ?", employeeID, from, to).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]payroll.Attendance, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ payroll.AttendanceRepository = (*GormAttendanceRepository)(nil)

// GormPayrollRepository implements PayrollRepository using GORM
type GormPayrollRepository struct {
	db *gorm.DB
}

// NewGormPayrollRepository creates a new GormPayrollRepository
func NewGormPayrollRepository(db *gorm.DB) *GormPayrollRepository {
	return &GormPayrollRepository{db: db}
}

// FindByID finds a payroll by its ID
func (r *GormPayrollRepository) FindByID(ctx context.Context, id uuid.UUID) (*payroll.Payroll, error) {
	var model models.PayrollModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateFindError(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// Create inserts a payroll
func (r *GormPayrollRepository) Create(ctx context.Context, p *payroll.Payroll) error {
	if err := r.db.WithContext(ctx).Create(models.PayrollModelFromDomain(p)).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormPayrollRepository) SaveWithLock(ctx context.Context, p *payroll.Payroll) error {
	result := r.db.WithContext(ctx).
		Model(&models.PayrollModel{}).
		Where("id = ? AND version = ?", p.ID, p.Version-1).
		Updates(map[string]interface{}{
			"state":       p.State,
			"approved_at": p.ApprovedAt,
			"version":     p.Version,
			"updated_at":  p.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ payroll.PayrollRepository = (*GormPayrollRepository)(nil)
