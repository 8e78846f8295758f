package payroll

import (
	"context"
	"fmt"
	"time"

	appapproval "github.com/erp/manufacturing/internal/application/approval"
	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/payroll"
	"github.com/erp/manufacturing/internal/domain/payroll/formula"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ApprovalRequester starts approval of a document
type ApprovalRequester interface {
	CreateRequest(ctx context.Context, cmd appapproval.CreateRequestCommand) (*appapproval.RequestResponse, error)
}

// Config holds the payroll settings
type Config struct {
	DeductionRate decimal.Decimal
	Limits        formula.Limits
}

// Service computes payrolls from attendance and stored formulas
type Service struct {
	repos     appshared.Repositories
	approvals ApprovalRequester
	logger    *zap.Logger
	cfg       Config
}

// NewService creates a new payroll Service
func NewService(repos appshared.Repositories, approvals ApprovalRequester, logger *zap.Logger, cfg Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DeductionRate.IsZero() {
		cfg.DeductionRate = payroll.DefaultDeductionRate
	}
	if cfg.Limits.MaxLength <= 0 || cfg.Limits.MaxDepth <= 0 {
		def := formula.DefaultLimits()
		if cfg.Limits.MaxLength <= 0 {
			cfg.Limits.MaxLength = def.MaxLength
		}
		if cfg.Limits.MaxDepth <= 0 {
			cfg.Limits.MaxDepth = def.MaxDepth
		}
	}
	return &Service{repos: repos, approvals: approvals, logger: logger, cfg: cfg}
}

// CreateFormula stores a formula after compiling it
func (s *Service) CreateFormula(ctx context.Context, req CreateFormulaRequest) (*FormulaResponse, error) {
	f, err := payroll.NewPayrollFormula(req.Code, req.Name, req.Expression, s.cfg.Limits)
	if err != nil {
		return nil, err
	}
	if err := s.repos.PayrollFormulas().Create(ctx, f); err != nil {
		return nil, err
	}
	return toFormulaResponse(f), nil
}

// RecordAttendance stores one attendance day
func (s *Service) RecordAttendance(ctx context.Context, req RecordAttendanceRequest) (*AttendanceResponse, error) {
	a, err := payroll.NewAttendance(req.EmployeeID, req.Date, payroll.AttendanceStatus(req.Status), req.HoursWorked, req.OvertimeHours, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Attendances().Create(ctx, a); err != nil {
		return nil, err
	}
	return toAttendanceResponse(a), nil
}

// Calculate aggregates the period's attendance, evaluates the formula and
// stores a draft payroll. Formula errors never fail the calculation; the
// payroll records the fallback instead.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (*PayrollResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payroll", "calculate",
		telemetry.WithAttribute("employee_id", req.EmployeeID.String()),
		telemetry.WithAttribute("period", req.Period))
	defer span.End()

	period, err := payroll.ParsePeriod(req.Period)
	if err != nil {
		return nil, err
	}

	var f *payroll.PayrollFormula
	if req.FormulaID != nil {
		f, err = s.repos.PayrollFormulas().FindByID(ctx, *req.FormulaID)
		if err != nil {
			return nil, err
		}
		if !f.Active {
			return nil, fmt.Errorf("%w: formula %s is inactive", shared.ErrInvalidState, f.Code)
		}
	}

	records, err := s.repos.Attendances().FindByEmployeeBetween(ctx, req.EmployeeID, period.Start(), period.End())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	p, err := payroll.NewPayroll(payroll.Calculation{
		EmployeeID:    req.EmployeeID,
		Period:        period,
		BasicSalary:   req.BasicSalary,
		Attendance:    payroll.Summarize(records),
		Formula:       f,
		DeductionRate: s.cfg.DeductionRate,
		Limits:        s.cfg.Limits,
	})
	if err != nil {
		return nil, err
	}
	if p.FormulaFellBack {
		s.logger.Warn("payroll formula failed, using basic salary",
			zap.String("employee_id", req.EmployeeID.String()),
			zap.String("period", p.Period),
			zap.String("formula_error", p.FormulaError))
	}

	if err := s.repos.Payrolls().Create(ctx, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("payroll calculated",
		zap.String("payroll_id", p.ID.String()),
		zap.String("gross", p.GrossSalary.String()),
		zap.String("net", p.NetSalary.String()))
	return ToPayrollResponse(p), nil
}

// Get returns one payroll
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*PayrollResponse, error) {
	p, err := s.repos.Payrolls().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToPayrollResponse(p), nil
}

// Submit sends the payroll through its approval chain
func (s *Service) Submit(ctx context.Context, id, requestedBy uuid.UUID) (*PayrollResponse, error) {
	req, err := s.approvals.CreateRequest(ctx, appapproval.CreateRequestCommand{
		DocumentType: string(approval.DocumentTypePayroll),
		DocumentID:   id,
		RequestedBy:  requestedBy,
	})
	if err != nil {
		return nil, err
	}
	resp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp.ApprovalRequestID = &req.ID
	return resp, nil
}

// EvaluateDryRun evaluates an expression without storing anything
func (s *Service) EvaluateDryRun(req EvaluateRequest) *EvaluateResponse {
	res := formula.EvaluateWithFallback(req.Expression, formula.Variables{
		BasicSalary:   req.BasicSalary,
		PresentDays:   req.PresentDays,
		WorkingDays:   req.WorkingDays,
		OvertimeHours: req.OvertimeHours,
	}, s.cfg.Limits)
	out := &EvaluateResponse{Gross: res.Gross, FellBack: res.FellBack}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// ApprovalHandler moves payrolls through approval outcomes
type ApprovalHandler struct{}

// NewApprovalHandler creates the payroll approval handler
func NewApprovalHandler() *ApprovalHandler {
	return &ApprovalHandler{}
}

// DocumentType implements appapproval.DocumentHandler
func (h *ApprovalHandler) DocumentType() approval.DocumentType {
	return approval.DocumentTypePayroll
}

// Submit implements appapproval.DocumentHandler
func (h *ApprovalHandler) Submit(ctx context.Context, repos appshared.Repositories, id uuid.UUID) error {
	return h.update(ctx, repos, id, (*payroll.Payroll).Submit)
}

// Finalize implements appapproval.DocumentHandler
func (h *ApprovalHandler) Finalize(ctx context.Context, repos appshared.Repositories, id uuid.UUID, now time.Time) ([]shared.DomainEvent, error) {
	return nil, h.update(ctx, repos, id, func(p *payroll.Payroll) error { return p.Approve(now) })
}

// Cancel implements appapproval.DocumentHandler
func (h *ApprovalHandler) Cancel(ctx context.Context, repos appshared.Repositories, id uuid.UUID) error {
	return h.update(ctx, repos, id, (*payroll.Payroll).Cancel)
}

func (h *ApprovalHandler) update(ctx context.Context, repos appshared.Repositories, id uuid.UUID, apply func(*payroll.Payroll) error) error {
	p, err := repos.Payrolls().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := apply(p); err != nil {
		return err
	}
	return repos.Payrolls().SaveWithLock(ctx, p)
}

var _ appapproval.DocumentHandler = (*ApprovalHandler)(nil)
