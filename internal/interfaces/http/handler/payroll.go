package handler

import (
	"context"
	"time"

	apppayroll "github.com/erp/manufacturing/internal/application/payroll"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayrollService is the payroll application service as seen by the HTTP layer
type PayrollService interface {
	CreateFormula(ctx context.Context, req apppayroll.CreateFormulaRequest) (*apppayroll.FormulaResponse, error)
	RecordAttendance(ctx context.Context, req apppayroll.RecordAttendanceRequest) (*apppayroll.AttendanceResponse, error)
	Calculate(ctx context.Context, req apppayroll.CalculateRequest) (*apppayroll.PayrollResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*apppayroll.PayrollResponse, error)
	Submit(ctx context.Context, id, requestedBy uuid.UUID) (*apppayroll.PayrollResponse, error)
	EvaluateDryRun(req apppayroll.EvaluateRequest) *apppayroll.EvaluateResponse
}

// PayrollHandler handles payroll endpoints
type PayrollHandler struct {
	BaseHandler
	payrollService PayrollService
}

// NewPayrollHandler creates a new PayrollHandler
func NewPayrollHandler(payrollService PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollService: payrollService}
}

// CreateFormulaRequest defines a gross salary formula
type CreateFormulaRequest struct {
	Code       string `json:"code" binding:"required,max=50" example:"STD"`
	Name       string `json:"name" binding:"required,max=200" example:"Standard monthly"`
	Expression string `json:"expression" binding:"required" example:"basic_salary / working_days * present_days + overtime_hours * 20"`
}

// RecordAttendanceRequest records one attendance day
type RecordAttendanceRequest struct {
	EmployeeID    uuid.UUID       `json:"employee_id" binding:"required"`
	Date          string          `json:"date" binding:"required,datetime=2006-01-02" example:"2026-10-01"`
	Status        string          `json:"status" binding:"required,oneof=present absent half_day leave holiday" example:"present"`
	HoursWorked   decimal.Decimal `json:"hours_worked" binding:"decimal_gte0" example:"8"`
	OvertimeHours decimal.Decimal `json:"overtime_hours" binding:"decimal_gte0" example:"1.5"`
	Notes         string          `json:"notes" binding:"max=500"`
}

// CalculatePayrollRequest computes a payroll for one employee and month
type CalculatePayrollRequest struct {
	EmployeeID  uuid.UUID       `json:"employee_id" binding:"required"`
	Period      string          `json:"period" binding:"required,datetime=2006-01" example:"2026-10"`
	BasicSalary decimal.Decimal `json:"basic_salary" binding:"decimal_gte0" example:"3000"`
	FormulaID   *uuid.UUID      `json:"formula_id"`
}

// EvaluateFormulaRequest is a dry run of an expression
type EvaluateFormulaRequest struct {
	Expression    string          `json:"expression" binding:"required"`
	BasicSalary   decimal.Decimal `json:"basic_salary" binding:"decimal_gte0"`
	PresentDays   decimal.Decimal `json:"present_days" binding:"decimal_gte0"`
	WorkingDays   decimal.Decimal `json:"working_days" binding:"decimal_gte0"`
	OvertimeHours decimal.Decimal `json:"overtime_hours" binding:"decimal_gte0"`
}

// CreateFormula stores a new formula after compiling it
// POST /payroll/formulas
func (h *PayrollHandler) CreateFormula(c *gin.Context) {
	var req CreateFormulaRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.payrollService.CreateFormula(c.Request.Context(), apppayroll.CreateFormulaRequest{
		Code:       req.Code,
		Name:       req.Name,
		Expression: req.Expression,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// EvaluateFormula evaluates an expression without storing anything. An
// invalid expression still answers 200 with the fallback and its error.
// POST /payroll/formulas/evaluate
func (h *PayrollHandler) EvaluateFormula(c *gin.Context) {
	var req EvaluateFormulaRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.Success(c, h.payrollService.EvaluateDryRun(apppayroll.EvaluateRequest{
		Expression:    req.Expression,
		BasicSalary:   req.BasicSalary,
		PresentDays:   req.PresentDays,
		WorkingDays:   req.WorkingDays,
		OvertimeHours: req.OvertimeHours,
	}))
}

// RecordAttendance records one attendance day
// POST /payroll/attendance
func (h *PayrollHandler) RecordAttendance(c *gin.Context) {
	var req RecordAttendanceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		h.BadRequest(c, "date must be YYYY-MM-DD")
		return
	}
	resp, err := h.payrollService.RecordAttendance(c.Request.Context(), apppayroll.RecordAttendanceRequest{
		EmployeeID:    req.EmployeeID,
		Date:          date,
		Status:        req.Status,
		HoursWorked:   req.HoursWorked,
		OvertimeHours: req.OvertimeHours,
		Notes:         req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Calculate computes and stores a draft payroll
// POST /payroll/calculate
func (h *PayrollHandler) Calculate(c *gin.Context) {
	var req CalculatePayrollRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.payrollService.Calculate(c.Request.Context(), apppayroll.CalculateRequest{
		EmployeeID:  req.EmployeeID,
		Period:      req.Period,
		BasicSalary: req.BasicSalary,
		FormulaID:   req.FormulaID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns a payroll
// GET /payroll/:id
func (h *PayrollHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.InvalidID(c, "payroll ID")
		return
	}
	resp, err := h.payrollService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit sends a draft payroll for approval
// POST /payroll/:id/submit
func (h *PayrollHandler) Submit(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.InvalidID(c, "payroll ID")
		return
	}
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	resp, err := h.payrollService.Submit(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
