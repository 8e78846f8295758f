package router

import (
	"github.com/erp/manufacturing/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers mounted under /api/<version>
type Handlers struct {
	Costing       *handler.CostingHandler
	Production    *handler.ProductionHandler
	Approval      *handler.ApprovalHandler
	Payroll       *handler.PayrollHandler
	Documents     *handler.DocumentHandler
	Notifications *handler.NotificationHandler
}

// Groups builds the domain route groups. Nil handlers are skipped.
func Groups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if h.Costing != nil {
		costing := NewDomainGroup("costing", "/costing")
		costing.POST("/receipts", h.Costing.RecordReceipt)
		costing.POST("/issues", h.Costing.RecordIssue)
		costing.POST("/records", h.Costing.Initialize)
		costing.GET("/records/:product_id/:warehouse_id", h.Costing.GetValuation)
		costing.GET("/records/:product_id/:warehouse_id/transactions", h.Costing.ListTransactions)
		groups = append(groups, costing)
	}

	if h.Production != nil {
		production := NewDomainGroup("production", "/production")
		production.POST("/boms", h.Production.CreateBOM)
		orders := production.Group("orders", "/orders")
		orders.POST("", h.Production.CreateOrder)
		orders.GET("/:id", h.Production.GetOrder)
		orders.POST("/:id/start", h.Production.Start)
		orders.POST("/:id/cancel", h.Production.Cancel)
		orders.POST("/:id/wip", h.Production.PostCost)
		orders.GET("/:id/wip", h.Production.ListWIP)
		orders.POST("/:id/close", h.Production.Close)
		orders.POST("/:id/backflush/preview", h.Production.PreviewBackflush)
		orders.POST("/:id/backflush", h.Production.ApplyBackflush)
		orders.GET("/:id/variances", h.Production.ListVariances)
		groups = append(groups, production)
	}

	if h.Approval != nil {
		approvals := NewDomainGroup("approval", "/approvals")
		approvals.POST("", h.Approval.Create)
		approvals.GET("/pending", h.Approval.ListPending)
		approvals.GET("/:id", h.Approval.Get)
		approvals.POST("/:id/approve", h.Approval.Approve)
		approvals.POST("/:id/reject", h.Approval.Reject)
		groups = append(groups, approvals)
	}

	if h.Payroll != nil {
		payroll := NewDomainGroup("payroll", "/payroll")
		payroll.POST("/formulas", h.Payroll.CreateFormula)
		payroll.POST("/formulas/evaluate", h.Payroll.EvaluateFormula)
		payroll.POST("/attendance", h.Payroll.RecordAttendance)
		payroll.POST("/calculate", h.Payroll.Calculate)
		payroll.GET("/:id", h.Payroll.Get)
		payroll.POST("/:id/submit", h.Payroll.Submit)
		groups = append(groups, payroll)
	}

	if h.Documents != nil {
		purchaseOrders := NewDomainGroup("purchase_orders", "/purchase-orders")
		purchaseOrders.POST("", h.Documents.CreatePurchaseOrder)
		purchaseOrders.GET("/:id", h.Documents.GetPurchaseOrder)
		purchaseOrders.POST("/:id/submit", h.Documents.SubmitPurchaseOrder)
		purchaseOrders.POST("/:id/receive", h.Documents.ReceivePurchaseOrder)

		adjustments := NewDomainGroup("inventory_adjustments", "/inventory-adjustments")
		adjustments.POST("", h.Documents.CreateAdjustment)
		adjustments.GET("/:id", h.Documents.GetAdjustment)
		adjustments.POST("/:id/submit", h.Documents.SubmitAdjustment)
		groups = append(groups, purchaseOrders, adjustments)
	}

	if h.Notifications != nil {
		notifications := NewDomainGroup("notifications", "/notifications")
		notifications.GET("", h.Notifications.List)
		notifications.POST("/:id/read", h.Notifications.MarkRead)
		groups = append(groups, notifications)
	}

	return groups
}

// RegisterAll registers every group built from h
func (r *Router) RegisterAll(h Handlers) *Router {
	return r.Register(Groups(h)...)
}
