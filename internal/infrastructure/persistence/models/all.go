package models

// All returns every persistence model in dependency order, for AutoMigrate in tests
// and development databases.
func All() []any {
	return []any{
		&CostingRecordModel{},
		&CostingLayerModel{},
		&CostingTransactionModel{},
		&BOMModel{},
		&BOMComponentModel{},
		&ProductionOrderModel{},
		&WIPTransactionModel{},
		&BackflushRecordModel{},
		&VarianceAnalysisModel{},
		&ApprovalChainModel{},
		&ApprovalChainStepModel{},
		&ApprovalRequestModel{},
		&ApprovalEntryModel{},
		&UserModel{},
		&NotificationModel{},
		&PayrollFormulaModel{},
		&AttendanceModel{},
		&PayrollModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderLineModel{},
		&InventoryAdjustmentModel{},
	}
}
