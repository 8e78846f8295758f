// Package models holds the GORM row types behind the repositories. The domain
// layer never sees them:
// - models carry the GORM tags and table names
// - ToDomain / FromDomain convert in both directions
//
// Structure:
// - base.go: identity, timestamps and the optimistic locking version
// - costing.go: costing records, FIFO layers and the costing transaction log
// - production.go: production orders, BOMs, WIP log, backflush records, variances
// - approval.go: approval chains, requests, entries, users and notifications
// - payroll.go: payroll formulas, attendance, payrolls
// - trade.go: purchase orders
// - inventory.go: inventory adjustments
package models
