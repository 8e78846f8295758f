package models

import (
	"sort"
	"time"

	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/google/uuid"
)

// ApprovalChainModel is the persistence model for an approval chain.
type ApprovalChainModel struct {
	ID           uuid.UUID                `gorm:"type:uuid;primary_key"`
	DocumentType approval.DocumentType    `gorm:"type:varchar(50);not null;uniqueIndex:idx_approval_chain_type_version,priority:1"`
	Version      int                      `gorm:"not null;uniqueIndex:idx_approval_chain_type_version,priority:2"`
	Active       bool                     `gorm:"not null"`
	Steps        []ApprovalChainStepModel `gorm:"foreignKey:ChainID;references:ID"`
	CreatedAt    time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ApprovalChainModel) TableName() string {
	return "approval_chains"
}

// ToDomain converts the persistence model to a domain ApprovalChain with steps in order.
func (m *ApprovalChainModel) ToDomain() approval.ApprovalChain {
	steps := make([]approval.ChainStep, len(m.Steps))
	for i, s := range m.Steps {
		steps[i] = approval.ChainStep{Role: s.Role, Order: s.StepOrder, Required: s.Required}
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return approval.ApprovalChain{
		ID:           m.ID,
		DocumentType: m.DocumentType,
		Version:      m.Version,
		Active:       m.Active,
		Steps:        steps,
		CreatedAt:    m.CreatedAt,
	}
}

// ApprovalChainModelFromDomain creates a new persistence model from a domain ApprovalChain.
func ApprovalChainModelFromDomain(c *approval.ApprovalChain) *ApprovalChainModel {
	m := &ApprovalChainModel{
		ID:           c.ID,
		DocumentType: c.DocumentType,
		Version:      c.Version,
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		Steps:        make([]ApprovalChainStepModel, len(c.Steps)),
	}
	for i, s := range c.Steps {
		m.Steps[i] = ApprovalChainStepModel{
			ID:        uuid.New(),
			ChainID:   c.ID,
			StepOrder: s.Order,
			Role:      s.Role,
			Required:  s.Required,
		}
	}
	return m
}

// ApprovalChainStepModel is one ordered step of a chain.
type ApprovalChainStepModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ChainID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_approval_step_chain_order,priority:1"`
	StepOrder int       `gorm:"not null;uniqueIndex:idx_approval_step_chain_order,priority:2"`
	Role      string    `gorm:"type:varchar(100);not null"`
	Required  bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ApprovalChainStepModel) TableName() string {
	return "approval_chain_steps"
}

// ApprovalRequestModel is the persistence model for the ApprovalRequest aggregate root.
type ApprovalRequestModel struct {
	AggregateModel
	DocumentType approval.DocumentType  `gorm:"type:varchar(50);not null;index:idx_approval_request_document,priority:1"`
	DocumentID   uuid.UUID              `gorm:"type:uuid;not null;index:idx_approval_request_document,priority:2"`
	ChainID      uuid.UUID              `gorm:"type:uuid;not null"`
	CurrentStep  int                    `gorm:"not null"`
	Status       approval.RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	RequestedBy  uuid.UUID              `gorm:"type:uuid;not null"`
	CompletedAt  *time.Time             `gorm:"type:timestamp"`
	Entries      []ApprovalEntryModel   `gorm:"foreignKey:RequestID;references:ID"`
}

// TableName returns the table name for GORM
func (ApprovalRequestModel) TableName() string {
	return "approval_requests"
}

// ToDomain converts the persistence model to a domain ApprovalRequest.
// Entries are returned in the order they were recorded.
func (m *ApprovalRequestModel) ToDomain() *approval.ApprovalRequest {
	entries := make([]approval.ApprovalEntry, len(m.Entries))
	for i, e := range m.Entries {
		entries[i] = e.ToDomain()
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Step != entries[j].Step {
			return entries[i].Step < entries[j].Step
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return &approval.ApprovalRequest{
		BaseAggregateRoot: m.Root(),
		DocumentType:      m.DocumentType,
		DocumentID:        m.DocumentID,
		ChainID:           m.ChainID,
		CurrentStep:       m.CurrentStep,
		Status:            m.Status,
		RequestedBy:       m.RequestedBy,
		CompletedAt:       m.CompletedAt,
		Entries:           entries,
	}
}

// FromDomain populates the persistence model from a domain ApprovalRequest.
func (m *ApprovalRequestModel) FromDomain(r *approval.ApprovalRequest) {
	m.setRoot(r.BaseAggregateRoot)
	m.DocumentType = r.DocumentType
	m.DocumentID = r.DocumentID
	m.ChainID = r.ChainID
	m.CurrentStep = r.CurrentStep
	m.Status = r.Status
	m.RequestedBy = r.RequestedBy
	m.CompletedAt = r.CompletedAt
	m.Entries = make([]ApprovalEntryModel, len(r.Entries))
	for i := range r.Entries {
		m.Entries[i] = *ApprovalEntryModelFromDomain(&r.Entries[i])
	}
}

// ApprovalRequestModelFromDomain creates a new persistence model from a domain ApprovalRequest.
func ApprovalRequestModelFromDomain(r *approval.ApprovalRequest) *ApprovalRequestModel {
	m := &ApprovalRequestModel{}
	m.FromDomain(r)
	return m
}

// ApprovalEntryModel is one append-only decision of an approval request.
type ApprovalEntryModel struct {
	ID           uuid.UUID         `gorm:"type:uuid;primary_key"`
	RequestID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Step         int               `gorm:"not null"`
	ApproverID   uuid.UUID         `gorm:"type:uuid;not null"`
	ApproverName string            `gorm:"type:varchar(200)"`
	Role         string            `gorm:"type:varchar(100);not null"`
	Decision     approval.Decision `gorm:"type:varchar(20);not null"`
	Notes        string            `gorm:"type:text"`
	CreatedAt    time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ApprovalEntryModel) TableName() string {
	return "approval_entries"
}

// ToDomain converts the persistence model to a domain ApprovalEntry.
func (m *ApprovalEntryModel) ToDomain() approval.ApprovalEntry {
	return approval.ApprovalEntry{
		ID:           m.ID,
		RequestID:    m.RequestID,
		Step:         m.Step,
		ApproverID:   m.ApproverID,
		ApproverName: m.ApproverName,
		Role:         m.Role,
		Decision:     m.Decision,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}
}

// ApprovalEntryModelFromDomain creates a new persistence model from a domain ApprovalEntry.
func ApprovalEntryModelFromDomain(e *approval.ApprovalEntry) *ApprovalEntryModel {
	return &ApprovalEntryModel{
		ID:           e.ID,
		RequestID:    e.RequestID,
		Step:         e.Step,
		ApproverID:   e.ApproverID,
		ApproverName: e.ApproverName,
		Role:         e.Role,
		Decision:     e.Decision,
		Notes:        e.Notes,
		CreatedAt:    e.CreatedAt,
	}
}

// UserModel is the read-side view of the users table used by the approver directory.
type UserModel struct {
	BaseModel
	Name   string `gorm:"type:varchar(200);not null"`
	Email  string `gorm:"type:varchar(200);uniqueIndex"`
	Role   string `gorm:"type:varchar(100);not null;index"`
	Active bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain Approver.
func (m *UserModel) ToDomain() approval.Approver {
	return approval.Approver{
		ID:     m.ID,
		Name:   m.Name,
		Email:  m.Email,
		Role:   m.Role,
		Active: m.Active,
	}
}

// NotificationModel is one inbox row written for an approval notification.
type NotificationModel struct {
	ID           uuid.UUID             `gorm:"type:uuid;primary_key"`
	UserID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	RequestID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	DocumentType approval.DocumentType `gorm:"type:varchar(50);not null"`
	DocumentID   uuid.UUID             `gorm:"type:uuid;not null"`
	Role         string                `gorm:"type:varchar(100);not null"`
	Channel      string                `gorm:"type:varchar(20);not null"`
	Title        string                `gorm:"type:varchar(200);not null"`
	Message      string                `gorm:"type:text;not null"`
	Data         map[string]string     `gorm:"type:jsonb;serializer:json"`
	ReadAt       *time.Time            `gorm:"type:timestamp"`
	CreatedAt    time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}
