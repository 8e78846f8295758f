package persistence

import (
	"context"

	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormApprovalChainRepository implements ChainRepository using GORM
type GormApprovalChainRepository struct {
	db *gorm.DB
}

// NewGormApprovalChainRepository creates a new GormApprovalChainRepository
func NewGormApprovalChainRepository(db *gorm.DB) *GormApprovalChainRepository {
	return &GormApprovalChainRepository{db: db}
}

// FindAll returns every chain with its steps
func (r *GormApprovalChainRepository) FindAll(ctx context.Context) ([]approval.ApprovalChain, error) {
	var rows []models.ApprovalChainModel
	if err := r.db.WithContext(ctx).
		Preload("Steps").
		Order("document_type ASC, version ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]approval.ApprovalChain, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a chain and its steps
func (r *GormApprovalChainRepository) Create(ctx context.Context, chain *approval.ApprovalChain) error {
	if err := r.db.WithContext(ctx).Create(models.ApprovalChainModelFromDomain(chain)).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

var _ approval.ChainRepository = (*GormApprovalChainRepository)(nil)

// GormApprovalRequestRepository implements RequestRepository using GORM
type GormApprovalRequestRepository struct {
	db *gorm.DB
}

// NewGormApprovalRequestRepository creates a new GormApprovalRequestRepository
func NewGormApprovalRequestRepository(db *gorm.DB) *GormApprovalRequestRepository {
	return &GormApprovalRequestRepository{db: db}
}

// FindByID loads a request with its entries
func (r *GormApprovalRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*approval.ApprovalRequest, error) {
	var model models.ApprovalRequestModel
	if err := r.db.WithContext(ctx).
		Preload("Entries").
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateFindError(err, approval.ErrRequestNotFound)
	}
	return model.ToDomain(), nil
}

// FindPendingByDocument returns the pending request of a document
func (r *GormApprovalRequestRepository) FindPendingByDocument(ctx context.Context, docType approval.DocumentType, documentID uuid.UUID) (*approval.ApprovalRequest, error) {
	var model models.ApprovalRequestModel
	if err := r.db.WithContext(ctx).
		Preload("Entries").
		Where("document_type = ? AND document_id = ? AND status = ?", docType, documentID, approval.StatusPending).
		First(&model).Error; err != nil {
		return nil, translateFindError(err, approval.ErrRequestNotFound)
	}
	return model.ToDomain(), nil
}

// FindPending lists pending requests, oldest first
func (r *GormApprovalRequestRepository) FindPending(ctx context.Context, limit int) ([]approval.ApprovalRequest, error) {
	var rows []models.ApprovalRequestModel
	if err := r.db.WithContext(ctx).
		Preload("Entries").
		Where("status = ?", approval.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]approval.ApprovalRequest, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new request. The partial unique index on pending requests
// turns a concurrent duplicate into shared.ErrAlreadyExists.
func (r *GormApprovalRequestRepository) Create(ctx context.Context, request *approval.ApprovalRequest) error {
	if err := r.db.WithContext(ctx).Create(models.ApprovalRequestModelFromDomain(request)).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

// SaveWithLock updates the request header with optimistic locking and appends
// entries that are not stored yet. Stored entries are never rewritten.
func (r *GormApprovalRequestRepository) SaveWithLock(ctx context.Context, request *approval.ApprovalRequest) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.ApprovalRequestModel{}).
		Where("id = ? AND version = ?", request.ID, request.Version-1).
		Updates(map[string]interface{}{
			"current_step": request.CurrentStep,
			"status":       request.Status,
			"completed_at": request.CompletedAt,
			"version":      request.Version,
			"updated_at":   request.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	if len(request.Entries) == 0 {
		return nil
	}
	entries := make([]*models.ApprovalEntryModel, len(request.Entries))
	for i := range request.Entries {
		entries[i] = models.ApprovalEntryModelFromDomain(&request.Entries[i])
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entries).Error
}

var _ approval.RequestRepository = (*GormApprovalRequestRepository)(nil)

// GormApproverDirectory implements ApproverDirectory on the users table
type GormApproverDirectory struct {
	db *gorm.DB
}

// NewGormApproverDirectory creates a new GormApproverDirectory
func NewGormApproverDirectory(db *gorm.DB) *GormApproverDirectory {
	return &GormApproverDirectory{db: db}
}

// FindByID returns a user by ID
func (r *GormApproverDirectory) FindByID(ctx context.Context, id uuid.UUID) (*approval.Approver, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateFindError(err, approval.ErrApproverNotFound)
	}
	a := model.ToDomain()
	return &a, nil
}

// FindActiveByRole lists active users holding exactly role
func (r *GormApproverDirectory) FindActiveByRole(ctx context.Context, role string) ([]approval.Approver, error) {
	var rows []models.UserModel
	if err := r.db.WithContext(ctx).
		Where("role = ? AND active = ?", role, true).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]approval.Approver, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ approval.ApproverDirectory = (*GormApproverDirectory)(nil)
