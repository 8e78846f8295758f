// Package notification delivers approval notifications to an inbox table and a Redis stream.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	appapproval "github.com/erp/manufacturing/internal/application/approval"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultInboxLimit caps inbox listings when no limit is given
const DefaultInboxLimit = 50

// GormNotificationStore writes one inbox row per recipient
type GormNotificationStore struct {
	db *gorm.DB
}

// NewGormNotificationStore creates a notification inbox backed by db
func NewGormNotificationStore(db *gorm.DB) *GormNotificationStore {
	return &GormNotificationStore{db: db}
}

// Notify implements appapproval.Notifier
func (s *GormNotificationStore) Notify(ctx context.Context, notifications []appapproval.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]*models.NotificationModel, 0, len(notifications))
	for _, n := range notifications {
		rows = append(rows, &models.NotificationModel{
			ID:           uuid.New(),
			UserID:       n.Recipient.ID,
			RequestID:    n.RequestID,
			DocumentType: n.DocumentType,
			DocumentID:   n.DocumentID,
			Role:         n.Role,
			Channel:      n.Channel,
			Title:        n.Title,
			Message:      n.Message,
			Data:         n.Data(),
			CreatedAt:    now,
		})
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("store notifications: %w", err)
	}
	return nil
}

// InboxItem is a stored notification as shown to its recipient
type InboxItem struct {
	ID           uuid.UUID         `json:"id"`
	RequestID    uuid.UUID         `json:"approval_id"`
	DocumentType string            `json:"document_type"`
	DocumentID   uuid.UUID         `json:"document_id"`
	Role         string            `json:"role"`
	Channel      string            `json:"channel"`
	Title        string            `json:"title"`
	Message      string            `json:"message"`
	Data         map[string]string `json:"data,omitempty"`
	Read         bool              `json:"read"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ListForUser returns the newest notifications of userID
func (s *GormNotificationStore) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]InboxItem, error) {
	if limit <= 0 {
		limit = DefaultInboxLimit
	}
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	var rows []models.NotificationModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	items := make([]InboxItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, InboxItem{
			ID:           r.ID,
			RequestID:    r.RequestID,
			DocumentType: string(r.DocumentType),
			DocumentID:   r.DocumentID,
			Role:         r.Role,
			Channel:      r.Channel,
			Title:        r.Title,
			Message:      r.Message,
			Data:         r.Data,
			Read:         r.ReadAt != nil,
			CreatedAt:    r.CreatedAt,
		})
	}
	return items, nil
}

// MarkRead marks one notification of userID as read. Marking twice is a no-op.
func (s *GormNotificationStore) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	var row models.NotificationModel
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: notification %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}
	if row.ReadAt != nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("id = ?", id).
		Update("read_at", time.Now()).Error
}

var _ appapproval.Notifier = (*GormNotificationStore)(nil)
