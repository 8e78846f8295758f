package handler

import (
	"context"

	"github.com/erp/manufacturing/internal/infrastructure/notification"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NotificationInbox reads and acknowledges stored approval notifications
type NotificationInbox interface {
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]notification.InboxItem, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

// NotificationHandler serves the acting user's notification inbox
type NotificationHandler struct {
	BaseHandler
	inbox NotificationInbox
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(inbox NotificationInbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// List returns the acting user's notifications, newest first
// GET /notifications?unread=true&limit=
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	items, err := h.inbox.ListForUser(c.Request.Context(), actor, c.Query("unread") == "true",
		queryInt(c, "limit", notification.DefaultInboxLimit))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// MarkRead acknowledges one notification
// POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.InvalidID(c, "notification ID")
		return
	}
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	if err := h.inbox.MarkRead(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id, "read": true})
}
