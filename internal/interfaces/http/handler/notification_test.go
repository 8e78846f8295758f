package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/notification"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInbox struct {
	items      []notification.InboxItem
	gotUser    uuid.UUID
	gotUnread  bool
	gotLimit   int
	markedRead []uuid.UUID
}

func (s *stubInbox) ListForUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]notification.InboxItem, error) {
	s.gotUser, s.gotUnread, s.gotLimit = userID, unreadOnly, limit
	return s.items, nil
}

func (s *stubInbox) MarkRead(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	for _, item := range s.items {
		if item.ID == id {
			s.markedRead = append(s.markedRead, id)
			return nil
		}
	}
	return shared.ErrNotFound
}

func notificationEngine(inbox NotificationInbox) *gin.Engine {
	h := NewNotificationHandler(inbox)
	engine := newTestEngine()
	engine.GET("/notifications", h.List)
	engine.POST("/notifications/:id/read", h.MarkRead)
	return engine
}

func TestNotificationHandler_List(t *testing.T) {
	inbox := &stubInbox{items: []notification.InboxItem{{ID: uuid.New(), Title: "Approval needed", DocumentType: "payroll"}}}
	engine := notificationEngine(inbox)

	res := perform(t, engine, http.MethodGet, "/notifications", nil, testActor)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, testActor, inbox.gotUser.String())
	assert.False(t, inbox.gotUnread)
	assert.Equal(t, notification.DefaultInboxLimit, inbox.gotLimit)

	var items []notification.InboxItem
	res.data(t, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Approval needed", items[0].Title)

	res = perform(t, engine, http.MethodGet, "/notifications?unread=true&limit=5", nil, testActor)
	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, inbox.gotUnread)
	assert.Equal(t, 5, inbox.gotLimit)

	assert.Equal(t, http.StatusUnauthorized, perform(t, engine, http.MethodGet, "/notifications", nil, "").Code)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	id := uuid.New()
	inbox := &stubInbox{items: []notification.InboxItem{{ID: id}}}
	engine := notificationEngine(inbox)

	res := perform(t, engine, http.MethodPost, "/notifications/"+id.String()+"/read", nil, testActor)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, []uuid.UUID{id}, inbox.markedRead)

	res = perform(t, engine, http.MethodPost, "/notifications/"+uuid.NewString()+"/read", nil, testActor)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = perform(t, engine, http.MethodPost, "/notifications/latest/read", nil, testActor)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestHealthHandler(t *testing.T) {
	var failing error
	h := NewHealthHandler(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return failing },
		"disabled": nil,
	})
	engine := gin.New()
	engine.GET("/health", h.Health)

	res := perform(t, engine, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Raw, `"status":"healthy"`)
	assert.Contains(t, res.Raw, `"redis":"ok"`)
	assert.NotContains(t, res.Raw, "disabled")

	failing = errors.New("dial tcp: connection refused")
	res = perform(t, engine, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Contains(t, res.Raw, `"status":"unhealthy"`)
	assert.Contains(t, res.Raw, "connection refused")
}
