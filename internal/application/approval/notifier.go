package approval

import (
	"context"
	"fmt"

	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/google/uuid"
)

// ChannelEmail is the channel recorded on approval notifications
const ChannelEmail = "email"

// Notification asks one user to act on an approval request
type Notification struct {
	RequestID    uuid.UUID
	DocumentType approval.DocumentType
	DocumentID   uuid.UUID
	Role         string
	Recipient    approval.Approver
	Channel      string
	Title        string
	Message      string
}

// Data is the structured payload stored with the notification
func (n Notification) Data() map[string]string {
	return map[string]string{
		"approval_id":   n.RequestID.String(),
		"document_type": string(n.DocumentType),
		"document_id":   n.DocumentID.String(),
	}
}

// Notifier delivers approval notifications. Delivery is fire-and-forget:
// the service logs failures and never returns them to the caller.
type Notifier interface {
	Notify(ctx context.Context, notifications []Notification) error
}

// NewApprovalRequiredNotifications builds one notification per recipient
func NewApprovalRequiredNotifications(req *approval.ApprovalRequest, role string, recipients []approval.Approver) []Notification {
	out := make([]Notification, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, Notification{
			RequestID:    req.ID,
			DocumentType: req.DocumentType,
			DocumentID:   req.DocumentID,
			Role:         role,
			Recipient:    r,
			Channel:      ChannelEmail,
			Title:        fmt.Sprintf("Approval Required: %s", req.DocumentType),
			Message:      fmt.Sprintf("Please review and approve %s (ID: %s)", req.DocumentType, req.DocumentID),
		})
	}
	return out
}
