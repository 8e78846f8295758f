package notification

import (
	"context"
	"fmt"

	appapproval "github.com/erp/manufacturing/internal/application/approval"
	"github.com/redis/go-redis/v9"
)

// DefaultStreamMaxLen bounds the stream with approximate trimming
const DefaultStreamMaxLen = 10000

// RedisStreamNotifier appends one stream entry per notification so
// external mail or chat workers can deliver them
type RedisStreamNotifier struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewRedisStreamNotifier creates a notifier writing to stream
func NewRedisStreamNotifier(client redis.Cmdable, stream string, maxLen int64) *RedisStreamNotifier {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &RedisStreamNotifier{client: client, stream: stream, maxLen: maxLen}
}

// Notify implements appapproval.Notifier. All entries go out in one pipeline.
func (n *RedisStreamNotifier) Notify(ctx context.Context, notifications []appapproval.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	_, err := n.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, msg := range notifications {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: n.stream,
				MaxLen: n.maxLen,
				Approx: true,
				Values: streamValues(msg),
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("xadd %s: %w", n.stream, err)
	}
	return nil
}

func streamValues(n appapproval.Notification) map[string]any {
	return map[string]any{
		"approval_id":   n.RequestID.String(),
		"document_type": string(n.DocumentType),
		"document_id":   n.DocumentID.String(),
		"role":          n.Role,
		"user_id":       n.Recipient.ID.String(),
		"email":         n.Recipient.Email,
		"channel":       n.Channel,
		"title":         n.Title,
		"message":       n.Message,
	}
}

var _ appapproval.Notifier = (*RedisStreamNotifier)(nil)
