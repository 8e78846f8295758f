package notification

import (
	"context"
	"errors"

	appapproval "github.com/erp/manufacturing/internal/application/approval"
)

// MultiNotifier fans notifications out to every notifier. One failing
// notifier does not stop the others; their errors are joined.
type MultiNotifier struct {
	notifiers []appapproval.Notifier
}

// NewMultiNotifier skips nil notifiers
func NewMultiNotifier(notifiers ...appapproval.Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Notify implements appapproval.Notifier
func (m *MultiNotifier) Notify(ctx context.Context, notifications []appapproval.Notification) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, notifications); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of wrapped notifiers
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

var _ appapproval.Notifier = (*MultiNotifier)(nil)
