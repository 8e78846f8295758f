package approval

import (
	"fmt"

	"github.com/erp/manufacturing/internal/domain/shared"
)

// Approval errors. Each wraps its shared category so errors.Is matches both.
var (
	ErrRequestNotFound      = fmt.Errorf("%w: approval request not found", shared.ErrNotFound)
	ErrApproverNotFound     = fmt.Errorf("%w: approver not found", shared.ErrNotFound)
	ErrNotPending           = fmt.Errorf("%w: approval request is not pending", shared.ErrInvalidState)
	ErrNoChainConfigured    = fmt.Errorf("%w: no approval chain configured", shared.ErrConfigurationMissing)
	ErrPendingRequestExists = fmt.Errorf("%w: document already has a pending approval request", shared.ErrAlreadyExists)
	ErrApproverInactive     = fmt.Errorf("%w: approver is not active", shared.ErrForbidden)
	ErrStaleStep            = fmt.Errorf("%w: approval request moved to another step", shared.ErrConcurrencyConflict)
)

// RoleMismatchError is returned when the approver's role differs from the step's role.
// It matches shared.ErrRoleMismatch with errors.Is.
type RoleMismatchError struct {
	Step     int
	Required string
	Actual   string
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("step %d requires role %q, approver has %q", e.Step, e.Required, e.Actual)
}

// Is makes errors.Is(err, shared.ErrRoleMismatch) match
func (e *RoleMismatchError) Is(target error) bool {
	return target == shared.ErrRoleMismatch
}
