package production

import (
	"fmt"

	"github.com/erp/manufacturing/internal/domain/shared"
)

// Production errors. Each wraps its shared category so errors.Is matches both.
var (
	ErrOrderNotFound = fmt.Errorf("%w: production order not found", shared.ErrNotFound)
	ErrBOMNotFound   = fmt.Errorf("%w: bill of materials not found", shared.ErrNotFound)
	ErrAlreadyClosed = fmt.Errorf("%w: production order already closed", shared.ErrInvalidState)
	ErrOrderClosed   = fmt.Errorf("%w: production order no longer accepts costs", shared.ErrInvalidState)
)

// ErrProductionOrderNotFound is the backflush name for ErrOrderNotFound
var ErrProductionOrderNotFound = ErrOrderNotFound
