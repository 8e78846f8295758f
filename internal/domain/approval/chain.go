package approval

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
)

// Role names used by the default chains
const (
	RoleProductionManager = "Production Manager"
	RoleAccountant        = "Accountant"
	RoleAdmin             = "Admin"
	RoleHROfficer         = "HR Officer"
	RoleCEO               = "CEO/Viewer"
	RoleInventoryOfficer  = "Inventory Officer"
)

// ChainStep is one required approver role in a chain
type ChainStep struct {
	Role     string
	Order    int
	Required bool
}

// ApprovalChain is the ordered sequence of approver roles for a document type
type ApprovalChain struct {
	ID           uuid.UUID
	DocumentType DocumentType
	Version      int
	Active       bool
	Steps        []ChainStep
	CreatedAt    time.Time
}

// NewApprovalChain builds an active chain from roles in approval order
func NewApprovalChain(docType DocumentType, version int, roles ...string) (*ApprovalChain, error) {
	steps := make([]ChainStep, len(roles))
	for i, role := range roles {
		steps[i] = ChainStep{Role: role, Order: i, Required: true}
	}
	c := &ApprovalChain{
		ID:           uuid.New(),
		DocumentType: docType,
		Version:      version,
		Active:       true,
		Steps:        steps,
		CreatedAt:    time.Now(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the document type, the version and that step orders run 0..n-1
func (c *ApprovalChain) Validate() error {
	if !c.DocumentType.IsValid() {
		return fmt.Errorf("%w: unknown document type %q", shared.ErrInvalidInput, c.DocumentType)
	}
	if c.Version < 1 {
		return fmt.Errorf("%w: chain version must be at least 1", shared.ErrInvalidInput)
	}
	if len(c.Steps) == 0 {
		return fmt.Errorf("%w: chain for %s has no steps", shared.ErrInvalidInput, c.DocumentType)
	}
	for i, s := range c.Steps {
		if s.Order != i {
			return fmt.Errorf("%w: step %d has order %d, expected %d", shared.ErrInvalidInput, i, s.Order, i)
		}
		if strings.TrimSpace(s.Role) == "" {
			return fmt.Errorf("%w: step %d has no role", shared.ErrInvalidInput, i)
		}
	}
	return nil
}

// LastStep returns the index of the final step
func (c *ApprovalChain) LastStep() int {
	return len(c.Steps) - 1
}

// RoleAt returns the role required at step
func (c *ApprovalChain) RoleAt(step int) (string, error) {
	if step < 0 || step >= len(c.Steps) {
		return "", fmt.Errorf("%w: step %d outside chain of %d steps", shared.ErrDataIntegrity, step, len(c.Steps))
	}
	return c.Steps[step].Role, nil
}

// HasRole reports whether any step of the chain requires role
func (c *ApprovalChain) HasRole(role string) bool {
	for _, s := range c.Steps {
		if s.Role == role {
			return true
		}
	}
	return false
}

// ChainDefinition is a seedable chain configuration
type ChainDefinition struct {
	DocumentType DocumentType
	Roles        []string
}

// DefaultChainDefinitions returns the chains seeded into an empty database
func DefaultChainDefinitions() []ChainDefinition {
	return []ChainDefinition{
		{DocumentType: DocumentTypePurchaseOrder, Roles: []string{RoleProductionManager, RoleAccountant, RoleAdmin}},
		{DocumentType: DocumentTypePayroll, Roles: []string{RoleHROfficer, RoleAccountant, RoleCEO}},
		{DocumentType: DocumentTypeInventoryAdjustment, Roles: []string{RoleInventoryOfficer, RoleAdmin}},
	}
}
