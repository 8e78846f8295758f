package approval

import (
	"fmt"

	"github.com/erp/manufacturing/internal/domain/shared"
)

// DocumentType identifies a kind of document gated by approval
type DocumentType string

const (
	DocumentTypePurchaseOrder       DocumentType = "purchase_order"
	DocumentTypePayroll             DocumentType = "payroll"
	DocumentTypeInventoryAdjustment DocumentType = "inventory_adjustment"
)

// AllDocumentTypes returns the supported document types
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypePurchaseOrder,
		DocumentTypePayroll,
		DocumentTypeInventoryAdjustment,
	}
}

// IsValid returns true for a supported document type
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypePurchaseOrder, DocumentTypePayroll, DocumentTypeInventoryAdjustment:
		return true
	}
	return false
}

// String returns the string representation
func (t DocumentType) String() string {
	return string(t)
}

// ParseDocumentType validates a document type name
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown document type %q", shared.ErrInvalidInput, s)
	}
	return t, nil
}
