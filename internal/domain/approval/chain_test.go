package approval

import (
	"errors"
	"testing"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalChain_Validate(t *testing.T) {
	tests := []struct {
		name  string
		chain ApprovalChain
	}{
		{"no steps", ApprovalChain{DocumentType: DocumentTypePayroll, Version: 1}},
		{"bad document type", ApprovalChain{DocumentType: "invoice", Version: 1, Steps: []ChainStep{{Role: "A", Order: 0}}}},
		{"zero version", ApprovalChain{DocumentType: DocumentTypePayroll, Steps: []ChainStep{{Role: "A", Order: 0}}}},
		{"orders not starting at zero", ApprovalChain{DocumentType: DocumentTypePayroll, Version: 1, Steps: []ChainStep{{Role: "A", Order: 1}}}},
		{"orders not increasing", ApprovalChain{DocumentType: DocumentTypePayroll, Version: 1, Steps: []ChainStep{{Role: "A", Order: 0}, {Role: "B", Order: 0}}}},
		{"blank role", ApprovalChain{DocumentType: DocumentTypePayroll, Version: 1, Steps: []ChainStep{{Role: " ", Order: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.chain.Validate(), shared.ErrInvalidInput))
		})
	}
}

func TestDefaultChainDefinitions(t *testing.T) {
	defs := DefaultChainDefinitions()
	require.Len(t, defs, 3)

	for _, d := range defs {
		c, err := NewApprovalChain(d.DocumentType, 1, d.Roles...)
		require.NoError(t, err)
		assert.True(t, c.Active)
	}
	assert.Equal(t, []string{RoleHROfficer, RoleAccountant, RoleCEO}, defs[1].Roles)
}

func TestChainCatalog(t *testing.T) {
	v1, err := NewApprovalChain(DocumentTypePayroll, 1, RoleHROfficer)
	require.NoError(t, err)
	v2, err := NewApprovalChain(DocumentTypePayroll, 2, RoleHROfficer, RoleCEO)
	require.NoError(t, err)
	retired, err := NewApprovalChain(DocumentTypePurchaseOrder, 1, RoleAdmin)
	require.NoError(t, err)
	retired.Active = false

	catalog, err := NewChainCatalog([]ApprovalChain{*v2, *v1, *retired})
	require.NoError(t, err)

	got, err := catalog.ForDocument(DocumentTypePayroll)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, got.ID)

	_, err = catalog.ForDocument(DocumentTypePurchaseOrder)
	assert.True(t, errors.Is(err, ErrNoChainConfigured))

	byID, err := catalog.ByID(retired.ID)
	require.NoError(t, err)
	assert.False(t, byID.Active)

	_, err = catalog.ByID(uuid.New())
	assert.True(t, errors.Is(err, shared.ErrConfigurationMissing))

	got.Steps[0].Role = "mutated"
	again, err := catalog.ForDocument(DocumentTypePayroll)
	require.NoError(t, err)
	assert.Equal(t, RoleHROfficer, again.Steps[0].Role)

	assert.Equal(t, []DocumentType{DocumentTypePayroll}, catalog.DocumentTypes())
}

func TestChainCatalog_RejectsInvalidChain(t *testing.T) {
	_, err := NewChainCatalog([]ApprovalChain{{ID: uuid.New(), DocumentType: DocumentTypePayroll, Version: 1}})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}
