package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()

	registry.Register(handler, "costing.receipt_recorded", "costing.issue_recorded")
	registry.Register(handler, "costing.receipt_recorded")

	assert.Len(t, registry.Handlers("costing.receipt_recorded"), 1)
	assert.Len(t, registry.Handlers("costing.issue_recorded"), 1)
	assert.Empty(t, registry.Handlers("approval.approved"))
	assert.Equal(t, 1, registry.Len())
}

func TestHandlerRegistry_Order(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcard := newTestHandler()
	first := newTestHandler()
	second := newTestHandler()

	registry.Register(wildcard)
	registry.Register(first, "production.wip_posted")
	registry.Register(second, "production.wip_posted")
	registry.Register(wildcard, "production.wip_posted")

	got := registry.Handlers("production.wip_posted")
	assert.Len(t, got, 3)
	assert.Same(t, first, got[0])
	assert.Same(t, second, got[1])
	assert.Same(t, wildcard, got[2])
	assert.Equal(t, 3, registry.Len())
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	kept := newTestHandler()
	removed := newTestHandler()

	registry.Register(kept, "approval.approved")
	registry.Register(removed, "approval.approved", "approval.rejected")
	registry.Register(removed)

	registry.Unregister(removed)

	assert.Len(t, registry.Handlers("approval.approved"), 1)
	assert.Empty(t, registry.Handlers("approval.rejected"))
	assert.Equal(t, 1, registry.Len())
	_, exists := registry.handlers["approval.rejected"]
	assert.False(t, exists)
}
