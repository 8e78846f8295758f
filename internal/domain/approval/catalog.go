package approval

import (
	"fmt"

	"github.com/google/uuid"
)

// ChainCatalog is an immutable, read-only index of active chains.
// Build it once at startup; it is safe for concurrent use.
type ChainCatalog struct {
	byType map[DocumentType]ApprovalChain
	byID   map[uuid.UUID]ApprovalChain
}

// NewChainCatalog indexes chains. Inactive chains are reachable by ID only, so
// requests created under an older chain keep resolving. For each document type
// the active chain with the highest version wins.
func NewChainCatalog(chains []ApprovalChain) (*ChainCatalog, error) {
	c := &ChainCatalog{
		byType: make(map[DocumentType]ApprovalChain),
		byID:   make(map[uuid.UUID]ApprovalChain, len(chains)),
	}
	for _, ch := range chains {
		if err := ch.Validate(); err != nil {
			return nil, fmt.Errorf("chain %s: %w", ch.ID, err)
		}
		ch.Steps = append([]ChainStep(nil), ch.Steps...)
		c.byID[ch.ID] = ch
		if !ch.Active {
			continue
		}
		if cur, ok := c.byType[ch.DocumentType]; !ok || ch.Version > cur.Version {
			c.byType[ch.DocumentType] = ch
		}
	}
	return c, nil
}

// ForDocument returns the active chain for a document type
func (c *ChainCatalog) ForDocument(docType DocumentType) (*ApprovalChain, error) {
	ch, ok := c.byType[docType]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoChainConfigured, docType)
	}
	ch.Steps = append([]ChainStep(nil), ch.Steps...)
	return &ch, nil
}

// ByID returns any known chain, active or not
func (c *ChainCatalog) ByID(id uuid.UUID) (*ApprovalChain, error) {
	ch, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: chain %s", ErrNoChainConfigured, id)
	}
	ch.Steps = append([]ChainStep(nil), ch.Steps...)
	return &ch, nil
}

// DocumentTypes returns the document types with an active chain
func (c *ChainCatalog) DocumentTypes() []DocumentType {
	out := make([]DocumentType, 0, len(c.byType))
	for _, t := range AllDocumentTypes() {
		if _, ok := c.byType[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
