package approval

import (
	"context"

	"github.com/erp/manufacturing/internal/domain/approval"
	"go.uber.org/zap"
)

// LoadCatalog reads every chain and builds the immutable catalog. With seed set,
// document types that have no chain at all get the default chain at version 1.
func LoadCatalog(ctx context.Context, chains approval.ChainRepository, seed bool, logger *zap.Logger) (*approval.ChainCatalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	all, err := chains.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	if seed {
		configured := make(map[approval.DocumentType]bool, len(all))
		for _, c := range all {
			configured[c.DocumentType] = true
		}
		for _, def := range approval.DefaultChainDefinitions() {
			if configured[def.DocumentType] {
				continue
			}
			chain, err := approval.NewApprovalChain(def.DocumentType, 1, def.Roles...)
			if err != nil {
				return nil, err
			}
			if err := chains.Create(ctx, chain); err != nil {
				return nil, err
			}
			logger.Info("seeded approval chain",
				zap.String("document_type", string(def.DocumentType)),
				zap.Strings("roles", def.Roles))
			all = append(all, *chain)
		}
	}

	return approval.NewChainCatalog(all)
}
