package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/models"
)

// Aggregator fans out to all registered adapters, merges their results in
// priority order, and enforces a global result cap. An adapter failure is
// logged and treated as an empty result for that adapter; it never aborts
// the siblings.
type Aggregator struct {
	adapters []SourceAdapter
	logger   *zap.Logger
}

// NewAggregator creates an aggregator over the given adapters. Adapters are
// queried in the order given; earlier adapters have priority when the
// result cap is reached.
func NewAggregator(adapters []SourceAdapter, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		adapters: adapters,
		logger:   logger.Named("asset-aggregator"),
	}
}

// Fetch collects up to maxResults assets across all adapters.
// Results are deduplicated by qualified name (first occurrence wins) and
// concatenated in adapter priority order; each adapter's own return order
// is preserved, including for a source truncated by the cap.
// The result length never exceeds maxResults. If every adapter fails the
// aggregator returns an empty list, not an error.
func (g *Aggregator) Fetch(ctx context.Context, assetTypes []string, maxResults int) []models.AssetMetadata {
	if maxResults <= 0 {
		return nil
	}

	seen := make(map[string]bool)
	result := make([]models.AssetMetadata, 0, maxResults)

	for _, adapter := range g.adapters {
		if len(result) >= maxResults {
			break
		}

		remaining := maxResults - len(result)
		assets, err := adapter.Fetch(ctx, assetTypes, remaining)
		if err != nil {
			g.logger.Warn("Source adapter failed; continuing with remaining sources",
				zap.String("adapter", adapter.Name()),
				zap.Error(err))
			continue
		}

		for _, asset := range assets {
			if len(result) >= maxResults {
				break
			}
			if seen[asset.QualifiedName] {
				continue
			}
			seen[asset.QualifiedName] = true
			result = append(result, asset)
		}

		g.logger.Debug("Adapter contributed assets",
			zap.String("adapter", adapter.Name()),
			zap.Int("total", len(result)))
	}

	return result
}
