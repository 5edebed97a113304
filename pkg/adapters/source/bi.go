package source

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/catalog"
	"github.com/termforge/glossary-engine/pkg/models"
)

// BIMeasureAdapter fetches Power BI measures and related BI assets.
// Measures carry a DAX expression that the generation engine interprets.
type BIMeasureAdapter struct {
	client catalog.CatalogClient
	logger *zap.Logger
}

// NewBIMeasureAdapter creates an adapter for BI catalog assets.
func NewBIMeasureAdapter(client catalog.CatalogClient, logger *zap.Logger) *BIMeasureAdapter {
	return &BIMeasureAdapter{
		client: client,
		logger: logger.Named("bi-adapter"),
	}
}

var _ SourceAdapter = (*BIMeasureAdapter)(nil)

// Name implements SourceAdapter.
func (a *BIMeasureAdapter) Name() string {
	return "bi-measure"
}

// defaultBITypes is the fetch set when the caller does not narrow the
// asset types. Measures come first: they carry the formulas the
// generation engine gets the most signal from.
var defaultBITypes = []string{"PowerBIMeasure", "PowerBIColumn"}

// Fetch implements SourceAdapter. An empty assetTypes list means the
// default BI types; a list that names no BI type yields nothing.
func (a *BIMeasureAdapter) Fetch(ctx context.Context, assetTypes []string, maxResults int) ([]models.AssetMetadata, error) {
	types := defaultBITypes
	if len(assetTypes) > 0 {
		types = nil
		for _, t := range assetTypes {
			if strings.HasPrefix(t, "PowerBI") {
				types = append(types, t)
			}
		}
	}
	if len(types) == 0 {
		return nil, nil
	}

	hits, err := a.client.SearchAssets(ctx, catalog.SearchRequest{
		TypeNames: types,
		SuperType: "BI",
		Connector: "powerbi",
		Limit:     maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("bi asset search: %w", err)
	}

	assets := make([]models.AssetMetadata, 0, len(hits))
	for _, hit := range hits {
		if len(assets) >= maxResults {
			break
		}
		assets = append(assets, convertAsset(hit))
	}

	a.logger.Debug("Fetched BI assets", zap.Int("count", len(assets)))
	return assets, nil
}
