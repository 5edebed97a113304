package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/catalog"
	"github.com/termforge/glossary-engine/pkg/models"
)

// relationalTypeNames are the asset types the relational adapter handles.
var relationalTypeNames = map[string]bool{
	"Table":            true,
	"View":             true,
	"MaterializedView": true,
}

// RelationalAdapter fetches tables, views and materialized views.
type RelationalAdapter struct {
	client catalog.CatalogClient
	logger *zap.Logger
}

// NewRelationalAdapter creates an adapter for relational catalog assets.
func NewRelationalAdapter(client catalog.CatalogClient, logger *zap.Logger) *RelationalAdapter {
	return &RelationalAdapter{
		client: client,
		logger: logger.Named("relational-adapter"),
	}
}

var _ SourceAdapter = (*RelationalAdapter)(nil)

// Name implements SourceAdapter.
func (a *RelationalAdapter) Name() string {
	return "relational"
}

// defaultRelationalTypes is the fetch order when the caller does not narrow
// the asset types.
var defaultRelationalTypes = []string{"Table", "View", "MaterializedView"}

// Fetch implements SourceAdapter. An empty assetTypes list means all
// relational types; a list that names no relational type yields nothing.
func (a *RelationalAdapter) Fetch(ctx context.Context, assetTypes []string, maxResults int) ([]models.AssetMetadata, error) {
	types := defaultRelationalTypes
	if len(assetTypes) > 0 {
		types = filterTypes(assetTypes, relationalTypeNames)
	}
	if len(types) == 0 {
		return nil, nil
	}

	hits, err := a.client.SearchAssets(ctx, catalog.SearchRequest{
		TypeNames: types,
		SuperType: "SQL",
		Limit:     maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("relational asset search: %w", err)
	}

	assets := make([]models.AssetMetadata, 0, len(hits))
	for _, hit := range hits {
		if len(assets) >= maxResults {
			break
		}
		assets = append(assets, convertAsset(hit))
	}

	a.logger.Debug("Fetched relational assets", zap.Int("count", len(assets)))
	return assets, nil
}

// convertAsset maps a raw catalog hit onto the canonical representation.
// Shared by both adapter families; BI-specific fields pass through when set.
func convertAsset(hit catalog.Asset) models.AssetMetadata {
	asset := models.AssetMetadata{
		QualifiedName:          hit.QualifiedName,
		Name:                   hit.Name,
		TypeName:               hit.TypeName,
		Description:            hit.Description,
		UserDescription:        hit.UserDescription,
		Expression:             hit.Expression,
		DatasetQualifiedName:   hit.DatasetQualifiedName,
		WorkspaceQualifiedName: hit.WorkspaceQualifiedName,
		DatabaseName:           hit.DatabaseName,
		SchemaName:             hit.SchemaName,
		Tags:                   hit.Tags,
	}

	if len(hit.OwnerUsers) > 0 {
		asset.Owner = hit.OwnerUsers[0]
	}

	for _, col := range hit.Columns {
		asset.Columns = append(asset.Columns, models.ColumnMetadata{
			Name:         col.Name,
			DataType:     col.DataType,
			Description:  col.Description,
			IsPrimaryKey: col.IsPrimaryKey,
			IsForeignKey: col.IsForeignKey,
		})
	}

	if hit.QueryCount > 0 || hit.UserCount > 0 || hit.PopularityScore > 0 {
		asset.Usage = &models.UsageSignals{
			QueryFrequency:  hit.QueryCount,
			UniqueUsers:     hit.UserCount,
			PopularityScore: hit.PopularityScore,
		}
	}

	return asset
}

func filterTypes(assetTypes []string, allowed map[string]bool) []string {
	var out []string
	for _, t := range assetTypes {
		if allowed[t] {
			out = append(out, t)
		}
	}
	return out
}
