// Package source contains the adapters that translate provider-native
// catalog records into the canonical asset representation, and the
// aggregator that fans out across them.
package source

import (
	"context"

	"github.com/termforge/glossary-engine/pkg/models"
)

// SourceAdapter fetches assets of one provider family from the catalog and
// converts them into canonical AssetMetadata. Implementations may fail;
// the aggregator isolates each adapter's failure from its siblings.
type SourceAdapter interface {
	// Name identifies the adapter in logs and error reports.
	Name() string

	// Fetch returns up to maxResults assets of the requested types.
	// Implementations keep a stable order; callers rely on it.
	Fetch(ctx context.Context, assetTypes []string, maxResults int) ([]models.AssetMetadata, error)
}
