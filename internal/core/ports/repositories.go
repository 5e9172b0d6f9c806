package ports

import (
	"context"

	"github.com/samirrijal/horao/internal/core/domain"
)

// FeatureRepository runs a source query against a spatial database and
// returns each row as a feature id and WKT geometry. Rows with a NULL
// geometry are omitted.
type FeatureRepository interface {
	Features(ctx context.Context, q domain.SourceQuery) ([]domain.Feature, error)
}
