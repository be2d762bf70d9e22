package driven

import (
	"context"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

// SourceReader obtains the provider's raw records.
type SourceReader interface {
	// Read fetches and parses the records at loc.
	// Fails with domain.ErrSourceUnreachable, domain.ErrSourceMalformed
	// or domain.ErrSourceShapeInvalid.
	Read(ctx context.Context, loc domain.SourceLocation) ([]domain.SourceRecord, error)
}
