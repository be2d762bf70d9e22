package driven

import (
	"context"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

// QueryPageLimit is the page size used when listing a provider partition.
const QueryPageLimit = 1000

// SearchIndex is the remote searchable index holding every provider's entries.
// Failures are returned as *domain.RemoteIndexError.
type SearchIndex interface {
	// Ingest upserts a single entry.
	Ingest(ctx context.Context, entry domain.IndexEntry) error

	// IngestBatch upserts a list of entries in one request.
	IngestBatch(ctx context.Context, entries []domain.IndexEntry) error

	// QueryProviderSubjects returns every subject whose Provider_ID exactly
	// matches providerID, following pages until the index reports no more.
	QueryProviderSubjects(ctx context.Context, providerID string) (domain.SubjectSet, error)

	// DeleteSubject removes one entry by subject.
	DeleteSubject(ctx context.Context, subject string) error

	// Close releases resources.
	Close() error
}
