package driving

import (
	"context"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

// Publisher reconciles a provider's source records into the search index.
type Publisher interface {
	// Publish runs one reconciliation of the records at loc.
	// The result is always non-nil; err is non-nil when the run aborted.
	Publish(ctx context.Context, loc domain.SourceLocation) (*PublishResult, error)

	// Subjects lists the subjects currently indexed for the provider.
	Subjects(ctx context.Context) ([]string, error)
}

// PublishResult is the outcome of one run.
type PublishResult struct {
	// OK is true when the index now mirrors the source.
	OK bool

	// Message is a human-readable summary or the failure cause.
	Message string

	// Stats holds the run counters.
	Stats domain.RunStats
}
