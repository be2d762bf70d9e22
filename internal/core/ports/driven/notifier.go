package driven

import (
	"context"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

// Notifier announces the outcome of a publishing run.
type Notifier interface {
	// NotifyRun publishes the run statistics and, if the run failed, its error.
	NotifyRun(ctx context.Context, stats domain.RunStats, runErr error) error

	// Close releases resources.
	Close() error
}
