package cli

import (
	"context"

	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
	"github.com/custodia-labs/metapublish/internal/core/ports/driving"
)

// PublisherOptions adjust how the publisher is assembled.
type PublisherOptions struct {
	// DryRun routes writes to an in-memory copy of the partition.
	DryRun bool
}

// Wiring builds the collaborators the commands need. It is supplied by main
// so this package stays free of adapter choices.
type Wiring struct {
	// OpenConfig loads the configuration file at path ("" for the default).
	OpenConfig func(path string) (driven.ConfigStore, error)

	// NewPublisher assembles a publisher for cfg. The returned func releases
	// its connections.
	NewPublisher func(
		ctx context.Context,
		store driven.ConfigStore,
		cfg domain.PublisherConfig,
		opts PublisherOptions,
	) (driving.Publisher, func() error, error)
}

var wiring Wiring

// SetWiring installs the collaborator factories.
func SetWiring(w Wiring) {
	wiring = w
}
