// Command metapublish reconciles a provider's metadata records into a search index.
package main

import (
	"os"

	"github.com/custodia-labs/metapublish/internal/adapters/driving/cli"
	"github.com/custodia-labs/metapublish/internal/logger"
)

// version is set at build time.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetWiring(cli.Wiring{
		OpenConfig:   openConfig,
		NewPublisher: newPublisher,
	})

	if err := cli.Execute(); err != nil {
		logger.Error("Exiting with rc=1")
		os.Exit(1)
	}
}
