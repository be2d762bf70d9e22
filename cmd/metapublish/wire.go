package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/metapublish/internal/adapters/driven/auth"
	"github.com/custodia-labs/metapublish/internal/adapters/driven/config/file"
	"github.com/custodia-labs/metapublish/internal/adapters/driven/globus"
	"github.com/custodia-labs/metapublish/internal/adapters/driven/notify"
	"github.com/custodia-labs/metapublish/internal/adapters/driven/source"
	"github.com/custodia-labs/metapublish/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/metapublish/internal/adapters/driven/typesense"
	"github.com/custodia-labs/metapublish/internal/adapters/driving/cli"
	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
	"github.com/custodia-labs/metapublish/internal/core/ports/driving"
	"github.com/custodia-labs/metapublish/internal/core/services"
	"github.com/custodia-labs/metapublish/internal/logger"
)

func openConfig(path string) (driven.ConfigStore, error) {
	store, err := file.NewConfigStore(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// newPublisher assembles the reader, index and notifier for cfg.
func newPublisher(
	ctx context.Context,
	store driven.ConfigStore,
	cfg domain.PublisherConfig,
	opts cli.PublisherOptions,
) (driving.Publisher, func() error, error) {
	reader, err := newReader(store)
	if err != nil {
		return nil, nil, err
	}

	index, err := newIndex(ctx, store, cfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{index.Close}

	target := driven.SearchIndex(index)
	if opts.DryRun {
		target, err = dryRunIndex(ctx, index, cfg.ProviderID)
		if err != nil {
			_ = index.Close()
			return nil, nil, err
		}
	}

	var notifier driven.Notifier
	if url := store.GetString(services.KeyNotifyNATSURL); url != "" {
		n, err := notify.NewNATSNotifier(url, store.GetString(services.KeyNotifySubject))
		if err != nil {
			// Notifications are best effort; the run goes ahead without them.
			logger.Warn("Run notifications disabled: %v", err)
		} else {
			notifier = n
			closers = append(closers, n.Close)
		}
	}

	release := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	return services.NewPublisher(cfg, reader, target, notifier), release, nil
}

// newReader builds the source reader, adding object storage when s3.endpoint is set.
func newReader(store driven.ConfigStore) (*source.Reader, error) {
	opts := []source.Option{source.WithHTTPClient(source.NewHTTPClient())}

	if endpoint := store.GetString(services.KeyS3Endpoint); endpoint != "" {
		objects, err := source.NewMinioStore(
			endpoint,
			store.GetString(services.KeyS3AccessKey),
			store.GetString(services.KeyS3SecretKey),
			store.GetBool(services.KeyS3UseSSL),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, source.WithObjectStore(objects))
	}
	return source.NewReader(opts...), nil
}

// newIndex connects to the configured backend.
func newIndex(ctx context.Context, store driven.ConfigStore, cfg domain.PublisherConfig) (driven.SearchIndex, error) {
	switch cfg.Backend {
	case domain.BackendGlobus:
		creds := auth.ClientCredentials{
			ClientID:     store.GetString(services.KeyGlobusClientID),
			ClientSecret: store.GetString(services.KeyGlobusClientSecret),
			Scopes:       store.GetString(services.KeyGlobusScopes),
			TokenURL:     store.GetString(services.KeyGlobusAuthURL),
		}
		httpClient, err := auth.NewHTTPClient(ctx, creds, source.NewHTTPClient())
		if err != nil {
			return nil, err
		}

		opts := []globus.Option{globus.WithRateLimit(store.GetFloat(services.KeyRateRequestsPerSecond))}
		if base := store.GetString(services.KeyGlobusSearchURL); base != "" {
			opts = append(opts, globus.WithBaseURL(base))
		}
		return globus.NewClient(httpClient, cfg.IndexID, opts...), nil

	case domain.BackendTypesense:
		collection := store.GetString(services.KeyTypesenseCollection)
		if collection == "" {
			collection = cfg.IndexID
		}
		return typesense.New(
			store.GetString(services.KeyTypesenseURL),
			store.GetString(services.KeyTypesenseAPIKey),
			collection,
		), nil
	}
	return nil, fmt.Errorf("%w: backend %q", domain.ErrUnsupportedType, cfg.Backend)
}

// dryRunIndex copies the provider's partition from index into memory.
// The run then writes to the copy and the real index is only queried.
func dryRunIndex(ctx context.Context, index driven.SearchIndex, providerID string) (*memory.SearchIndex, error) {
	subjects, err := index.QueryProviderSubjects(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("query existing index: %w", err)
	}

	copied := memory.NewSearchIndex()
	copied.SeedSubjects(providerID, subjects.Sorted()...)
	logger.Info("Dry run: working on a copy of %d/subjects", subjects.Len())
	return copied, nil
}
