package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyProviderID     = "provider_id"
	KeyIndexID        = "index_id"
	KeyBackend        = "backend"
	KeyBatchSize      = "batch_size"
	KeyIDField        = "id_field"
	KeyVisibleTo      = "visible_to"
	KeyOptionalFields = "optional_fields"

	KeyLogLevel = "log.level"
	KeyLogFile  = "log.file"

	KeyGlobusClientID     = "globus.client_id"
	KeyGlobusClientSecret = "globus.client_secret"
	KeyGlobusScopes       = "globus.scopes"
	KeyGlobusSearchURL    = "globus.search_url"
	KeyGlobusAuthURL      = "globus.auth_url"

	KeyTypesenseURL        = "typesense.url"
	KeyTypesenseAPIKey     = "typesense.api_key"
	KeyTypesenseCollection = "typesense.collection"

	KeyS3Endpoint  = "s3.endpoint"
	KeyS3AccessKey = "s3.access_key"
	KeyS3SecretKey = "s3.secret_key"
	KeyS3UseSSL    = "s3.use_ssl"

	KeyNotifyNATSURL = "notify.nats_url"
	KeyNotifySubject = "notify.subject"

	KeyRateRequestsPerSecond = "rate.requests_per_second"
)

// LoadPublisherConfig reads and validates the publisher configuration.
// The first absent required key is reported as domain.ErrConfigMissing.
func LoadPublisherConfig(store driven.ConfigStore) (domain.PublisherConfig, error) {
	cfg := domain.PublisherConfig{
		ProviderID: strings.TrimSpace(store.GetString(KeyProviderID)),
		IndexID:    strings.TrimSpace(store.GetString(KeyIndexID)),
		Backend:    strings.ToLower(strings.TrimSpace(store.GetString(KeyBackend))),
		BatchSize:  store.GetInt(KeyBatchSize),
		IDField:    strings.TrimSpace(store.GetString(KeyIDField)),
		VisibleTo:  store.GetStringSlice(KeyVisibleTo),
	}

	if cfg.ProviderID == "" {
		return cfg, domain.MissingConfigError(KeyProviderID)
	}
	if cfg.IndexID == "" {
		return cfg, domain.MissingConfigError(KeyIndexID)
	}

	if cfg.Backend == "" {
		cfg.Backend = domain.BackendGlobus
	}
	if err := checkBackendKeys(store, cfg.Backend); err != nil {
		return cfg, err
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.IDField == "" {
		cfg.IDField = domain.DefaultIDField
	}
	if len(cfg.VisibleTo) == 0 {
		cfg.VisibleTo = []string{domain.PublicVisibility}
	}

	for _, spec := range store.GetStringSlice(KeyOptionalFields) {
		rule, err := domain.ParseOptionalFieldRule(spec)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", KeyOptionalFields, err)
		}
		cfg.OptionalFields = append(cfg.OptionalFields, rule)
	}

	return cfg, nil
}

// checkBackendKeys verifies the authentication parameters a backend needs.
func checkBackendKeys(store driven.ConfigStore, backend string) error {
	var required []string
	switch backend {
	case domain.BackendGlobus:
		required = []string{KeyGlobusClientID, KeyGlobusClientSecret, KeyGlobusScopes}
	case domain.BackendTypesense:
		required = []string{KeyTypesenseURL, KeyTypesenseAPIKey}
	default:
		return fmt.Errorf("%w: backend %q", domain.ErrUnsupportedType, backend)
	}

	for _, key := range required {
		if _, ok := store.Get(key); !ok {
			return domain.MissingConfigError(key)
		}
	}
	return nil
}
