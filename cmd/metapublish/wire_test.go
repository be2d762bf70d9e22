package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/metapublish/internal/adapters/driven/globus"
	"github.com/custodia-labs/metapublish/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/metapublish/internal/adapters/driven/typesense"
	"github.com/custodia-labs/metapublish/internal/adapters/driving/cli"
	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/services"
)

// fakeGlobus serves the token exchange and the search API, recording writes.
type fakeGlobus struct {
	mu       sync.Mutex
	existing []string
	writes   []string
}

func (f *fakeGlobus) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/index/idx-1/search", func(w http.ResponseWriter, _ *http.Request) {
		gmeta := make([]map[string]string, 0, len(f.existing))
		for _, s := range f.existing {
			gmeta = append(gmeta, map[string]string{"subject": s})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"gmeta": gmeta, "has_next_page": false})
	})
	mux.HandleFunc("/v1/index/idx-1/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.writes = append(f.writes, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"task_id":"t","acknowledged":true}`))
	})
	return mux
}

func globusStore(t *testing.T, serverURL string) *memory.ConfigStore {
	t.Helper()
	store := memory.NewConfigStore()
	store.Set(services.KeyProviderID, "P")
	store.Set(services.KeyIndexID, "idx-1")
	store.Set(services.KeyGlobusClientID, "cid")
	store.Set(services.KeyGlobusClientSecret, "secret")
	store.Set(services.KeyGlobusScopes, "urn:globus:auth:scope:search.api.globus.org:all")
	store.Set(services.KeyGlobusAuthURL, serverURL+"/token")
	store.Set(services.KeyGlobusSearchURL, serverURL+"/")
	return store
}

func writeSource(t *testing.T, body string) domain.SourceLocation {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	loc, err := domain.ParseSourceLocation("file:" + path)
	require.NoError(t, err)
	return loc
}

func TestNewPublisher_Globus(t *testing.T) {
	fake := &fakeGlobus{existing: []string{"P:old"}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	store := globusStore(t, server.URL)
	cfg, err := services.LoadPublisherConfig(store)
	require.NoError(t, err)

	pub, release, err := newPublisher(context.Background(), store, cfg, cli.PublisherOptions{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, release()) }()

	result, err := pub.Publish(context.Background(), writeSource(t, `[{"LOCAL_ID":"a","Title":"A"}]`))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.Update)
	assert.Equal(t, 1, result.Stats.Delete)
	assert.Equal(t, []string{
		"POST /v1/index/idx-1/ingest",
		"DELETE /v1/index/idx-1/subject",
	}, fake.writes)
}

func TestNewPublisher_DryRunWritesNothing(t *testing.T) {
	fake := &fakeGlobus{existing: []string{"P:old", "P:a"}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	store := globusStore(t, server.URL)
	cfg, err := services.LoadPublisherConfig(store)
	require.NoError(t, err)

	pub, release, err := newPublisher(context.Background(), store, cfg, cli.PublisherOptions{DryRun: true})
	require.NoError(t, err)
	defer func() { _ = release() }()

	result, err := pub.Publish(context.Background(), writeSource(t, `[{"LOCAL_ID":"a"},{"LOCAL_ID":"b"}]`))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.Update)
	assert.Equal(t, 1, result.Stats.Delete)
	assert.Empty(t, fake.writes)
}

func TestDryRunIndex_CopiesPartition(t *testing.T) {
	remote := memory.NewSearchIndex()
	remote.SeedSubjects("P", "P:a", "P:b")
	remote.SeedSubjects("Q", "Q:x")

	copied, err := dryRunIndex(context.Background(), remote, "P")

	require.NoError(t, err)
	assert.Equal(t, []string{"P:a", "P:b"}, copied.Subjects())
}

func TestNewIndex_Backends(t *testing.T) {
	store := memory.NewConfigStore()
	store.Set(services.KeyTypesenseURL, "http://localhost:8108")
	store.Set(services.KeyTypesenseAPIKey, "xyz")
	cfg := domain.PublisherConfig{ProviderID: "P", IndexID: "idx-1", Backend: domain.BackendTypesense}

	index, err := newIndex(context.Background(), store, cfg)
	require.NoError(t, err)
	assert.IsType(t, &typesense.Index{}, index)

	cfg.Backend = "solr"
	_, err = newIndex(context.Background(), store, cfg)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestNewIndex_GlobusNeedsCredentials(t *testing.T) {
	store := memory.NewConfigStore()
	cfg := domain.PublisherConfig{ProviderID: "P", IndexID: "idx-1", Backend: domain.BackendGlobus}

	_, err := newIndex(context.Background(), store, cfg)
	assert.ErrorIs(t, err, domain.ErrConfigMissing)

	store.Set(services.KeyGlobusClientID, "cid")
	store.Set(services.KeyGlobusClientSecret, "secret")
	store.Set(services.KeyGlobusScopes, "all")
	index, err := newIndex(context.Background(), store, cfg)
	require.NoError(t, err)
	assert.IsType(t, &globus.Client{}, index)
}

func TestNewReader_ObjectStore(t *testing.T) {
	store := memory.NewConfigStore()
	store.Set(services.KeyS3Endpoint, "localhost:9000")
	store.Set(services.KeyS3AccessKey, "minio")
	store.Set(services.KeyS3SecretKey, "minio123")

	reader, err := newReader(store)

	require.NoError(t, err)
	assert.NotNil(t, reader)
}

func TestOpenConfig_MissingFile(t *testing.T) {
	store, err := openConfig(filepath.Join(t.TempDir(), "absent.toml"))

	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}
