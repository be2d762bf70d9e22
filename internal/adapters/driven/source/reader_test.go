package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

const sampleRecords = `[
  {"LOCAL_ID": "a", "Title": "T1", "URL": "u1"},
  {"LOCAL_ID": 42, "Title": "T2"}
]`

func mustLocation(t *testing.T, raw string) domain.SourceLocation {
	t.Helper()
	loc, err := domain.ParseSourceLocation(raw)
	require.NoError(t, err)
	return loc
}

func TestReader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRecords), 0600))

	records, err := NewReader().Read(context.Background(), mustLocation(t, "file:"+path))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "T1", records[0]["Title"])

	id, ok := records[1].LocalID("LOCAL_ID")
	require.True(t, ok)
	assert.Equal(t, "42", id)
}

func TestReader_BarePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0600))

	records, err := NewReader().Read(context.Background(), mustLocation(t, path))

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReader_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")

	_, err := NewReader().Read(context.Background(), mustLocation(t, "file:"+path))

	assert.True(t, errors.Is(err, domain.ErrSourceUnreachable))
}

func TestReader_HTTPS(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleRecords))
	}))
	defer server.Close()

	reader := NewReader(WithHTTPClient(server.Client()))
	records, err := reader.Read(context.Background(), mustLocation(t, server.URL+"/export/records.json?provider=P"))

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "/export/records.json", gotPath)
	assert.Equal(t, "provider=P", gotQuery)
}

func TestReader_HTTPSUntrustedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	// the default client only trusts the system roots
	_, err := NewReader().Read(context.Background(), mustLocation(t, server.URL+"/records.json"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceUnreachable))
}

func TestReader_HTTPNon2xx(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewReader(WithHTTPClient(server.Client())).Read(context.Background(), mustLocation(t, server.URL+"/records.json"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceUnreachable))
	assert.Contains(t, err.Error(), "404")
}

func TestReader_HTTPMalformed(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := NewReader(WithHTTPClient(server.Client())).Read(context.Background(), mustLocation(t, server.URL+"/records.json"))

	assert.True(t, errors.Is(err, domain.ErrSourceMalformed))
}

func TestReader_HTTPContextCancelled(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader(WithHTTPClient(server.Client())).Read(ctx, mustLocation(t, server.URL+"/records.json"))

	assert.True(t, errors.Is(err, domain.ErrSourceUnreachable))
}

func TestReader_PlainHTTPServerRefused(t *testing.T) {
	var served int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		served++
		_, _ = w.Write([]byte(`[{"LOCAL_ID":"a"}]`))
	}))
	defer server.Close()

	records, err := NewReader(WithHTTPClient(server.Client())).Read(context.Background(), mustLocation(t, server.URL+"/data.json"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceUnreachable))
	assert.Nil(t, records)
	assert.Zero(t, served)
}

func TestReader_HTTPSchemeUsesTLS(t *testing.T) {
	var sawTLS bool
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawTLS = r.TLS != nil
		_, _ = w.Write([]byte(`[{"LOCAL_ID":"a"}]`))
	}))
	defer server.Close()

	plain := "http://" + strings.TrimPrefix(server.URL, "https://") + "/data.json"
	records, err := NewReader(WithHTTPClient(server.Client())).Read(context.Background(), mustLocation(t, plain))

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.True(t, sawTLS)
}

// fakeObjectStore serves objects from memory.
type fakeObjectStore struct {
	objects map[string]string
	bucket  string
	key     string
}

func (f *fakeObjectStore) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	f.bucket, f.key = bucket, key
	body, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewBufferString(body)), nil
}

func TestReader_S3(t *testing.T) {
	store := &fakeObjectStore{objects: map[string]string{"exports/nightly/records.json": sampleRecords}}

	records, err := NewReader(WithObjectStore(store)).Read(context.Background(), mustLocation(t, "s3://exports/nightly/records.json"))

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "exports", store.bucket)
	assert.Equal(t, "nightly/records.json", store.key)
}

func TestReader_S3MissingObject(t *testing.T) {
	store := &fakeObjectStore{objects: map[string]string{}}

	_, err := NewReader(WithObjectStore(store)).Read(context.Background(), mustLocation(t, "s3://exports/missing.json"))

	assert.True(t, errors.Is(err, domain.ErrSourceUnreachable))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReader_S3WithoutStore(t *testing.T) {
	_, err := NewReader().Read(context.Background(), mustLocation(t, "s3://exports/records.json"))

	assert.True(t, errors.Is(err, domain.ErrInvalidSource))
}

func TestReader_UnknownScheme(t *testing.T) {
	_, err := NewReader().Read(context.Background(), domain.SourceLocation{Raw: "ftp://x/y", Scheme: "ftp", Path: "/y"})

	assert.True(t, errors.Is(err, domain.ErrInvalidSource))
}

func TestNewHTTPClient_TLSFloor(t *testing.T) {
	client := NewHTTPClient()

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.TLSClientConfig)
	assert.EqualValues(t, 0x0303, transport.TLSClientConfig.MinVersion)
	assert.Nil(t, transport.TLSClientConfig.RootCAs)
	assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
}
