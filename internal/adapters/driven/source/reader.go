package source

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
	"github.com/custodia-labs/metapublish/internal/logger"
)

// DefaultTimeout bounds a single network fetch.
const DefaultTimeout = 5 * time.Minute

// Ensure Reader implements the interface.
var _ driven.SourceReader = (*Reader)(nil)

// Reader fetches and decodes source records.
type Reader struct {
	httpClient *http.Client
	objects    ObjectStore
}

// Option configures a Reader.
type Option func(*Reader)

// WithHTTPClient replaces the default certificate-validating client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reader) {
		r.httpClient = c
	}
}

// WithObjectStore enables s3:// locations.
func WithObjectStore(s ObjectStore) Option {
	return func(r *Reader) {
		r.objects = s
	}
}

// NewReader creates a source reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{httpClient: NewHTTPClient()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewHTTPClient returns a client that validates server certificates against
// the system roots and refuses anything older than TLS 1.2.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	return &http.Client{
		Transport: transport,
		Timeout:   DefaultTimeout,
	}
}

// Read loads the records at loc.
func (r *Reader) Read(ctx context.Context, loc domain.SourceLocation) ([]domain.SourceRecord, error) {
	var (
		data []byte
		err  error
	)

	switch loc.Scheme {
	case domain.SchemeFile:
		data, err = r.readFile(loc)
	case domain.SchemeHTTP, domain.SchemeHTTPS:
		data, err = r.fetch(ctx, loc)
	case domain.SchemeS3:
		data, err = r.readObject(ctx, loc)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidSource, loc.Scheme)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Read %d/bytes from %s", len(data), loc)
	return Decode(data)
}

func (r *Reader) readFile(loc domain.SourceLocation) ([]byte, error) {
	data, err := os.ReadFile(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreachable, err)
	}
	return data, nil
}

// fetch issues a GET for the location's path and query. The connection is
// always TLS: an http location is fetched over https from the same host and port.
func (r *Reader) fetch(ctx context.Context, loc domain.SourceLocation) ([]byte, error) {
	target := url.URL{
		Scheme:   domain.SchemeHTTPS,
		Host:     loc.Host,
		Path:     loc.Path,
		RawQuery: loc.RawQuery,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrSourceUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s returned status %d", domain.ErrSourceUnreachable, target.String(), resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrSourceUnreachable, err)
	}
	return data, nil
}

func (r *Reader) readObject(ctx context.Context, loc domain.SourceLocation) ([]byte, error) {
	if r.objects == nil {
		return nil, fmt.Errorf("%w: s3 locations need an object store (set s3.endpoint)", domain.ErrInvalidSource)
	}

	body, err := r.objects.GetObject(ctx, loc.Host, loc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreachable, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read object: %w", domain.ErrSourceUnreachable, err)
	}
	return data, nil
}
