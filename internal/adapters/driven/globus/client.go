package globus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

// DefaultBaseURL is the Globus Search API root.
const DefaultBaseURL = "https://search.api.globus.org/"

// DefaultUserAgent identifies the publisher to Globus.
const DefaultUserAgent = "metapublish"

// Client calls the Globus Search API for one index.
type Client struct {
	http      *http.Client
	baseURL   string
	indexID   string
	userAgent string
	limiter   *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another Search API root.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithRateLimit throttles requests to rps per second. rps <= 0 disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for indexID. httpClient must attach credentials.
func NewClient(httpClient *http.Client, indexID string, opts ...Option) *Client {
	c := &Client{
		http:      httpClient,
		baseURL:   DefaultBaseURL,
		indexID:   indexID,
		userAgent: DefaultUserAgent,
		limiter:   rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// endpoint builds {base}/v1/index/{id}/{suffix}.
func (c *Client) endpoint(suffix string, query url.Values) string {
	u := strings.TrimSuffix(c.baseURL, "/") + "/v1/index/" + url.PathEscape(c.indexID) + "/" + suffix
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends one request and decodes a JSON response into out (if non-nil).
// Any failure is returned as a RemoteIndexError classified by op.
func (c *Client) do(ctx context.Context, op error, method, endpoint string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &domain.RemoteIndexError{Err: op, Code: "RateLimitWait", Message: err.Error()}
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &domain.RemoteIndexError{Err: op, Code: "EncodeRequest", Message: err.Error()}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &domain.RemoteIndexError{Err: op, Code: "CreateRequest", Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.RemoteIndexError{Err: op, Code: "Transport", Message: err.Error(), Detail: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.RemoteIndexError{Err: op, Status: resp.StatusCode, Code: "ReadResponse", Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(op, resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.RemoteIndexError{
			Err:     op,
			Status:  resp.StatusCode,
			Code:    "DecodeResponse",
			Message: err.Error(),
			Detail:  string(data),
		}
	}
	return nil
}

// apiError is the Globus error document.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func parseError(op error, status int, body []byte) *domain.RemoteIndexError {
	remote := &domain.RemoteIndexError{
		Err:     op,
		Status:  status,
		Code:    fmt.Sprintf("HTTP%d", status),
		Message: http.StatusText(status),
		Detail:  strings.TrimSpace(string(body)),
	}

	var doc apiError
	if err := json.Unmarshal(body, &doc); err == nil {
		if doc.Code != "" {
			remote.Code = doc.Code
		}
		if doc.Message != "" {
			remote.Message = doc.Message
		}
	}
	return remote
}
