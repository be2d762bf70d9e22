// Package auth exchanges confidential-client credentials for access tokens
// and produces the HTTP clients the index adapters use.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

// DefaultTokenURL is the Globus Auth token endpoint.
const DefaultTokenURL = "https://auth.globus.org/v2/oauth2/token"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 60 * time.Second

// ClientCredentials holds a confidential client's identity.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string

	// Scopes is space or comma separated, as written in the config file.
	Scopes string

	// TokenURL overrides DefaultTokenURL.
	TokenURL string
}

// Validate reports the first missing parameter.
func (c ClientCredentials) Validate() error {
	switch {
	case strings.TrimSpace(c.ClientID) == "":
		return domain.MissingConfigError("globus.client_id")
	case c.ClientSecret == "":
		return domain.MissingConfigError("globus.client_secret")
	case len(c.ScopeList()) == 0:
		return domain.MissingConfigError("globus.scopes")
	}
	return nil
}

// ScopeList splits Scopes on spaces and commas.
func (c ClientCredentials) ScopeList() []string {
	return strings.FieldsFunc(c.Scopes, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
}

func (c ClientCredentials) config() *clientcredentials.Config {
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       c.ScopeList(),
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
}

// NewHTTPClient returns a client that attaches a bearer token to every
// request and renews it when it expires. base, if set, is used for the
// token exchange and as the underlying transport.
func NewHTTPClient(ctx context.Context, creds ClientCredentials, base *http.Client) (*http.Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	client := creds.config().Client(ctx)
	client.Timeout = DefaultTimeout
	return client, nil
}

// Token performs one exchange. Used to fail early on bad credentials.
func Token(ctx context.Context, creds ClientCredentials, base *http.Client) (*oauth2.Token, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	tok, err := creds.config().Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("token exchange for client %s: %w", creds.ClientID, err)
	}
	return tok, nil
}
