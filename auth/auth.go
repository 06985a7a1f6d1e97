// Package auth obtains OAuth2 client-credential tokens for the external
// emergency services. The feed, roster and log sink endpoints may sit behind
// the national gateway, which expects a bearer token on every request.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Conf holds the client credentials. An empty TokenURL disables
// authentication.
type Conf struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TokenURL     string `json:"token_url"`
}

// Enabled reports whether a token endpoint is configured.
func (c Conf) Enabled() bool { return c.TokenURL != "" }

// ClientCred exchanges client credentials for access tokens and caches the
// current token until it expires.
type ClientCred struct {
	conf  clientcredentials.Config
	token *oauth2.Token
}

// NewClientCred creates a token source from the given credentials.
func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{
		conf: clientcredentials.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			TokenURL:     conf.TokenURL,
		},
	}
}

// Token returns a valid access token, requesting a fresh one when the cached
// token has expired.
func (c *ClientCred) Token(ctx context.Context) (string, error) {
	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}
	if err := c.refresh(ctx); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// SetAuthHeader stamps the request with a valid bearer token.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	if c.token == nil || !c.token.Valid() {
		if err := c.refresh(r.Context()); err != nil {
			return err
		}
	}
	c.token.SetAuthHeader(r)
	return nil
}

func (c *ClientCred) refresh(ctx context.Context) error {
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return fmt.Errorf("token request: %w", err)
	}
	c.token = tok
	return nil
}
