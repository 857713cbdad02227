package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ksuzuki/salesync/internal/domain/model"
	"github.com/ksuzuki/salesync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuthClient = (*OAuthClient)(nil)

// OAuthClient implements the AuthClient port against the Salesforce OAuth2
// web server flow.
type OAuthClient struct {
	httpClient   *http.Client
	loginURL     string
	clientKey    string
	clientSecret string
}

// NewOAuthClient creates an OAuthClient for the given login endpoint
// (normally https://login.salesforce.com) and connected-app credentials.
func NewOAuthClient(loginURL, clientKey, clientSecret string) *OAuthClient {
	return &OAuthClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		loginURL:     strings.TrimRight(loginURL, "/"),
		clientKey:    clientKey,
		clientSecret: clientSecret,
	}
}

// NewOAuthClientWithHTTPClient creates an OAuthClient over a custom
// http.Client. Intended for testing against an httptest server.
func NewOAuthClientWithHTTPClient(httpClient *http.Client, loginURL, clientKey, clientSecret string) *OAuthClient {
	return &OAuthClient{
		httpClient:   httpClient,
		loginURL:     strings.TrimRight(loginURL, "/"),
		clientKey:    clientKey,
		clientSecret: clientSecret,
	}
}

// AuthorizeURL builds the consent URL a browser is redirected to.
func (c *OAuthClient) AuthorizeURL(redirectURI string) string {
	q := url.Values{
		"response_type": {"code"},
		"client_id":     {c.clientKey},
		"redirect_uri":  {redirectURI},
	}
	return c.loginURL + "/services/oauth2/authorize?" + q.Encode()
}

// ExchangeCode trades an authorization code for the account's token bundle.
// The full response is decoded into a Connection so it round-trips through
// storage, including the identity used for stale-credential guards.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code, redirectURI string) (model.Connection, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.clientKey},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {redirectURI},
	}

	endpoint := c.loginURL + "/services/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return model.Connection{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Connection{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Connection{}, fmt.Errorf("token request: status %d: %s", resp.StatusCode, readAPIError(resp.Body))
	}

	var conn model.Connection
	if err := json.NewDecoder(resp.Body).Decode(&conn); err != nil {
		return model.Connection{}, fmt.Errorf("decode token response: %w", err)
	}

	if conn.Identity == "" {
		return model.Connection{}, fmt.Errorf("token response missing account identity")
	}
	if conn.AccessToken == "" || conn.InstanceURL == "" {
		return model.Connection{}, fmt.Errorf("token response missing access token or instance url")
	}

	return conn, nil
}
