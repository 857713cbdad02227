package salesforce_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksuzuki/salesync/internal/adapter/driven/salesforce"
)

func TestAuthorizeURL(t *testing.T) {
	client := salesforce.NewOAuthClient("https://login.salesforce.com", "key123", "secret456")

	got := client.AuthorizeURL("https://app.example.com/callback")

	assert.True(t, strings.HasPrefix(got, "https://login.salesforce.com/services/oauth2/authorize?"))
	assert.Contains(t, got, "response_type=code")
	assert.Contains(t, got, "client_id=key123")
	assert.Contains(t, got, "redirect_uri=https%3A%2F%2Fapp.example.com%2Fcallback")
	assert.NotContains(t, got, "secret456", "client secret must never appear in the authorize URL")
}

func TestExchangeCode(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/services/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())

		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "key123", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret456", r.PostForm.Get("client_secret"))

		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":           "https://login.salesforce.com/id/00D/005",
			"instance_url": "https://example.my.salesforce.com",
			"access_token": "00Dxx!token",
			"token_type":   "Bearer",
			"issued_at":    "1704067200000",
		})
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := salesforce.NewOAuthClientWithHTTPClient(server.Client(), server.URL, "key123", "secret456")

	conn, err := client.ExchangeCode(context.Background(), "the-code", "https://app.example.com/callback")
	require.NoError(t, err)

	assert.Equal(t, "https://login.salesforce.com/id/00D/005", conn.Identity)
	assert.Equal(t, "https://example.my.salesforce.com", conn.InstanceURL)
	assert.Equal(t, "00Dxx!token", conn.AccessToken)
}

func TestExchangeCode_Rejected(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "invalid_grant", "error_description": "expired authorization code",
		})
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := salesforce.NewOAuthClientWithHTTPClient(server.Client(), server.URL, "key123", "secret456")

	_, err := client.ExchangeCode(context.Background(), "stale", "https://app.example.com/callback")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestExchangeCode_MissingIdentity(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok", "instance_url": "https://example.my.salesforce.com",
		})
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := salesforce.NewOAuthClientWithHTTPClient(server.Client(), server.URL, "key123", "secret456")

	_, err := client.ExchangeCode(context.Background(), "the-code", "https://app.example.com/callback")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity")
}
