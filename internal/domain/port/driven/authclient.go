package driven

import (
	"context"

	"github.com/ksuzuki/salesync/internal/domain/model"
)

// AuthClient defines the driven port for the source's OAuth authorization
// flow, consumed by the HTTP edge rather than the sync core.
type AuthClient interface {
	// AuthorizeURL builds the URL a browser is sent to for consent.
	AuthorizeURL(redirectURI string) string
	// ExchangeCode trades an authorization code for a connection bundle.
	ExchangeCode(ctx context.Context, code, redirectURI string) (model.Connection, error)
}
