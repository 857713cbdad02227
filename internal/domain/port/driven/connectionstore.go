package driven

import (
	"context"

	"github.com/ksuzuki/salesync/internal/domain/model"
)

// ConnectionStore defines the driven port for per-account source credentials.
// The sync core only reads connections; the OAuth callback path writes them.
type ConnectionStore interface {
	// Get returns the connection for the account, or nil, nil when none is stored.
	Get(ctx context.Context, userID string) (*model.Connection, error)
	// Put creates or replaces the stored connection for the account.
	Put(ctx context.Context, userID string, conn model.Connection) error
}
