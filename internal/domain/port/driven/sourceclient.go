package driven

import (
	"context"

	"github.com/ksuzuki/salesync/internal/domain/model"
)

// SourceClient defines the driven port for reading one account's data from
// the source CRM. Implementations are bound to a single credential. Both
// operations are read-only and report failures as kind-tagged errors
// (ObjectNotFound, SourceUnavailable).
type SourceClient interface {
	// Describe returns the field schema of an object type, fetched fresh on
	// every call.
	Describe(ctx context.Context, objectName string) ([]model.FieldDescriptor, error)
	// Query returns every non-deleted record of the object type whose last
	// modification falls inside the window, transparently paging through the
	// full result set. A failure on any page fails the whole call.
	Query(ctx context.Context, objectName string, fields []string, window model.FetchWindow) ([]model.RawRecord, error)
}

// SourceClientFactory builds a SourceClient bound to a connection. The
// orchestrator resolves the account's credential per run and asks the factory
// for a client over it.
type SourceClientFactory interface {
	ClientFor(conn model.Connection) SourceClient
}
