package driven

import (
	"context"

	"github.com/ksuzuki/salesync/internal/domain/model"
)

// Warehouse defines the driven port for the destination analytical store.
// One destination table exists per object type in the configured dataset.
type Warehouse interface {
	// EnsureTable looks up the object's table and creates it with the given
	// columns if absent. An existing table is returned as-is: schema drift is
	// not detected or migrated, it surfaces later as a failed load.
	EnsureTable(ctx context.Context, objectName string, schema model.ColumnSchema) error
	// Append loads the rows into the object's table in one atomic batch and
	// returns the load identifier. No partial inserts: one bad row fails the
	// whole batch.
	Append(ctx context.Context, objectName string, rows []model.Row, schema model.ColumnSchema) (string, error)
}
