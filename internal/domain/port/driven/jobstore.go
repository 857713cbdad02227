package driven

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/ksuzuki/salesync/internal/domain/model"
)

// JobStore defines the driven port for sync job bookkeeping.
type JobStore interface {
	// Find returns the job for the (account, object) pair, or nil, nil when
	// no row exists.
	Find(ctx context.Context, userID, objectName string) (*model.SyncJob, error)
	// Upsert creates or replaces the job row in a single atomic statement.
	Upsert(ctx context.Context, job model.SyncJob) error
	ListAll(ctx context.Context) ([]model.SyncJob, error)
	// ListDue returns every job with the active flag set and a watermark
	// behind today, i.e. the scheduled sweep's work list.
	ListDue(ctx context.Context, today civil.Date) ([]model.SyncJob, error)
	// AdvanceWatermark writes the new last-synced date for an existing job.
	// It fails when the row does not exist.
	AdvanceWatermark(ctx context.Context, userID, objectName string, newLast civil.Date) error
	// SetActive pauses or resumes an existing job.
	SetActive(ctx context.Context, userID, objectName string, active bool) error
}
