package model

import (
	"time"

	"cloud.google.com/go/civil"
)

// SyncJob is one import bookkeeping row: which object to sync for which
// account, where the backfill started, and how far it has progressed.
// At most one row exists per (UserID, ObjectName) pair; creation is an
// idempotent upsert. The core advances LastDate and flips Active but never
// deletes rows.
type SyncJob struct {
	ID         int64
	UserID     string
	ObjectName string
	// StartDate is the original backfill origin, immutable after creation.
	StartDate civil.Date
	// LastDate is the watermark: the inclusive start of the next fetch window.
	// Invariant: LastDate >= StartDate.
	LastDate  civil.Date
	Active    bool
	UpdatedAt time.Time
}

// IsDue reports whether a scheduled sweep should process this job today.
func (j SyncJob) IsDue(today civil.Date) bool {
	return j.Active && j.LastDate.Before(today)
}
