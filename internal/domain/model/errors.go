package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a sync run failed. Every failed run carries exactly
// one kind; kinds are terminal for the current job and never retried in-process.
type ErrorKind string

const (
	// ErrKindNoUserConnection means no stored connection exists for the account,
	// or the stored token's identity does not match the requested account.
	ErrKindNoUserConnection ErrorKind = "NoUserConnection"
	// ErrKindNoImportingJob means no job row exists for the (account, object) pair.
	ErrKindNoImportingJob ErrorKind = "NoImportingJob"
	// ErrKindJobPaused means the job exists but its active flag is off.
	// Only the scheduled path reports this; on-demand runs ignore the flag.
	ErrKindJobPaused ErrorKind = "JobPaused"
	// ErrKindObjectNotFound means the source does not know the object type.
	ErrKindObjectNotFound ErrorKind = "ObjectNotFound"
	// ErrKindSourceUnavailable covers expired/invalid credentials and any
	// network or protocol failure talking to the source.
	ErrKindSourceUnavailable ErrorKind = "SourceUnavailable"
	// ErrKindLoadFailed covers table provisioning and batch append failures.
	ErrKindLoadFailed ErrorKind = "LoadFailed"
	// ErrKindWatermarkWriteFailed means data was appended but the watermark
	// write did not land; the next run will re-fetch the same window.
	ErrKindWatermarkWriteFailed ErrorKind = "WatermarkWriteFailed"
)

// SyncError tags an underlying error with an ErrorKind so the orchestrator can
// report a specific cause without re-wrapping it into a generic string.
type SyncError struct {
	Kind ErrorKind
	Err  error
}

func (e *SyncError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError wraps err with the given kind. err may be nil when the kind
// itself is the whole story (e.g. a missing job row).
func NewSyncError(kind ErrorKind, err error) *SyncError {
	return &SyncError{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, or "" if err carries no kind.
func KindOf(err error) ErrorKind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
