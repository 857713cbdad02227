// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"

	"github.com/ksuzuki/salesync/internal/domain/model"
	"github.com/ksuzuki/salesync/internal/domain/port/driven"
)

// sweepRequest represents a manual sweep trigger.
type sweepRequest struct {
	done chan []model.RunOutcome
}

// SyncService orchestrates incremental sync runs: one (account, object) job
// at a time, credential resolution through warehouse load through watermark
// advance. Jobs never run concurrently within a service; the sweep loop and
// manual triggers are serialized on a single goroutine.
type SyncService struct {
	jobs        driven.JobStore
	connections driven.ConnectionStore
	clients     driven.SourceClientFactory
	warehouse   driven.Warehouse
	interval    time.Duration
	sweepCh     chan sweepRequest
	now         func() time.Time
}

// NewSyncService creates a new SyncService with all required dependencies.
func NewSyncService(
	jobs driven.JobStore,
	connections driven.ConnectionStore,
	clients driven.SourceClientFactory,
	warehouse driven.Warehouse,
	interval time.Duration,
) *SyncService {
	return &SyncService{
		jobs:        jobs,
		connections: connections,
		clients:     clients,
		warehouse:   warehouse,
		interval:    interval,
		sweepCh:     make(chan sweepRequest),
		now:         time.Now,
	}
}

// Start begins the sweep loop. It runs an immediate sweep, then sweeps on the
// configured interval, and serves manual sweep triggers in between. Start
// blocks until the context is canceled.
func (s *SyncService) Start(ctx context.Context) {
	s.RunSweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync service stopped")
			return
		case <-ticker.C:
			s.RunSweep(ctx)
		case req := <-s.sweepCh:
			req.done <- s.RunSweep(ctx)
		}
	}
}

// TriggerSweep runs a sweep on the service's own goroutine, bypassing the
// interval, and blocks until it completes or the context is canceled.
func (s *SyncService) TriggerSweep(ctx context.Context) ([]model.RunOutcome, error) {
	done := make(chan []model.RunOutcome, 1)

	select {
	case s.sweepCh <- sweepRequest{done: done}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case outcomes := <-done:
		return outcomes, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RunSweep processes every due job strictly sequentially and returns one
// outcome per job. A job's failure is reported and isolated; it never aborts
// the remaining jobs.
func (s *SyncService) RunSweep(ctx context.Context) []model.RunOutcome {
	start := time.Now()
	today := civil.DateOf(s.now().UTC())

	due, err := s.jobs.ListDue(ctx, today)
	if err != nil {
		slog.Error("list due jobs failed", "error", err)
		return nil
	}

	outcomes := make([]model.RunOutcome, 0, len(due))
	var sweepErrors int

	for _, job := range due {
		if ctx.Err() != nil {
			break
		}

		outcome := s.runScheduled(ctx, job, today)
		if outcome.Status == model.RunStatusError {
			slog.Error("job sync failed",
				"user", job.UserID,
				"object", job.ObjectName,
				"kind", string(outcome.Kind),
				"detail", outcome.Detail,
			)
			sweepErrors++
		}
		outcomes = append(outcomes, outcome)
	}

	slog.Info("sweep complete",
		"jobs", len(due),
		"errors", sweepErrors,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return outcomes
}

// RunOnce syncs a single (account, object) job on demand. Unlike the
// scheduled path it ignores the job's active flag, so a paused job can still
// be fetched explicitly.
func (s *SyncService) RunOnce(ctx context.Context, userID, objectName string) model.RunOutcome {
	today := civil.DateOf(s.now().UTC())

	conn, err := s.resolveConnection(ctx, userID)
	if err != nil {
		return model.ErrorOutcome(userID, objectName, err)
	}

	job, err := s.resolveJob(ctx, userID, objectName)
	if err != nil {
		return model.ErrorOutcome(userID, objectName, err)
	}

	return s.syncJob(ctx, *job, *conn, today)
}

// runScheduled syncs one due job during a sweep, applying the active-flag
// guard. ListDue already filters paused jobs; the guard also covers callers
// holding a stale job row.
func (s *SyncService) runScheduled(ctx context.Context, job model.SyncJob, today civil.Date) model.RunOutcome {
	conn, err := s.resolveConnection(ctx, job.UserID)
	if err != nil {
		return model.ErrorOutcome(job.UserID, job.ObjectName, err)
	}

	if !job.Active {
		return model.ErrorOutcome(job.UserID, job.ObjectName,
			model.NewSyncError(model.ErrKindJobPaused, fmt.Errorf("job %s/%s is paused", job.UserID, job.ObjectName)))
	}

	return s.syncJob(ctx, job, *conn, today)
}

// syncJob executes one run: window, describe, query, ensure table, transform,
// append, watermark advance. No step retries; the first failure ends the run
// with its kind, leaving prior state (including appended rows) in place.
func (s *SyncService) syncJob(ctx context.Context, job model.SyncJob, conn model.Connection, today civil.Date) model.RunOutcome {
	window := model.NextWindow(job.LastDate, today)
	newLast := model.NextWatermark(window)

	if window.IsEmpty() {
		// Watermark already at today: nothing to fetch, but the no-op run
		// still counts as a success.
		if err := s.jobs.AdvanceWatermark(ctx, job.UserID, job.ObjectName, newLast); err != nil {
			return model.ErrorOutcome(job.UserID, job.ObjectName,
				model.NewSyncError(model.ErrKindWatermarkWriteFailed, err))
		}
		return model.OKOutcome(job.UserID, job.ObjectName, window, 0, "")
	}

	client := s.clients.ClientFor(conn)

	fields, err := client.Describe(ctx, job.ObjectName)
	if err != nil {
		return model.ErrorOutcome(job.UserID, job.ObjectName, err)
	}

	records, err := client.Query(ctx, job.ObjectName, model.FieldNames(fields), window)
	if err != nil {
		return model.ErrorOutcome(job.UserID, job.ObjectName, err)
	}

	schema := model.BuildSchema(fields)
	if err := s.warehouse.EnsureTable(ctx, job.ObjectName, schema); err != nil {
		return model.ErrorOutcome(job.UserID, job.ObjectName, err)
	}

	rows := model.TransformRecords(records)

	var loadID string
	if len(rows) > 0 {
		loadID, err = s.warehouse.Append(ctx, job.ObjectName, rows, schema)
		if err != nil {
			return model.ErrorOutcome(job.UserID, job.ObjectName, err)
		}
	}

	if err := s.jobs.AdvanceWatermark(ctx, job.UserID, job.ObjectName, newLast); err != nil {
		// Rows are already appended; the next run re-fetches this window.
		// Accepted at-least-once tradeoff, reported as a failed run.
		return model.ErrorOutcome(job.UserID, job.ObjectName,
			model.NewSyncError(model.ErrKindWatermarkWriteFailed, err))
	}

	slog.Info("job synced",
		"user", job.UserID,
		"object", job.ObjectName,
		"window", window.String(),
		"records", len(rows),
		"load_id", loadID,
	)

	return model.OKOutcome(job.UserID, job.ObjectName, window, len(rows), loadID)
}

// resolveConnection loads the account's credential and verifies its embedded
// identity matches the requested account, guarding against stale or foreign
// connection rows.
func (s *SyncService) resolveConnection(ctx context.Context, userID string) (*model.Connection, error) {
	conn, err := s.connections.Get(ctx, userID)
	if err != nil {
		return nil, model.NewSyncError(model.ErrKindNoUserConnection, err)
	}
	if conn == nil {
		return nil, model.NewSyncError(model.ErrKindNoUserConnection,
			fmt.Errorf("no connection stored for account %q", userID))
	}
	if conn.Identity != userID {
		return nil, model.NewSyncError(model.ErrKindNoUserConnection,
			fmt.Errorf("stored connection identity %q does not match account %q", conn.Identity, userID))
	}
	return conn, nil
}

// resolveJob loads the job row for the pair. Absent rows and registry read
// failures both report as NoImportingJob; the detail distinguishes them.
func (s *SyncService) resolveJob(ctx context.Context, userID, objectName string) (*model.SyncJob, error) {
	job, err := s.jobs.Find(ctx, userID, objectName)
	if err != nil {
		return nil, model.NewSyncError(model.ErrKindNoImportingJob, err)
	}
	if job == nil {
		return nil, model.NewSyncError(model.ErrKindNoImportingJob,
			fmt.Errorf("no importing job for %s/%s", userID, objectName))
	}
	return job, nil
}
