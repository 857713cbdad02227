package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/ksuzuki/salesync/internal/domain/model"
	"github.com/ksuzuki/salesync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.JobStore = (*JobRepo)(nil)

// JobRepo is the SQLite implementation of the JobStore port interface.
// Dates are stored as ISO-8601 day strings in TEXT columns.
type JobRepo struct {
	db *DB
}

// NewJobRepo creates a new JobRepo backed by the given DB.
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

// Find retrieves a single job by account and object name.
// Returns nil, nil if the job does not exist.
func (r *JobRepo) Find(ctx context.Context, userID, objectName string) (*model.SyncJob, error) {
	const query = `
		SELECT id, user_id, object_name, start_date, last_date, active, updated_at
		FROM importing_jobs
		WHERE user_id = ? AND object_name = ?
	`

	job, err := scanJob(r.db.Reader.QueryRowContext(ctx, query, userID, objectName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job %s/%s: %w", userID, objectName, err)
	}
	return job, nil
}

// Upsert inserts or replaces a job row in a single atomic statement, so two
// overlapping creators cannot race a read-then-write existence check.
func (r *JobRepo) Upsert(ctx context.Context, job model.SyncJob) error {
	const query = `
		INSERT INTO importing_jobs (user_id, object_name, start_date, last_date, active, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, object_name) DO UPDATE SET
			start_date = excluded.start_date,
			last_date = excluded.last_date,
			active = excluded.active,
			updated_at = CURRENT_TIMESTAMP
	`

	active := 0
	if job.Active {
		active = 1
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		job.UserID, job.ObjectName, job.StartDate.String(), job.LastDate.String(), active,
	)
	if err != nil {
		return fmt.Errorf("upsert job %s/%s: %w", job.UserID, job.ObjectName, err)
	}

	return nil
}

// ListAll returns every job, ordered by account then object name.
func (r *JobRepo) ListAll(ctx context.Context) ([]model.SyncJob, error) {
	const query = `
		SELECT id, user_id, object_name, start_date, last_date, active, updated_at
		FROM importing_jobs
		ORDER BY user_id, object_name
	`

	return r.queryJobs(ctx, query)
}

// ListDue returns every active job whose watermark is behind today, ordered
// by account then object name. Paused jobs never appear here.
func (r *JobRepo) ListDue(ctx context.Context, today civil.Date) ([]model.SyncJob, error) {
	const query = `
		SELECT id, user_id, object_name, start_date, last_date, active, updated_at
		FROM importing_jobs
		WHERE active = 1 AND last_date < ?
		ORDER BY user_id, object_name
	`

	return r.queryJobs(ctx, query, today.String())
}

// AdvanceWatermark writes the new last-synced date for an existing job.
// Fails when no matching row exists.
func (r *JobRepo) AdvanceWatermark(ctx context.Context, userID, objectName string, newLast civil.Date) error {
	const query = `
		UPDATE importing_jobs
		SET last_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND object_name = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query, newLast.String(), userID, objectName)
	if err != nil {
		return fmt.Errorf("advance watermark %s/%s: %w", userID, objectName, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance watermark %s/%s: %w", userID, objectName, err)
	}
	if affected == 0 {
		return fmt.Errorf("advance watermark %s/%s: job not found", userID, objectName)
	}

	return nil
}

// SetActive pauses or resumes an existing job. Fails when no matching row exists.
func (r *JobRepo) SetActive(ctx context.Context, userID, objectName string, active bool) error {
	const query = `
		UPDATE importing_jobs
		SET active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND object_name = ?
	`

	val := 0
	if active {
		val = 1
	}

	res, err := r.db.Writer.ExecContext(ctx, query, val, userID, objectName)
	if err != nil {
		return fmt.Errorf("set active %s/%s: %w", userID, objectName, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set active %s/%s: %w", userID, objectName, err)
	}
	if affected == 0 {
		return fmt.Errorf("set active %s/%s: job not found", userID, objectName)
	}

	return nil
}

// queryJobs runs a multi-row job query and scans all results.
func (r *JobRepo) queryJobs(ctx context.Context, query string, args ...any) ([]model.SyncJob, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.SyncJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	return jobs, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

// scanJob scans one job row, parsing date and timestamp columns.
func scanJob(s scanner) (*model.SyncJob, error) {
	var (
		job       model.SyncJob
		startDate string
		lastDate  string
		active    int
		updatedAt string
	)

	if err := s.Scan(&job.ID, &job.UserID, &job.ObjectName, &startDate, &lastDate, &active, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if job.StartDate, err = civil.ParseDate(startDate); err != nil {
		return nil, fmt.Errorf("parse start_date %q: %w", startDate, err)
	}
	if job.LastDate, err = civil.ParseDate(lastDate); err != nil {
		return nil, fmt.Errorf("parse last_date %q: %w", lastDate, err)
	}
	job.Active = active != 0
	if job.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}

	return &job, nil
}

// parseTimestamp parses the formats SQLite emits for CURRENT_TIMESTAMP values.
func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
