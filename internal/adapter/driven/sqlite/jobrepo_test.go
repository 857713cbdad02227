package sqlite

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksuzuki/salesync/internal/domain/model"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func makeJob(userID, objectName, start, last string, active bool) model.SyncJob {
	return model.SyncJob{
		UserID:     userID,
		ObjectName: objectName,
		StartDate:  date(start),
		LastDate:   date(last),
		Active:     active,
	}
}

func TestJobRepo_UpsertThenFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepo(db)
	ctx := context.Background()

	err := repo.Upsert(ctx, makeJob("u1", "Account", "2024-01-01", "2024-01-01", true))
	require.NoError(t, err)

	got, err := repo.Find(ctx, "u1", "Account")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Account", got.ObjectName)
	assert.Equal(t, date("2024-01-01"), got.StartDate)
	assert.Equal(t, date("2024-01-01"), got.LastDate)
	assert.True(t, got.Active)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestJobRepo_Find_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepo(db)

	got, err := repo.Find(context.Background(), "nobody", "Account")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestJobRepo_Upsert_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeJob("u1", "Contact", "2024-01-01", "2024-02-01", true)))
	require.NoError(t, repo.Upsert(ctx, makeJob("u1", "Contact", "2024-03-01", "2024-03-01", true)))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "upsert must keep a single row per (user, object)")

	assert.Equal(t, date("2024-03-01"), all[0].StartDate)
	assert.Equal(t, date("2024-03-01"), all[0].LastDate)
}

func TestJobRepo_ListDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeJob("u1", "Account", "2024-01-01", "2024-01-03", true)))
	require.NoError(t, repo.Upsert(ctx, makeJob("u1", "Contact", "2024-01-01", "2024-01-05", true)))
	require.NoError(t, repo.Upsert(ctx, makeJob("u2", "Account", "2024-01-01", "2024-01-02", false)))

	due, err := repo.ListDue(ctx, date("2024-01-05"))
	require.NoError(t, err)
	require.Len(t, due, 1)

	// Only the active job behind today's date: the caught-up job and the
	// paused job are both excluded.
	assert.Equal(t, "u1", due[0].UserID)
	assert.Equal(t, "Account", due[0].ObjectName)
}

func TestJobRepo_AdvanceWatermark(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeJob("u1", "Account", "2024-01-01", "2024-01-01", true)))

	err := repo.AdvanceWatermark(ctx, "u1", "Account", date("2024-01-05"))
	require.NoError(t, err)

	got, err := repo.Find(ctx, "u1", "Account")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, date("2024-01-05"), got.LastDate)
	assert.Equal(t, date("2024-01-01"), got.StartDate, "start date is immutable")
}

func TestJobRepo_AdvanceWatermark_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepo(db)

	err := repo.AdvanceWatermark(context.Background(), "nobody", "Account", date("2024-01-05"))
	assert.Error(t, err)
}

func TestJobRepo_SetActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeJob("u1", "Account", "2024-01-01", "2024-01-01", true)))

	require.NoError(t, repo.SetActive(ctx, "u1", "Account", false))

	got, err := repo.Find(ctx, "u1", "Account")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)

	due, err := repo.ListDue(ctx, date("2024-02-01"))
	require.NoError(t, err)
	assert.Empty(t, due, "paused jobs must not be listed as due")

	require.NoError(t, repo.SetActive(ctx, "u1", "Account", true))

	due, err = repo.ListDue(ctx, date("2024-02-01"))
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestJobRepo_SetActive_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepo(db)

	err := repo.SetActive(context.Background(), "nobody", "Account", false)
	assert.Error(t, err)
}
