package imports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoUpdateIsConditional(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	job := ImportJob{ID: "j1", Status: StatusPending, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, job))

	job.Status = StatusExtracting
	require.NoError(t, repo.Update(ctx, job, StatusPending))

	job.Status = StatusAnalyzing
	assert.ErrorIs(t, repo.Update(ctx, job, StatusPending), ErrStale)
	assert.ErrorIs(t, repo.Update(ctx, ImportJob{ID: "nope"}, StatusPending), ErrNotFound)

	got, err := repo.GetByID(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusExtracting, got.Status)
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, ImportJob{ID: "old", Status: StatusPending, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, ImportJob{ID: "new", Status: StatusPending, CreatedAt: base.Add(time.Hour)}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)

	require.NoError(t, repo.Delete(ctx, "old"))
	assert.ErrorIs(t, repo.Delete(ctx, "old"), ErrNotFound)
}
