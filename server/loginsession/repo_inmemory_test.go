package loginsession_test

import (
	"testing"
	"time"

	portalerrors "github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/navigation"
	"github.com/jrsteele09/go-church-portal/server/loginsession"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo_UpsertGetDelete(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := loginsession.NewInMemoryRepo(loginsession.WithClock(func() time.Time { return now }))

	nav := navigation.NewRecorder()
	require.NoError(t, repo.Upsert("b1", &loginsession.Entry{Navigator: nav}))
	require.Equal(t, 1, repo.Len())

	now = now.Add(time.Minute)
	entry, err := repo.Get("b1")
	require.NoError(t, err)
	require.Equal(t, "b1", entry.BrowserID)
	require.Same(t, nav, entry.Navigator)
	require.Equal(t, now.Add(-time.Minute), entry.CreatedAt)
	require.Equal(t, now, entry.LastSeen)

	require.NoError(t, repo.Delete("b1"))
	_, err = repo.Get("b1")
	require.ErrorIs(t, err, portalerrors.ErrNotFound)
	require.NoError(t, repo.Delete("b1"))
}

func TestInMemoryRepo_RejectsEmptyArguments(t *testing.T) {
	repo := loginsession.NewInMemoryRepo()
	require.Error(t, repo.Upsert("", &loginsession.Entry{}))
	require.Error(t, repo.Upsert("b1", nil))
	_, err := repo.Get("")
	require.Error(t, err)
	require.Error(t, repo.Delete(""))
}

func TestInMemoryRepo_Expire(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := loginsession.NewInMemoryRepo(loginsession.WithClock(func() time.Time { return now }))

	require.NoError(t, repo.Upsert("idle", &loginsession.Entry{}))
	now = now.Add(time.Hour)
	require.NoError(t, repo.Upsert("active", &loginsession.Entry{}))

	expired := repo.Expire(now.Add(-30 * time.Minute))
	require.Len(t, expired, 1)
	require.Equal(t, "idle", expired[0].BrowserID)
	require.Equal(t, 1, repo.Len())

	_, err := repo.Get("active")
	require.NoError(t, err)
}
