package authflowrepo_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-church-portal/server/authflowrepo"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo_RoundTrip(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo()

	in := &authflowrepo.AuthFlowState{BrowserID: "b1", CodeVerifier: "v", Nonce: "n", ReturnURL: "/dashboard/users"}
	require.NoError(t, repo.Upsert("s1", in))
	in.Nonce = "changed"

	out, err := repo.Get("s1")
	require.NoError(t, err)
	require.Equal(t, "n", out.Nonce)
	require.Equal(t, "b1", out.BrowserID)
	require.False(t, out.CreatedAt.IsZero())

	require.NoError(t, repo.Delete("s1"))
	_, err = repo.Get("s1")
	require.Error(t, err)
}

func TestInMemoryRepo_Validation(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo()
	require.Error(t, repo.Upsert("", &authflowrepo.AuthFlowState{}))
	require.Error(t, repo.Upsert("s1", nil))
	_, err := repo.Get("")
	require.Error(t, err)
	require.Error(t, repo.Delete(""))
}

func TestInMemoryRepo_StaleFlowsAreNotFound(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := authflowrepo.NewInMemoryRepo(
		authflowrepo.WithTTL(time.Minute),
		authflowrepo.WithClock(func() time.Time { return now }),
	)

	require.NoError(t, repo.Upsert("s1", &authflowrepo.AuthFlowState{BrowserID: "b1"}))
	now = now.Add(2 * time.Minute)

	_, err := repo.Get("s1")
	require.Error(t, err)
}
