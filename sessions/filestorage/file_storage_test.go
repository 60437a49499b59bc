package filestorage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/jrsteele09/go-church-portal/sessions/filestorage"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestFileStorage_PlainRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := filestorage.New(dir)
	require.NoError(t, err)

	_, found, err := s.Get(ctx, "session")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.Set(ctx, "session", `{"access_token":"T1"}`))
	v, found, err := s.Get(ctx, "session")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `{"access_token":"T1"}`, v)

	require.NoError(t, s.Delete(ctx, "session"))
	require.NoError(t, s.Delete(ctx, "session"))
	_, found, err = s.Get(ctx, "session")
	require.NoError(t, err)
	require.False(t, found)
}

func TestFileStorage_SealedAtRest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := filestorage.New(dir, filestorage.WithHexKey(testKeyHex))
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "session", `{"refresh_token":"secret-refresh"}`))

	onDisk, err := os.ReadFile(filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	require.False(t, strings.Contains(string(onDisk), "secret-refresh"))

	v, found, err := s.Get(ctx, "session")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `{"refresh_token":"secret-refresh"}`, v)
}

func TestFileStorage_WrongKeyFails(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := filestorage.New(dir, filestorage.WithHexKey(testKeyHex))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "user", `{}`))

	other, err := filestorage.New(dir, filestorage.WithHexKey(strings.Repeat("ff", 32)))
	require.NoError(t, err)
	_, _, err = other.Get(ctx, "user")
	require.ErrorIs(t, err, errors.ErrStorageCorrupt)
}

func TestFileStorage_LoadDiscardsSnapshotsSealedWithAnotherKey(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	old, err := filestorage.New(dir, filestorage.WithHexKey(testKeyHex))
	require.NoError(t, err)
	require.NoError(t, old.Set(ctx, sessions.KeySession, `{"access_token":"T1","refresh_token":"R1"}`))
	require.NoError(t, old.Set(ctx, sessions.KeyUser, `{"id":"user-1","role":"ADMIN"}`))

	rotated, err := filestorage.New(dir, filestorage.WithHexKey(strings.Repeat("ff", 32)))
	require.NoError(t, err)
	store := sessions.NewStore(rotated)
	require.NoError(t, store.Load(ctx))
	require.Nil(t, store.Session())
	require.Nil(t, store.User())

	for _, key := range []string{sessions.KeySession, sessions.KeyUser} {
		_, err := os.Stat(filepath.Join(dir, key+".json"))
		require.True(t, os.IsNotExist(err), key)
	}
}

func TestFileStorage_Validation(t *testing.T) {
	_, err := filestorage.New(t.TempDir(), filestorage.WithHexKey("abcd"))
	require.Error(t, err)

	s, err := filestorage.New(t.TempDir())
	require.NoError(t, err)
	require.Error(t, s.Set(context.Background(), "../escape", "x"))
}
