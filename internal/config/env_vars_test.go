package config_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-church-portal/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvVars_GetPort(t *testing.T) {
	t.Setenv("PORT", "9090")
	require.Equal(t, ":9090", config.New().GetPort())

	t.Setenv("PORT", ":7070")
	require.Equal(t, ":7070", config.New().GetPort())
}

func TestSession_GetRefreshStatusCodes(t *testing.T) {
	t.Run("defaults to 401 and 403", func(t *testing.T) {
		t.Setenv("REFRESH_STATUS_CODES", "")
		require.Equal(t, []int{http.StatusUnauthorized, http.StatusForbidden}, config.New().GetRefreshStatusCodes())
	})

	t.Run("single status", func(t *testing.T) {
		t.Setenv("REFRESH_STATUS_CODES", "403")
		require.Equal(t, []int{http.StatusForbidden}, config.New().GetRefreshStatusCodes())
	})

	t.Run("garbage falls back", func(t *testing.T) {
		t.Setenv("REFRESH_STATUS_CODES", "401,abc")
		require.Equal(t, []int{http.StatusUnauthorized, http.StatusForbidden}, config.New().GetRefreshStatusCodes())
	})
}

func TestSession_GetPersistTimeout(t *testing.T) {
	t.Setenv("PERSIST_TIMEOUT", "500ms")
	require.Equal(t, 500*time.Millisecond, config.New().GetPersistTimeout())

	t.Setenv("PERSIST_TIMEOUT", "soon")
	require.Equal(t, 2*time.Second, config.New().GetPersistTimeout())
}

func TestCors_GetAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	origins := config.New().GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://c.example.com"))
}
