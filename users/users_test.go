package users_test

import (
	"testing"

	"github.com/jrsteele09/go-church-portal/internal/utils"
	"github.com/jrsteele09/go-church-portal/users"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := users.ParseRole(" mentor ")
	require.NoError(t, err)
	require.Equal(t, users.RoleMentor, r)

	_, err = users.ParseRole("pastor")
	require.Error(t, err)
}

func TestUser_RoleGates(t *testing.T) {
	tests := []struct {
		role       users.RoleType
		users      bool
		attendance bool
		posts      bool
	}{
		{users.RoleAdmin, true, true, true},
		{users.RoleMentor, false, true, false},
		{users.RoleWriter, false, false, true},
		{users.RoleMember, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			u := &users.User{ID: "u1", Role: tt.role}
			require.Equal(t, tt.users, u.CanManageUsers())
			require.Equal(t, tt.attendance, u.CanManageAttendance())
			require.Equal(t, tt.posts, u.CanWritePosts())
		})
	}
}

func TestUser_NilUserHasNoRoles(t *testing.T) {
	var u *users.User
	require.False(t, u.IsAdmin())
	require.False(t, u.CanManageAttendance())
	require.False(t, u.InGroup())
}

func TestUser_JourneySteps(t *testing.T) {
	u := &users.User{
		IsCommitted: utils.Ptr(true),
		IsBaptized:  utils.Ptr(true),
		Encounter:   utils.Ptr(false),
		GroupID:     utils.Ptr("g1"),
	}
	require.Equal(t, 2, u.JourneySteps())
	require.True(t, u.InGroup())
}
