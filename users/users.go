package users

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-church-portal/internal/utils"
)

// RoleType is the authorization level the backend assigns to a user.
type RoleType string

const (
	RoleAdmin  RoleType = "ADMIN"  // Can manage users, groups and everything below
	RoleMentor RoleType = "MENTOR" // Leads a connect group and records its attendance
	RoleWriter RoleType = "WRITER" // Writes and publishes blog posts
	RoleMember RoleType = "MEMBER" // Regular congregation member
)

// ParseRole converts the backend's role string into a RoleType.
func ParseRole(s string) (RoleType, error) {
	switch r := RoleType(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleMentor, RoleWriter, RoleMember:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// User is the profile the backend returns for an identity. The backend is the source of truth;
// the portal only caches it to drive role gating.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      RoleType  `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Gender    *Gender   `json:"gender,omitempty"`
	GroupID   *string   `json:"group_id,omitempty"`
	Group     *Group    `json:"group,omitempty"`
	Address   *string   `json:"address,omitempty"`
	BirthDate *string   `json:"birth_date,omitempty"`
	GoogleID  *string   `json:"google_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Discipleship journey
	IsCommitted *bool `json:"is_committed,omitempty"`
	IsBaptized  *bool `json:"is_baptized,omitempty"`
	Encounter   *bool `json:"encounter,omitempty"`
	Establish   *bool `json:"establish,omitempty"`
	Equip       *bool `json:"equip,omitempty"`
	Kom100      *bool `json:"kom_100,omitempty"`

	MentoredGroups []Group `json:"mentoredGroups,omitempty"`
}

// Group is a connect group led by a mentor.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MentorID  *string   `json:"mentor_id,omitempty"`
	Mentor    *User     `json:"mentor,omitempty"`
	Mentees   []User    `json:"mentees,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type PaginatedResponse[T any] struct {
	Results    []T        `json:"results"`
	Pagination Pagination `json:"pagination"`
}

type GroupResponse struct {
	Records    []Group    `json:"records"`
	Pagination Pagination `json:"pagination"`
}

// HasRole reports whether the user holds any of the given roles. A nil user holds none.
func (u *User) HasRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// CanManageUsers gates user and connect group management.
func (u *User) CanManageUsers() bool {
	return u.HasRole(RoleAdmin)
}

// CanManageAttendance gates connect attendance and its report.
func (u *User) CanManageAttendance() bool {
	return u.HasRole(RoleAdmin, RoleMentor)
}

// CanWritePosts gates the blog CMS.
func (u *User) CanWritePosts() bool {
	return u.HasRole(RoleAdmin, RoleWriter)
}

// InGroup reports whether the user belongs to a connect group.
func (u *User) InGroup() bool {
	return u != nil && utils.Value(u.GroupID) != ""
}

// JourneySteps counts the completed discipleship steps.
func (u *User) JourneySteps() int {
	steps := 0
	for _, done := range []*bool{u.IsCommitted, u.IsBaptized, u.Encounter, u.Establish, u.Equip, u.Kom100} {
		if utils.Value(done) {
			steps++
		}
	}
	return steps
}
