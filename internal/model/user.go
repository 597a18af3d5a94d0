package model

import "time"

// User represents an authentication user.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
	RoleGuest   = "guest"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
// Unknown roles on either side fail closed.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:   4,
		RoleManager: 3,
		RoleUser:    2,
		RoleGuest:   1,
	}
	rl, ok := levels[role]
	ml, minOK := levels[minimum]
	if !ok || !minOK {
		return false
	}
	return rl >= ml
}

// DisplayName returns the name recorded in audit entries for this user.
func (u *User) DisplayName() string {
	if u == nil || u.Username == "" {
		return "Unknown"
	}
	return u.Username
}
