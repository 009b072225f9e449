package models

import (
	"strings"
	"time"
)

type User struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	ClinicID    *string   `json:"clinic_id,omitempty"` // clinic_admin accounts only
	IsActive    bool      `json:"is_active"`

	PasswordHash string `json:"-"` // Don't return password in JSON
}

// Identity returns the identity a session for this user carries.
func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Role: u.Role}
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignupRoles are the roles a user may pick for themselves. Clinic admins come from invites and
// platform admins are provisioned out of band.
var SignupRoles = map[Role]bool{
	RoleParent:    true,
	RoleTherapist: true,
}
