package models

// Role is the caller's application role.
type Role string

const (
	RoleParent        Role = "parent"
	RoleChild         Role = "child"
	RoleTherapist     Role = "therapist"
	RoleClinicAdmin   Role = "clinic_admin"
	RolePlatformAdmin Role = "platform_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleChild, RoleTherapist, RoleClinicAdmin, RolePlatformAdmin:
		return true
	}
	return false
}

// Identity is the authenticated caller. It is resolved once per request and handed to every
// operation that needs to know who is acting.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != "" && i.Role.Valid()
}

// IsAdmin reports whether the identity may perform moderation.
func (i Identity) IsAdmin() bool {
	return i.Authenticated() && i.Role == RolePlatformAdmin
}
