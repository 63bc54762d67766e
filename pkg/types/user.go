package types

import "time"

// UserRole represents a user role in the system
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RolePharmacist UserRole = "pharmacist"
	RoleLabTech    UserRole = "lab_technician"
	RoleDoctor     UserRole = "doctor"
)

// UserClaims represents authenticated user claims carried through a request
type UserClaims struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Role        UserRole `json:"role"`
	OrgID       string   `json:"org_id"`
	Permissions []string `json:"permissions"`
}

// User represents a system user account
type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Role      UserRole  `json:"role" db:"role"`
	OrgID     string    `json:"org_id" db:"org_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
