package models

import "time"

// Role identifies which of the three principal kinds an account belongs to.
// The legacy system spread these across users, panchayat_admins and
// super_admin tables with a free-form role string; here the set is closed.
type Role string

const (
	RoleCitizen      Role = "CITIZEN"
	RoleVillageAdmin Role = "VILLAGE_ADMIN"
	RoleSuperAdmin   Role = "SUPER_ADMIN"
)

// Valid reports whether the role is a member of the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleVillageAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Actor is the principal on whose behalf a core operation runs. Handlers
// build it from verified JWT claims and pass it explicitly; core code never
// reads ambient session state.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

// Valid reports whether the actor carries a usable identity.
func (a Actor) Valid() bool {
	return a.ID > 0 && a.Role.Valid()
}

// User represents an application account stored in the users table.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         Role       `db:"role" json:"role"`
	Village      *string    `db:"village" json:"village,omitempty"`
	Blocked      bool       `db:"blocked" json:"blocked"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *Role
	Blocked  *bool
	Village  string
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
