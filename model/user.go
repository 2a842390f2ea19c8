// model/user.go
package model

import "time"

type Role string

const (
	RoleUser      Role = "USER"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
	RoleUnknown   Role = "UNKNOWN"
)

// ParseRole maps a claim/request string to a Role, RoleUnknown when it
// doesn't match anything we grant.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleLibrarian, RoleAdmin:
		return Role(s)
	default:
		return RoleUnknown
	}
}

type UserState string

const (
	UserValid   UserState = "VALID"
	UserBlocked UserState = "BLOCKED"
)

type User struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"-"`
	Role            Role      `json:"role"`
	State           UserState `json:"state"`
	Fine            float64   `json:"fine"`
	FineLastChecked time.Time `json:"fine_last_checked"`
	Modified        time.Time `json:"modified"`
	CreatedAt       time.Time `json:"created_at"`
}

// RegisterReq represents user registration payload
// swagger:model RegisterReq
type RegisterReq struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginReq represents login payload
// swagger:model LoginReq
type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
