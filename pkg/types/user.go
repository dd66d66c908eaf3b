package types

import "github.com/angelmondragon/storefront/pkg/enums"

type User struct {
	ID    string         `json:"id"`
	Email string         `json:"email"`
	Role  enums.UserRole `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == enums.UserRoleAdmin
}

// Credentials is the login/registration form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

// AuthResponse is returned by both login and registration.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
