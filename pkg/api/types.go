package api

import "time"

// LoginRequest is the body of POST {loginPath}.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UserView is the public projection of a registered user. It never
// carries the password hash.
type UserView struct {
	UserKey     string    `json:"userKey"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Authorities []string  `json:"authorities"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PrincipalView describes the caller of GET /api/auth/me.
type PrincipalView struct {
	Username    string   `json:"username"`
	UserKey     string   `json:"userKey"`
	Email       string   `json:"email"`
	Authorities []string `json:"authorities"`
}
