package models

import "time"

// User is a member of the ledger. ID is the opaque identity key handed over by
// the identity provider and is stable across logins.
type User struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Avatar      *string    `json:"avatar,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// Identity is what the upstream identity collaborator resolves for a caller.
type Identity struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar,omitempty"`
}
