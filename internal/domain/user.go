package domain

import "time"

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Address      string    `json:"address"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role   Role
	Search string
	SortBy string
	Desc   bool
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// UserDeletion describes the side effects of deleting a user: the stores it
// owned are gone and every store it had rated has a fresh aggregate.
type UserDeletion struct {
	UserID          string
	DeletedStoreIDs []string
	Aggregates      []StoreAggregate
}
