package domain

import (
	"context"
	"time"
)

// User represents a registered account. The phone number is the login
// identifier and is unique across all users.
type User struct {
	ID           string // UUID
	Name         string // Display name
	Phone        string // Unique phone number used for login
	PasswordHash string // Bcrypt hashed password (not returned in API)
	IsActive     bool
	CreatedAt    time.Time
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
}
