package core

import (
	"context"
	"time"
)

// User is a back-office operator scoped to a company. The role drives which
// actions the permission gate surfaces; see Can in rbac.go.
type User struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"company_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserService provides user lookup operations.
type UserService interface {
	// GetByUsername finds an active user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns a user by primary key.
	GetByID(ctx context.Context, userID int) (*User, error)
}
