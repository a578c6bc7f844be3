// Package auth manages user accounts and token-based authentication for the
// HTTP boundary. The engine itself never consults it; handlers evaluate the
// capability gate with the identity this package establishes.
package auth

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/entity"
)

// User is an account that can hold capabilities.
type User struct {
	entity.BaseEntity

	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	DisplayName  string `db:"display_name" json:"displayName,omitempty"`

	// Capabilities the capability gate evaluates. "admin" short-circuits
	// the default policy.
	Capabilities []string `db:"capabilities" json:"capabilities"`

	IsActive bool `db:"is_active" json:"isActive"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	LastLoginAt *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

// Validate implements entity.Validatable.
func (u *User) Validate(ctx context.Context) error {
	if u.Username == "" {
		return apperror.NewValidation("username is required").
			WithDetail("field", "username")
	}
	if u.PasswordHash == "" {
		return apperror.NewValidation("password is required").
			WithDetail("field", "password")
	}
	return nil
}
