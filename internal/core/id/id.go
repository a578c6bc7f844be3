// Package id provides UUIDv7 generation for all entities and movement rows.
// UUIDv7 embeds a Unix timestamp in the high bits, so sorting by id is
// sorting by creation time. The ledger relies on this for supplier
// auto-detection tie-breaks: "highest movement id" equals "latest created".
package id

import (
	"github.com/google/uuid"
)

// ID is the primary key type used across the module.
type ID = uuid.UUID

// New generates a time-ordered UUIDv7.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source does; fall back to V4.
		return uuid.New()
	}
	return id
}

// Parse converts a string to an ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts a string to an ID, panicking on error.
// For constants and tests only.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero-value ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether id is the zero value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
