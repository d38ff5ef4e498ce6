// Package repository defines error values that are reused across the
// repositories. These sentinels let higher layers such as the identity
// service distinguish failure scenarios without inspecting driver errors:
// ErrDuplicate signals a unique-constraint violation (email or phone number
// already taken), ErrNotFound signals that no row matched the lookup.
package repository

import "errors"

// ErrDuplicate is returned when an insert violates a unique index.
var ErrDuplicate = errors.New("record already exists")

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")
