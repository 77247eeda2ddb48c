package shared

import "errors"

var (
	// ErrNotFound indicates a referenced resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied indicates the actor's role/action combination is disallowed.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidScope indicates a mutation was attempted against the aggregate pseudo-site.
	ErrInvalidScope = errors.New("invalid scope")
)
