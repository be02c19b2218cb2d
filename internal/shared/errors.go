package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrSessionExpired occurs when a session token no longer resolves.
	ErrSessionExpired = errors.New("session expired")
)
