package repo

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPlanNotFound    = errors.New("plan not found")

	// ErrSessionLocked is returned when another action holds the session lock past the wait window.
	ErrSessionLocked = errors.New("session is busy")
)
