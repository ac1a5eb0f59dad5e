package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors are shared by the API client, the session store and the page
// controllers. Callers compare with errors.Is.
// -----------------------------------------------------------------------------

// Authentication errors
var (
	ErrAuth             = errors.New("authentication failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotAuthenticated = errors.New("not logged in")
)

// Curriculum errors
var (
	ErrMilestoneNotFound  = errors.New("milestone not found")
	ErrContentUnavailable = errors.New("content not available")
	ErrLocked             = errors.New("milestone is locked")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
