// Package v1 provides the business logic for API version 1: authentication,
// study sessions and pomodoro blocks.
//
// Error Handling:
// This package defines sentinel errors for every failure a caller can act on.
// They are wrapped with context using fmt.Errorf("%w") when returned, and the
// Web layer maps them to status codes with errors.Is.
//
// Example Usage:
//
//	if row == nil {
//	    return nil, fmt.Errorf("get study session %d: %w", id, ErrStudySessionNotFound)
//	}
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrStudySessionNotFound):
//	    c.JSON(http.StatusNotFound, gin.H{"error": "Session not found."})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
//	}
package v1

import "errors"

// Validation errors. HTTP Status: 422 Unprocessable Entity.
var (
	// ErrMalformedBody indicates the request body is not JSON or has fields of the wrong type.
	ErrMalformedBody = errors.New("malformed request body")

	// ErrMissingRegistrationFields indicates username, email or password was absent.
	ErrMissingRegistrationFields = errors.New("username, email and password are required")

	// ErrMissingLoginFields indicates username or password was absent.
	ErrMissingLoginFields = errors.New("username and password are required")

	// ErrPasswordTooLong indicates the password exceeds what bcrypt can hash.
	ErrPasswordTooLong = errors.New("password too long")

	// ErrSubjectRequired indicates a study session without a subject.
	ErrSubjectRequired = errors.New("subject is required")

	// ErrInvalidTotalMinutes indicates a total_minutes in an update that is negative
	// or larger than a 32-bit integer.
	ErrInvalidTotalMinutes = errors.New("total_minutes out of range")

	// ErrInvalidBlockType indicates a block_type other than work or break.
	ErrInvalidBlockType = errors.New("invalid block type")

	// ErrInvalidDuration indicates a duration_minutes that is not positive or does
	// not fit a 32-bit integer.
	ErrInvalidDuration = errors.New("duration_minutes out of range")
)

// Conflict errors. HTTP Status: 422 Unprocessable Entity.
var (
	// ErrUsernameTaken indicates the username already exists in the system.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken indicates the email already exists in the system.
	ErrEmailTaken = errors.New("email already registered")
)

// Authentication and authorization errors.
var (
	// ErrInvalidCredentials indicates the provided password is incorrect.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates the user does not exist in the system.
	// HTTP Status: 401 on login (don't reveal user existence), 404 on check_session.
	ErrUserNotFound = errors.New("user not found")

	// ErrNotAuthenticated indicates the request carries no live session.
	// HTTP Status: 401 Unauthorized
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrForbidden indicates the resource exists but belongs to another user.
	// HTTP Status: 403 Forbidden
	ErrForbidden = errors.New("forbidden")
)

// Lookup errors. HTTP Status: 404 Not Found.
var (
	// ErrStudySessionNotFound indicates no study session with that id is owned by the user.
	ErrStudySessionNotFound = errors.New("study session not found")

	// ErrBlockNotFound indicates no pomodoro block with that id exists.
	ErrBlockNotFound = errors.New("pomodoro block not found")
)
