package services

import "errors"

// Every service operation fails with exactly one of these sentinels (possibly
// wrapped). Handlers map them onto HTTP status classes; anything outside the
// taxonomy is a 500.
var (
	// ErrNotFound covers both a genuinely absent entity and an entity the
	// caller has no visibility into. The two are deliberately conflated so
	// non-members cannot probe for project or task existence.
	ErrNotFound = errors.New("not found")

	// ErrForbidden: authenticated but insufficient role.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized: missing/invalid session, bad credential or token.
	ErrUnauthorized = errors.New("unauthorized")

	ErrEmailTaken    = errors.New("email already registered")
	ErrAlreadyMember = errors.New("user is already on the project")
	ErrNotAMember    = errors.New("user is not a collaborator on the project")
	ErrUserNotFound  = errors.New("user not found")
	ErrTokenInvalid  = errors.New("token invalid or expired")
	ErrNotConfirmed  = errors.New("account not confirmed")
	ErrInvalidStatus = errors.New("invalid task status")
)
