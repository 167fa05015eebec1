package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrMatchVersionConflict is a lost-update race on a score edit. Re-read and retry.
	ErrMatchVersionConflict = errors.New("match version conflict")
	ErrNotMatchCreator      = errors.New("only the match creator may do this")

	// ErrProfileConflict means the account already owns a different profile.
	// The session must be signed out.
	ErrProfileConflict = errors.New("account already bound to a different profile")

	ErrScannedIdentityIsPlaceholder = errors.New("scanned identity is a placeholder")
	ErrNotAPlaceholder              = errors.New("profile is not a placeholder")
	ErrAlreadyClaimed               = errors.New("placeholder already claimed")
	ErrUnlinkedIdentity             = errors.New("scanned identity has no linked account")
)
