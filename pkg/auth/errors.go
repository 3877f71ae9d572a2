package auth

import "errors"

// Errors returned by the engine. All of them signal caller-correctable
// conditions; storage failures are wrapped separately with %w.
var (
	ErrAlreadyInitialized = errors.New("server has already been initialized")
	ErrInvalidAccessCode  = errors.New("invalid access code")
	ErrUserExists         = errors.New("user already exists")
	ErrNoSuchAccount      = errors.New("account does not exist")
	ErrBadPassword        = errors.New("password is incorrect")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidRole        = errors.New("invalid role")
	ErrForbidden          = errors.New("insufficient permissions")
)
