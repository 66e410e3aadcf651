package market

import "errors"

var (
	// ErrNotFound indicates a requested user, item or swap request is missing.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a signup with an email already on file.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a failed mock login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrNotOwner           = errors.New("not the item owner")
	ErrOwnItem            = errors.New("cannot request your own item")
	ErrUnavailable        = errors.New("item is not available")
	ErrNotPending         = errors.New("swap request is not pending")
	ErrInsufficientPoints = errors.New("insufficient points")
)
