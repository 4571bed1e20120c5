package errors

import "errors"

// Application-level sentinels. Services return these (optionally wrapped with
// fmt.Errorf("%w: detail", ...)); the API layer maps them to HTTP statuses
// with errors.Is.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInvalidAmount     = errors.New("invalid amount")

	ErrTableNotFound     = errors.New("table not found")
	ErrTableFull         = errors.New("table is full")
	ErrAlreadySeated     = errors.New("already seated at this table")
	ErrNotSeated         = errors.New("not seated at this table")
	ErrInvalidBuyIn      = errors.New("buy-in outside table limits")
	ErrTableAccessDenied = errors.New("table access denied")
)
