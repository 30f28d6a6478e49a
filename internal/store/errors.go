package store

import "errors"

var (
	// ErrExecutingQuery wraps database-level failures of a query.
	ErrExecutingQuery = errors.New("error executing query")

	// ErrUserNotFound is returned when a login lookup matches no user.
	ErrUserNotFound = errors.New("user not found")

	// ErrLoginTaken is returned when registration hits the unique login
	// constraint.
	ErrLoginTaken = errors.New("login already taken")

	// ErrSettingsNotFound is returned when an owner has no settings row yet.
	ErrSettingsNotFound = errors.New("settings not found")
)
