package service

import "errors"

var (
	// ErrInvalidCredentials covers both unknown logins and wrong
	// passwords, deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLoginTaken is returned when registration uses an existing login.
	ErrLoginTaken = errors.New("login already taken")

	// ErrInvalidToken is returned for expired or malformed bearer tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmptyRequest is returned for requests with no records to process.
	ErrEmptyRequest = errors.New("empty request")
)
