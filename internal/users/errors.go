package users

import "errors"

var (
	// ErrNotFound indicates no user matched.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidInput indicates profile validation failed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsightsUnavailable indicates insights for the new industry could not be produced.
	ErrInsightsUnavailable = errors.New("industry insights unavailable")

	// ErrNegativeBalance is returned when a credit adjustment would drop below zero.
	ErrNegativeBalance = errors.New("credit balance would be negative")
)
