package credits

import "errors"

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidAmount indicates a non-positive credit amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidBundle indicates a purchase amount outside the configured bundles.
	ErrInvalidBundle = errors.New("unknown credit bundle")
)
