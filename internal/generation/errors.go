package generation

import "errors"

var (
	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrInsufficientCredits is returned by Store.Commit when the conditional
	// debit finds fewer credits than the cost.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrTransactionFailed indicates the debit and history append did not commit.
	ErrTransactionFailed = errors.New("transaction failed")
)
