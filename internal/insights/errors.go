package insights

import "errors"

var (
	// ErrNotFound indicates no cached row exists for the industry.
	ErrNotFound = errors.New("insights not found")

	// ErrNotOnboarded indicates the user has not picked an industry yet.
	ErrNotOnboarded = errors.New("user has no industry")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderFailure indicates the text provider call failed.
	ErrProviderFailure = errors.New("insights provider failed")

	// ErrParse indicates the provider answered with malformed insights.
	ErrParse = errors.New("insights parse error")
)
