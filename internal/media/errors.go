package media

import "errors"

var (
	// ErrProviderFailure indicates every provider for the content type failed.
	ErrProviderFailure = errors.New("generation provider failed")

	// ErrUnsupportedType indicates a content type with no provider.
	ErrUnsupportedType = errors.New("unsupported content type")
)
