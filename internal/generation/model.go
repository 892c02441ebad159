package generation

import "careercoach-backend/internal/content"

// MaxPromptLength bounds prompts in characters.
const MaxPromptLength = 2000

// Status is the outcome of a generation request.
type Status string

const (
	StatusDeclined  Status = "declined"
	StatusFailed    Status = "failed"
	StatusSucceeded Status = "succeeded"
)

// Cost returns the fixed credit price of a content type.
func Cost(t content.Type) int {
	switch t {
	case content.TypeImage:
		return 1
	case content.TypeVideo:
		return 5
	default:
		return 0
	}
}

// Result describes what happened to a request. Declined and Failed are
// expected outcomes, not errors.
type Result struct {
	Status Status

	// Declined
	Required int
	Balance  int

	// Failed
	Reason string

	// Succeeded
	ContentID        string
	ContentType      content.Type
	Data             string
	RemainingCredits int
}
