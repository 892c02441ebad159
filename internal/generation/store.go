package generation

import (
	"context"

	"careercoach-backend/internal/content"
)

// Store reads balances and commits a debit together with its history record.
type Store interface {
	Balance(ctx context.Context, userID string) (int, error)

	// Commit debits cost only if the balance covers it and appends record in
	// the same unit of work. It returns the remaining balance. When the debit
	// is refused it returns the current balance and ErrInsufficientCredits.
	Commit(ctx context.Context, userID string, cost int, record content.GeneratedContent) (int, error)
}
