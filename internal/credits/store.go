package credits

import "context"

// Store persists balances. Debits are deliberately absent; they only happen
// together with a history append inside the generation store.
type Store interface {
	Credit(ctx context.Context, userID string, amount int) (int, error)
	Balance(ctx context.Context, userID string) (int, error)
}
