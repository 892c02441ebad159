package credits

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"careercoach-backend/internal/shared/metrics"
	"careercoach-backend/internal/shared/telemetry"
)

// DefaultBundles are the purchasable credit packs when none are configured.
var DefaultBundles = []int{10, 50}

// Ledger owns the per-user credit balance.
type Ledger struct {
	store   Store
	bundles []int
}

func NewLedger(store Store, bundles []int) *Ledger {
	if len(bundles) == 0 {
		bundles = DefaultBundles
	}
	return &Ledger{store: store, bundles: append([]int(nil), bundles...)}
}

// Bundles returns the purchasable amounts.
func (l *Ledger) Bundles() []int {
	return append([]int(nil), l.bundles...)
}

// Credit adds amount to the user's balance and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, userID string, amount int) (int, error) {
	if l == nil || l.store == nil {
		return 0, errors.New("ledger not configured")
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if userID == "" {
		return 0, ErrNotFound
	}
	return l.store.Credit(ctx, userID, amount)
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	if l == nil || l.store == nil {
		return 0, errors.New("ledger not configured")
	}
	if userID == "" {
		return 0, ErrNotFound
	}
	return l.store.Balance(ctx, userID)
}

// Purchase grants one of the configured bundles. No payment is taken.
func (l *Ledger) Purchase(ctx context.Context, userID string, bundle int) (int, error) {
	if l == nil {
		return 0, errors.New("ledger not configured")
	}
	if !slices.Contains(l.bundles, bundle) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBundle, bundle)
	}
	balance, err := l.Credit(ctx, userID, bundle)
	if err != nil {
		return 0, err
	}
	metrics.AddCreditsPurchased(bundle)
	telemetry.Info("credits.purchase", map[string]any{
		"user_id":     userID,
		"amount":      bundle,
		"new_balance": balance,
	})
	return balance, nil
}
