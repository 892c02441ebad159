package credits

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercoach-backend/internal/users"
)

func newMemoryLedger(t *testing.T, startCredits int) (*Ledger, string) {
	t.Helper()
	repo := users.NewMemoryRepo()
	u, err := repo.Create(context.Background(), users.User{ID: "u1", AuthID: "google:1", Credits: startCredits})
	require.NoError(t, err)
	return NewLedger(NewMemoryStore(repo), nil), u.ID
}

func TestCreditReturnsNewBalance(t *testing.T) {
	ledger, userID := newMemoryLedger(t, 2)

	bal, err := ledger.Credit(context.Background(), userID, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, bal)

	bal, err = ledger.Balance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 12, bal)
}

func TestCreditRejectsNonPositive(t *testing.T) {
	ledger, userID := newMemoryLedger(t, 0)
	for _, amount := range []int{0, -5} {
		_, err := ledger.Credit(context.Background(), userID, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}

func TestCreditUnknownUser(t *testing.T) {
	ledger, _ := newMemoryLedger(t, 0)
	_, err := ledger.Credit(context.Background(), "missing", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurchaseValidatesBundle(t *testing.T) {
	ledger, userID := newMemoryLedger(t, 0)

	_, err := ledger.Purchase(context.Background(), userID, 7)
	assert.ErrorIs(t, err, ErrInvalidBundle)

	bal, err := ledger.Purchase(context.Background(), userID, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, bal)
}
