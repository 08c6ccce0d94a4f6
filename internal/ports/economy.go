package ports

import "context"

// WalletUpdate is one signed gold delta for a single user, with optional
// ledger metadata.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// EconomyPort applies stake settlements to player wallets.
type EconomyPort interface {
	// GetBalance reports the user's current gold balance.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// UpdateBalances applies the deltas in order. Zero amounts are skipped.
	UpdateBalances(ctx context.Context, updates []WalletUpdate) error
}
