package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"crazyeights/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// currencyGold is the wallet key every stake and bonus moves through.
const currencyGold = "gold"

// NakamaEconomyAdapter implements ports.EconomyPort on top of Nakama wallets.
type NakamaEconomyAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaEconomyAdapter creates a new economy adapter.
func NewNakamaEconomyAdapter(nk runtime.NakamaModule) *NakamaEconomyAdapter {
	return &NakamaEconomyAdapter{nk: nk}
}

// GetBalance reports the user's current gold balance.
func (a *NakamaEconomyAdapter) GetBalance(ctx context.Context, userID string) (int64, error) {
	account, err := a.nk.AccountGetId(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load account %s: %w", userID, err)
	}

	wallet := map[string]int64{}
	if err := json.Unmarshal([]byte(account.Wallet), &wallet); err != nil {
		return 0, fmt.Errorf("failed to decode wallet for %s: %w", userID, err)
	}
	return wallet[currencyGold], nil
}

// UpdateBalances applies each delta as its own ledgered wallet update.
// Zero deltas and blank user IDs are skipped.
func (a *NakamaEconomyAdapter) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	for _, update := range updates {
		if update.Amount == 0 || update.UserID == "" {
			continue
		}

		changeset := map[string]int64{currencyGold: update.Amount}
		if _, _, err := a.nk.WalletUpdate(ctx, update.UserID, changeset, update.Metadata, true); err != nil {
			return fmt.Errorf("failed to update wallet for user %s: %w", update.UserID, err)
		}
	}
	return nil
}

var _ ports.EconomyPort = (*NakamaEconomyAdapter)(nil)
