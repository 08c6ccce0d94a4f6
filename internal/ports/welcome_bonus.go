package ports

import "context"

// WelcomeBonusPort funds a freshly created account exactly once.
type WelcomeBonusPort interface {
	// GrantWelcomeBonusOnce credits amount to the user's wallet the first
	// time it is called for them. granted is false on repeat calls.
	GrantWelcomeBonusOnce(ctx context.Context, userID string, amount int64, metadata map[string]interface{}) (bool, error)
}
