package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

// BotIdentity is one entry of the seeded opponent pool. UserID starts empty
// in the data file and is filled in when the account is provisioned.
type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarIndex int    `json:"avatar_index"`
}

var (
	pool          []BotIdentity
	poolByUserID  map[string]BotIdentity
	loadOnce      sync.Once
	provisionOnce sync.Once
	loadErr       error
)

// LoadIdentities loads the bot pool from the given path.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		if err := json.Unmarshal(data, &pool); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}

		poolByUserID = make(map[string]BotIdentity, len(pool))
		for _, identity := range pool {
			if identity.UserID != "" {
				poolByUserID[identity.UserID] = identity
			}
		}
	})
	return loadErr
}

// ProvisionBots authenticates every pool entry against Nakama, creating the
// accounts on first run and tagging them with is_bot metadata. Entries keep
// the user ID Nakama assigned so matches can seat them directly.
func ProvisionBots(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) error {
	provisionOnce.Do(func() {
		if poolByUserID == nil {
			poolByUserID = make(map[string]BotIdentity, len(pool))
		}
		for i := range pool {
			identity := &pool[i]
			if identity.DeviceID == "" {
				continue
			}

			userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
			if err != nil {
				logger.Error("ProvisionBots: Failed to authenticate bot %s: %v", identity.Username, err)
				continue
			}
			identity.UserID = userID
			identity.Username = username

			metadata := map[string]interface{}{
				"is_bot":       true,
				"avatar_index": identity.AvatarIndex,
			}
			if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
				logger.Warn("ProvisionBots: Failed to update bot account %s: %v", userID, err)
			}

			poolByUserID[identity.UserID] = *identity
			logger.Info("ProvisionBots: Bot %s (%s) is ready.", identity.DisplayName, userID)
		}
	})
	return nil
}

// GetBotIdentity returns a pool entry by index (mod pool size). With an empty
// pool it fabricates a placeholder so matches still get an opponent seat.
func GetBotIdentity(index int) BotIdentity {
	if len(pool) == 0 {
		return BotIdentity{
			UserID:      fmt.Sprintf("bot-%d", index),
			DisplayName: fmt.Sprintf("AI Player %d", index),
		}
	}
	return pool[index%len(pool)]
}

// GetBotDisplayName returns the display name for a bot ID, falling back to
// the username. Empty string means the ID is not a bot.
func GetBotDisplayName(userID string) string {
	identity := poolByUserID[userID]
	if identity.DisplayName == "" {
		return identity.Username
	}
	return identity.DisplayName
}

// IsBot reports whether the given user ID belongs to the bot pool.
func IsBot(userID string) bool {
	_, ok := poolByUserID[userID]
	return ok
}
