package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// BetTier maps a tier ID to the stake wagered per game at that table.
type BetTier struct {
	ID      string `json:"id"`
	BaseBet int64  `json:"base_bet"`
}

// GameConfig is the tunable surface loaded from data/game_config.json.
type GameConfig struct {
	DefaultTier string    `json:"default_tier"`
	Tiers       []BetTier `json:"tiers"`
	// BotDelaySeconds is how long the opponent appears to deliberate before
	// its move lands. Zero falls back to the built-in default.
	BotDelaySeconds int `json:"bot_delay_seconds"`
}

const (
	defaultBaseBet         = 100
	defaultBotDelaySeconds = 2
)

var (
	cfg       *GameConfig
	stakeByID map[string]int64
	loadOnce  sync.Once
	loadErr   error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}

		stakeByID = make(map[string]int64, len(c.Tiers))
		for _, tier := range c.Tiers {
			stakeByID[tier.ID] = tier.BaseBet
		}
		cfg = &c
	})
	return loadErr
}

// GetBaseBet returns the stake for a tier ID. Unknown or empty IDs fall back
// to the default tier, then to a flat safe value.
func GetBaseBet(tierID string) int64 {
	if cfg == nil {
		return defaultBaseBet
	}
	if stake, ok := stakeByID[tierID]; ok {
		return stake
	}
	if stake, ok := stakeByID[cfg.DefaultTier]; ok {
		return stake
	}
	return defaultBaseBet
}

// GetBotDelaySeconds returns the configured opponent deliberation delay.
func GetBotDelaySeconds() int {
	if cfg == nil || cfg.BotDelaySeconds <= 0 {
		return defaultBotDelaySeconds
	}
	return cfg.BotDelaySeconds
}
