package ports

import "context"

// GameResult is one finished-game record kept for the recent-games list.
type GameResult struct {
	GameID     string `json:"game_id"`
	WinnerID   string `json:"winner_id"`
	LoserID    string `json:"loser_id"`
	Stake      int64  `json:"stake"`
	FinishedAt int64  `json:"finished_at"` // unix seconds
	Receipt    string `json:"receipt,omitempty"`
}

// ResultPort defines the interface for persisting finished-game records.
type ResultPort interface {
	// SaveResult stores a copy of the record for each listed user.
	SaveResult(ctx context.Context, userIDs []string, result GameResult) error

	// ListRecentResults returns the user's stored records, newest first.
	ListRecentResults(ctx context.Context, userID string, limit int) ([]GameResult, error)
}
