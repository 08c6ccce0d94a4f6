package wire

// Card is the wire form of a single playing card.
type Card struct {
	Suit string `json:"suit"` // "H","D","C","S"
	Rank string `json:"rank"` // "A","2".."10","J","Q","K"
	ID   string `json:"id"`   // rank then suit, e.g. "7H"
}

// Label is the match label advertised for quick-match queries.
type Label struct {
	Open  bool   `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}

/* ---- client requests ---- */

// StartGameRequest asks the server to deal a fresh game.
type StartGameRequest struct {
	Tier string `json:"tier,omitempty"`
}

// PlayCardRequest plays the identified card from the caller's hand.
type PlayCardRequest struct {
	CardID string `json:"card_id"`
}

// ChooseSuitRequest commits the active suit for a played eight.
type ChooseSuitRequest struct {
	Suit string `json:"suit"` // "H","D","C","S"
}

/* ---- server events ---- */

type PlayerJoinedEvent struct {
	UserID      string `json:"user_id"`
	Seat        int    `json:"seat"`
	DisplayName string `json:"display_name,omitempty"`
}

type PlayerLeftEvent struct {
	UserID string `json:"user_id"`
}

type GameStartedEvent struct {
	GameID       string `json:"game_id"`
	Turn         int    `json:"turn"`
	TopCard      Card   `json:"top_card"`
	ActiveSuit   string `json:"active_suit"`
	ActiveRank   string `json:"active_rank,omitempty"`
	Stake        int64  `json:"stake"`
	DrawPileSize int    `json:"draw_pile_size"`
}

type HandDealtEvent struct {
	Seat int    `json:"seat"`
	Hand []Card `json:"hand"`
}

type CardPlayedEvent struct {
	Seat         int    `json:"seat"`
	Card         Card   `json:"card"`
	ActiveSuit   string `json:"active_suit,omitempty"`
	ActiveRank   string `json:"active_rank,omitempty"`
	AwaitingSuit bool   `json:"awaiting_suit,omitempty"`
	Turn         int    `json:"turn"`
	HandSize     int    `json:"hand_size"`
}

// CardDrawnEvent reports a draw. Card is set only on the copy sent to the
// drawer; everyone else learns the outcome and the new counts.
type CardDrawnEvent struct {
	Seat         int    `json:"seat"`
	Card         *Card  `json:"card,omitempty"`
	Outcome      string `json:"outcome"` // "turn_continues" or "turn_passes"
	Turn         int    `json:"turn"`
	HandSize     int    `json:"hand_size"`
	DrawPileSize int    `json:"draw_pile_size"`
}

type SuitChosenEvent struct {
	Seat       int    `json:"seat"`
	Card       Card   `json:"card"`
	ActiveSuit string `json:"active_suit"`
	Turn       int    `json:"turn"`
}

type TurnForfeitedEvent struct {
	Seat int `json:"seat"`
	Turn int `json:"turn"`
}

type GameEndedEvent struct {
	GameID         string           `json:"game_id"`
	Winner         int              `json:"winner"`
	WinnerUserID   string           `json:"winner_user_id"`
	Stake          int64            `json:"stake"`
	BalanceChanges map[string]int64 `json:"balance_changes,omitempty"`
	Receipt        string           `json:"receipt,omitempty"`
}

// GameErrorEvent is sent privately to the caller whose request was refused.
type GameErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Snapshot is the full view of a game as one recipient may see it. The other
// seat's hand is carried as a count only. It is the payload of both
// OpStateSnapshot (join, rejoin) and OpStateReverted (undo).
type Snapshot struct {
	GameID        string `json:"game_id"`
	Phase         string `json:"phase"`
	Turn          int    `json:"turn"`
	Seat          int    `json:"seat"`
	Hand          []Card `json:"hand"`
	OpponentCount int    `json:"opponent_count"`
	TopDiscard    *Card  `json:"top_discard,omitempty"`
	DiscardCount  int    `json:"discard_count"`
	DrawPileSize  int    `json:"draw_pile_size"`
	ActiveSuit    string `json:"active_suit,omitempty"`
	ActiveRank    string `json:"active_rank,omitempty"`
	AwaitingSuit  bool   `json:"awaiting_suit,omitempty"`
	Winner        int    `json:"winner"`
	Status        string `json:"status,omitempty"`
	Version       uint64 `json:"version"`
	UndoDepth     int    `json:"undo_depth"`
	Stake         int64  `json:"stake"`
}

/* ---- rpc payloads ---- */

// QuickMatchResponse returns the match the caller should join.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
}

// ResultRecord is one stored finished-game record.
type ResultRecord struct {
	GameID     string `json:"game_id"`
	WinnerID   string `json:"winner_id"`
	LoserID    string `json:"loser_id"`
	Stake      int64  `json:"stake"`
	FinishedAt int64  `json:"finished_at"` // unix seconds
	Receipt    string `json:"receipt,omitempty"`
}

// RecentResultsResponse lists the caller's recent finished games, newest
// first.
type RecentResultsResponse struct {
	Results []ResultRecord `json:"results"`
}
