package app

import "crazyeights/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined  EventKind = "player_joined"
	EventPlayerLeft    EventKind = "player_left"
	EventGameStarted   EventKind = "game_started"
	EventHandDealt     EventKind = "hand_dealt"
	EventCardPlayed    EventKind = "card_played"
	EventCardDrawn     EventKind = "card_drawn"
	EventSuitChosen    EventKind = "suit_chosen"
	EventTurnForfeited EventKind = "turn_forfeited"
	EventGameEnded     EventKind = "game_ended"
	EventStateReverted EventKind = "state_reverted"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	UserID string
	Seat   domain.Seat
}

type PlayerLeftPayload struct {
	UserID string
}

type GameStartedPayload struct {
	GameID       string
	Turn         domain.Seat
	TopCard      domain.Card
	ActiveSuit   domain.Suit
	ActiveRank   domain.Rank
	Stake        int64
	DrawPileSize int
}

type HandDealtPayload struct {
	UserID string
	Seat   domain.Seat
	Hand   []domain.Card
}

// CardPlayedPayload describes a resolved play. AwaitingSuit is true when the
// card is wild and its replacement suit has not been named yet, in which case
// the card sits outside the discard pile until the choice commits.
type CardPlayedPayload struct {
	Seat         domain.Seat
	Card         domain.Card
	ActiveSuit   domain.Suit
	ActiveRank   domain.Rank
	AwaitingSuit bool
	Turn         domain.Seat
	HandSize     int
}

// CardDrawnPayload describes one card moving from the draw pile into a hand.
// Card is meant for the drawer only; the dispatch layer redacts it for
// everyone else.
type CardDrawnPayload struct {
	Seat         domain.Seat
	Card         domain.Card
	Outcome      domain.DrawOutcome
	Turn         domain.Seat
	HandSize     int
	DrawPileSize int
}

type SuitChosenPayload struct {
	Seat       domain.Seat
	Card       domain.Card
	ActiveSuit domain.Suit
	Turn       domain.Seat
}

// TurnForfeitedPayload reports a turn lost to an empty draw pile.
type TurnForfeitedPayload struct {
	Seat domain.Seat
	Turn domain.Seat
}

type GameEndedPayload struct {
	GameID         string
	Winner         domain.Seat
	WinnerUserID   string
	Stake          int64
	BalanceChanges map[string]int64
}

type StateRevertedPayload struct {
	Game *domain.Game
}
