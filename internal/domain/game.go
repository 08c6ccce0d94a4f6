package domain

// Seat indexes a participant in the two-seat game.
type Seat int

const (
	// SeatNone marks an unassigned seat reference, e.g. no winner yet.
	SeatNone Seat = -1
	// SeatHuman is the human player's seat.
	SeatHuman Seat = 0
	// SeatOpponent is the automated opponent's seat.
	SeatOpponent Seat = 1
)

// Other returns the opposing seat. SeatNone maps to itself.
func (s Seat) Other() Seat {
	switch s {
	case SeatHuman:
		return SeatOpponent
	case SeatOpponent:
		return SeatHuman
	default:
		return SeatNone
	}
}

func (s Seat) String() string {
	switch s {
	case SeatHuman:
		return "human"
	case SeatOpponent:
		return "opponent"
	default:
		return "none"
	}
}

// Phase represents the lifecycle stage of a game.
type Phase string

const (
	// PhaseAwaitingStart indicates no game has been dealt yet.
	PhaseAwaitingStart Phase = "awaiting_start"
	// PhaseDealing indicates cards are being dealt. The deal completes
	// synchronously, so this phase is never observed from outside.
	PhaseDealing Phase = "dealing"
	// PhaseHumanTurn indicates the human player acts next.
	PhaseHumanTurn Phase = "human_turn"
	// PhaseOpponentTurn indicates the automated opponent acts next.
	PhaseOpponentTurn Phase = "opponent_turn"
	// PhaseAwaitingSuitChoice indicates a wild card was played by the human
	// and its replacement suit has not been named yet.
	PhaseAwaitingSuitChoice Phase = "awaiting_suit_choice"
	// PhaseFinished indicates the game has a winner. Only a restart leaves it.
	PhaseFinished Phase = "finished"
)

// Move is a resolved opponent decision: draw a card, or play Card. Suit
// carries the named replacement suit when the played card is wild.
type Move struct {
	Draw bool
	Card Card
	Suit Suit
}

// DrawOutcome describes what drawing a card did to the turn.
type DrawOutcome string

const (
	// DrawTurnContinues means the drawn card is immediately playable and the
	// drawer keeps the turn.
	DrawTurnContinues DrawOutcome = "turn_continues"
	// DrawTurnPasses means the drawn card is not playable and the turn moves
	// to the other seat.
	DrawTurnPasses DrawOutcome = "turn_passes"
	// DrawGameOver is part of the outcome contract but is never produced in
	// this ruleset: draws only grow hands, so they cannot end the game.
	DrawGameOver DrawOutcome = "game_over"
)

// Game holds the authoritative state for one Crazy Eights game. It is
// mutated exclusively by the app service's transition methods and replaced
// wholesale on restart.
type Game struct {
	ID    string
	Phase Phase

	Seats [2]string // user IDs bound to seats for the life of the game
	Stake int64     // wager settled at game end

	DrawPile    []Card
	DiscardPile []Card    // append order; the top card is the last element
	Hands       [2][]Card // indexed by Seat

	ActiveSuit  Suit
	ActiveRank  Rank  // RankNone while a wild play's suit override is in force
	PendingWild *Card // wild card removed from a hand, not yet discarded

	Turn   Seat
	Winner Seat

	// Status is an advisory, human-readable message updated on every
	// transition. Display only, never program logic.
	Status string

	// Version increases on every mutation. Scheduled work snapshots it and
	// must not apply once the live value differs.
	Version uint64
}

// Hand returns the cards held by seat, or nil for an invalid seat.
func (g *Game) Hand(seat Seat) []Card {
	if seat < SeatHuman || seat > SeatOpponent {
		return nil
	}
	return g.Hands[seat]
}

// HandSize returns the number of cards held by seat.
func (g *Game) HandSize(seat Seat) int {
	return len(g.Hand(seat))
}

// TopDiscard returns the most recently discarded card. ok is false only
// before the opening card has been placed.
func (g *Game) TopDiscard() (Card, bool) {
	if len(g.DiscardPile) == 0 {
		return Card{}, false
	}
	return g.DiscardPile[len(g.DiscardPile)-1], true
}

// Clone returns a deep copy sharing no memory with the receiver.
func (g *Game) Clone() *Game {
	out := *g
	out.DrawPile = cloneCards(g.DrawPile)
	out.DiscardPile = cloneCards(g.DiscardPile)
	for i := range g.Hands {
		out.Hands[i] = cloneCards(g.Hands[i])
	}
	if g.PendingWild != nil {
		pw := *g.PendingWild
		out.PendingWild = &pw
	}
	return &out
}

// cloneCards copies a card slice, preserving nil versus empty.
func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

// RemoveCard returns hand without the first occurrence of card. The input
// slice is not mutated.
func RemoveCard(hand []Card, card Card) []Card {
	out := make([]Card, 0, len(hand))
	removed := false
	for _, c := range hand {
		if !removed && c == card {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}
