package app

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"crazyeights/internal/domain"
)

// Service contains the Crazy Eights use-cases operating on domain state. All
// methods mutate the passed game in place and describe what happened as
// events; every successful mutating call bumps the game version exactly once,
// and failed calls leave everything but the advisory status untouched.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

var (
	ErrNoGame          = errors.New("no game in progress")
	ErrGameInProgress  = errors.New("game already in progress")
	ErrTooFewPlayers   = errors.New("not enough players to start")
	ErrNotYourTurn     = errors.New("not the human player's turn")
	ErrNotOpponentTurn = errors.New("not the opponent's turn")
	ErrUnknownCard     = errors.New("card not in hand")
	ErrIllegalCard     = errors.New("card is not a legal play")
	ErrNoPendingWild   = errors.New("no wild card awaiting a suit")
	ErrUnknownSuit     = errors.New("suit outside the enumerated set")
	ErrNothingToUndo   = errors.New("history is empty")
	ErrNoOpeningCard   = errors.New("no non-wild opening card available")
)

// OpponentPolicy selects the automated opponent's next move from the current
// game state. When the returned move plays a wild card it must also carry the
// replacement suit.
type OpponentPolicy interface {
	CalculateMove(game *domain.Game, seat domain.Seat) (domain.Move, error)
}

// StartGame deals a fresh game for the given seat occupants. seatIDs lists
// user IDs in seat order; empty strings mark unfilled seats.
func (s *Service) StartGame(seatIDs []string, stake int64) (*domain.Game, []Event, error) {
	var filled []string
	for _, id := range seatIDs {
		if id != "" {
			filled = append(filled, id)
		}
	}
	if len(filled) < MinPlayersToStartGame {
		return nil, nil, ErrTooFewPlayers
	}

	game := &domain.Game{
		ID:    uuid.NewString(),
		Seats: [2]string{filled[0], filled[1]},
		Stake: stake,
	}
	if err := s.deal(game); err != nil {
		return nil, nil, err
	}
	game.Version = 1

	return game, s.dealEvents(game), nil
}

// Restart discards the current game entirely and deals a fresh one for the
// same seats and stake. The undo history is cleared; the version continues
// from the old game so any scheduled move planned against it cannot apply.
func (s *Service) Restart(game *domain.Game, hist *History) (*domain.Game, []Event, error) {
	if game == nil {
		return nil, nil, ErrNoGame
	}

	next := &domain.Game{
		ID:    uuid.NewString(),
		Seats: game.Seats,
		Stake: game.Stake,
	}
	if err := s.deal(next); err != nil {
		return nil, nil, err
	}
	next.Version = game.Version + 1
	hist.Clear()

	return next, s.dealEvents(next), nil
}

// deal shuffles a fresh deck into two hands, an opening discard and the draw
// pile, leaving the game on the human's turn. The opening card is the first
// non-wild card past the dealt hands; wild cards skipped by that scan stay in
// the draw pile.
func (s *Service) deal(game *domain.Game) error {
	game.Phase = domain.PhaseDealing

	deck := domain.ShuffleDeck(domain.NewDeck(), s.rng)

	game.Hands[domain.SeatHuman] = append([]domain.Card(nil), deck[:InitialHandSize]...)
	game.Hands[domain.SeatOpponent] = append([]domain.Card(nil), deck[InitialHandSize:2*InitialHandSize]...)

	rest := deck[2*InitialHandSize:]
	opening := -1
	for i, c := range rest {
		if !c.IsWild() {
			opening = i
			break
		}
	}
	if opening < 0 {
		// unreachable with a 52-card deck: only four wild cards exist, so
		// the 36 cards left after dealing cannot all be wild
		return ErrNoOpeningCard
	}
	top := rest[opening]

	game.DiscardPile = []domain.Card{top}
	game.DrawPile = make([]domain.Card, 0, len(rest)-1)
	game.DrawPile = append(game.DrawPile, rest[:opening]...)
	game.DrawPile = append(game.DrawPile, rest[opening+1:]...)

	game.ActiveSuit = top.Suit
	game.ActiveRank = top.Rank
	game.PendingWild = nil
	game.Turn = domain.SeatHuman
	game.Winner = domain.SeatNone
	game.Phase = domain.PhaseHumanTurn
	game.Status = "Your turn."
	return nil
}

func (s *Service) dealEvents(game *domain.Game) []Event {
	events := make([]Event, 0, 3)
	for _, seat := range []domain.Seat{domain.SeatHuman, domain.SeatOpponent} {
		events = append(events, Event{
			Kind: EventHandDealt,
			Payload: HandDealtPayload{
				UserID: game.Seats[seat],
				Seat:   seat,
				Hand:   game.Hand(seat),
			},
			Recipients: []string{game.Seats[seat]},
		})
	}
	top, _ := game.TopDiscard()
	events = append(events, Event{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			GameID:       game.ID,
			Turn:         game.Turn,
			TopCard:      top,
			ActiveSuit:   game.ActiveSuit,
			ActiveRank:   game.ActiveRank,
			Stake:        game.Stake,
			DrawPileSize: len(game.DrawPile),
		},
	})
	return events
}

// PlayCard applies the human playing the card identified by cardID. Playing a
// wild card parks it as pending and awaits a suit choice before it reaches
// the discard pile.
func (s *Service) PlayCard(game *domain.Game, hist *History, cardID string) ([]Event, error) {
	if game == nil {
		return nil, ErrNoGame
	}
	if game.Phase != domain.PhaseHumanTurn {
		game.Status = "It's not your turn."
		return nil, ErrNotYourTurn
	}
	card, ok := domain.CardByID(game.Hand(domain.SeatHuman), cardID)
	if !ok {
		return nil, ErrUnknownCard
	}
	if !domain.IsLegalPlay(card, game.ActiveSuit, game.ActiveRank) {
		game.Status = "The " + card.String() + " can't be played right now."
		return nil, ErrIllegalCard
	}

	hist.Record(game)

	game.Hands[domain.SeatHuman] = domain.RemoveCard(game.Hand(domain.SeatHuman), card)

	if card.IsWild() {
		pending := card
		game.PendingWild = &pending
		game.Phase = domain.PhaseAwaitingSuitChoice
		game.Status = "Choose a suit for your eight."
		game.Version++
		return []Event{{
			Kind: EventCardPlayed,
			Payload: CardPlayedPayload{
				Seat:         domain.SeatHuman,
				Card:         card,
				ActiveSuit:   game.ActiveSuit,
				ActiveRank:   game.ActiveRank,
				AwaitingSuit: true,
				Turn:         game.Turn,
				HandSize:     game.HandSize(domain.SeatHuman),
			},
		}}, nil
	}

	game.DiscardPile = append(game.DiscardPile, card)
	game.ActiveSuit = card.Suit
	game.ActiveRank = card.Rank

	won := game.HandSize(domain.SeatHuman) == 0
	if won {
		s.finishGame(game, domain.SeatHuman)
	} else {
		game.Turn = domain.SeatOpponent
		game.Phase = domain.PhaseOpponentTurn
		game.Status = "Opponent's turn."
	}

	events := []Event{{
		Kind: EventCardPlayed,
		Payload: CardPlayedPayload{
			Seat:       domain.SeatHuman,
			Card:       card,
			ActiveSuit: game.ActiveSuit,
			ActiveRank: game.ActiveRank,
			Turn:       game.Turn,
			HandSize:   game.HandSize(domain.SeatHuman),
		},
	}}
	if won {
		events = append(events, s.gameEndedEvent(game))
	}
	game.Version++
	return events, nil
}

// DrawCard applies the human drawing from the pile. An empty pile forfeits
// the turn instead of erroring. Drawing a playable card keeps the turn; the
// human may play it, draw again, or sit on it.
func (s *Service) DrawCard(game *domain.Game, hist *History) ([]Event, error) {
	if game == nil {
		return nil, ErrNoGame
	}
	if game.Phase != domain.PhaseHumanTurn {
		game.Status = "It's not your turn."
		return nil, ErrNotYourTurn
	}

	hist.Record(game)

	if len(game.DrawPile) == 0 {
		game.Turn = domain.SeatOpponent
		game.Phase = domain.PhaseOpponentTurn
		game.Status = "Draw pile is empty. Turn passes to your opponent."
		game.Version++
		return []Event{{
			Kind:    EventTurnForfeited,
			Payload: TurnForfeitedPayload{Seat: domain.SeatHuman, Turn: game.Turn},
		}}, nil
	}

	card := game.DrawPile[0]
	game.DrawPile = game.DrawPile[1:]
	game.Hands[domain.SeatHuman] = append(game.Hands[domain.SeatHuman], card)

	outcome := domain.DrawTurnPasses
	if domain.IsLegalPlay(card, game.ActiveSuit, game.ActiveRank) {
		outcome = domain.DrawTurnContinues
		game.Status = "You drew the " + card.String() + ". It's playable."
	} else {
		game.Turn = domain.SeatOpponent
		game.Phase = domain.PhaseOpponentTurn
		game.Status = "You drew the " + card.String() + ". Opponent's turn."
	}
	game.Version++
	return []Event{{
		Kind: EventCardDrawn,
		Payload: CardDrawnPayload{
			Seat:         domain.SeatHuman,
			Card:         card,
			Outcome:      outcome,
			Turn:         game.Turn,
			HandSize:     game.HandSize(domain.SeatHuman),
			DrawPileSize: len(game.DrawPile),
		},
	}}, nil
}

// ChooseSuit commits the suit for a pending wild play. The commit belongs to
// the same logical move as the play itself, so no extra history entry is
// recorded here.
func (s *Service) ChooseSuit(game *domain.Game, suit domain.Suit) ([]Event, error) {
	if game == nil {
		return nil, ErrNoGame
	}
	if suit < domain.SuitHearts || suit > domain.SuitSpades {
		return nil, ErrUnknownSuit
	}
	if game.Phase != domain.PhaseAwaitingSuitChoice || game.PendingWild == nil {
		game.Status = "It's not time to choose a suit."
		return nil, ErrNoPendingWild
	}

	card := *game.PendingWild
	game.PendingWild = nil
	game.DiscardPile = append(game.DiscardPile, card)
	game.ActiveSuit = suit
	game.ActiveRank = domain.RankNone

	won := game.HandSize(domain.SeatHuman) == 0
	if won {
		s.finishGame(game, domain.SeatHuman)
	} else {
		game.Turn = domain.SeatOpponent
		game.Phase = domain.PhaseOpponentTurn
		game.Status = "Suit is now " + suit.String() + ". Opponent's turn."
	}

	events := []Event{{
		Kind: EventSuitChosen,
		Payload: SuitChosenPayload{
			Seat:       domain.SeatHuman,
			Card:       card,
			ActiveSuit: suit,
			Turn:       game.Turn,
		},
	}}
	if won {
		events = append(events, s.gameEndedEvent(game))
	}
	game.Version++
	return events, nil
}

// OpponentTurn resolves the automated opponent's whole turn: policy-selected
// plays and draws until the turn passes back or the game ends. A single
// history entry covers the full turn, so one undo rewinds all of it.
func (s *Service) OpponentTurn(game *domain.Game, hist *History, policy OpponentPolicy) ([]Event, error) {
	if game == nil {
		return nil, ErrNoGame
	}
	if game.Phase != domain.PhaseOpponentTurn {
		return nil, ErrNotOpponentTurn
	}

	hist.Record(game)

	var events []Event
	for {
		move, err := policy.CalculateMove(game, domain.SeatOpponent)
		if err != nil {
			if len(events) > 0 {
				game.Version++
			}
			return events, err
		}

		if move.Draw {
			if len(game.DrawPile) == 0 {
				game.Turn = domain.SeatHuman
				game.Phase = domain.PhaseHumanTurn
				game.Status = "Opponent has no play and the pile is empty. Your turn."
				events = append(events, Event{
					Kind:    EventTurnForfeited,
					Payload: TurnForfeitedPayload{Seat: domain.SeatOpponent, Turn: game.Turn},
				})
				break
			}

			card := game.DrawPile[0]
			game.DrawPile = game.DrawPile[1:]
			game.Hands[domain.SeatOpponent] = append(game.Hands[domain.SeatOpponent], card)

			outcome := domain.DrawTurnPasses
			if domain.IsLegalPlay(card, game.ActiveSuit, game.ActiveRank) {
				outcome = domain.DrawTurnContinues
				game.Status = "Opponent drew a card."
			} else {
				game.Turn = domain.SeatHuman
				game.Phase = domain.PhaseHumanTurn
				game.Status = "Opponent drew a card. Your turn."
			}
			events = append(events, Event{
				Kind: EventCardDrawn,
				Payload: CardDrawnPayload{
					Seat:         domain.SeatOpponent,
					Card:         card,
					Outcome:      outcome,
					Turn:         game.Turn,
					HandSize:     game.HandSize(domain.SeatOpponent),
					DrawPileSize: len(game.DrawPile),
				},
			})
			if outcome == domain.DrawTurnContinues {
				// policy gets another look with the drawn card in hand
				continue
			}
			break
		}

		card := move.Card
		if _, ok := domain.CardByID(game.Hand(domain.SeatOpponent), card.ID()); !ok {
			if len(events) > 0 {
				game.Version++
			}
			return events, ErrUnknownCard
		}
		if !domain.IsLegalPlay(card, game.ActiveSuit, game.ActiveRank) {
			if len(events) > 0 {
				game.Version++
			}
			return events, ErrIllegalCard
		}
		if card.IsWild() && (move.Suit < domain.SuitHearts || move.Suit > domain.SuitSpades) {
			if len(events) > 0 {
				game.Version++
			}
			return events, ErrUnknownSuit
		}

		game.Hands[domain.SeatOpponent] = domain.RemoveCard(game.Hand(domain.SeatOpponent), card)
		game.DiscardPile = append(game.DiscardPile, card)
		if card.IsWild() {
			game.ActiveSuit = move.Suit
			game.ActiveRank = domain.RankNone
		} else {
			game.ActiveSuit = card.Suit
			game.ActiveRank = card.Rank
		}

		won := game.HandSize(domain.SeatOpponent) == 0
		if won {
			s.finishGame(game, domain.SeatOpponent)
		} else {
			game.Turn = domain.SeatHuman
			game.Phase = domain.PhaseHumanTurn
			if card.IsWild() {
				game.Status = "Opponent played the " + card.String() + " and chose " + game.ActiveSuit.String() + ". Your turn."
			} else {
				game.Status = "Opponent played the " + card.String() + ". Your turn."
			}
		}

		events = append(events, Event{
			Kind: EventCardPlayed,
			Payload: CardPlayedPayload{
				Seat:       domain.SeatOpponent,
				Card:       card,
				ActiveSuit: game.ActiveSuit,
				ActiveRank: game.ActiveRank,
				Turn:       game.Turn,
				HandSize:   game.HandSize(domain.SeatOpponent),
			},
		})
		if won {
			events = append(events, s.gameEndedEvent(game))
		}
		break
	}

	game.Version++
	return events, nil
}

// Undo rewinds to the most recent snapshot. The restored state keeps every
// recorded field; only the version moves forward so stale scheduled work
// cannot apply to it. Restoring over an unchosen wild drops the pending card
// back into the hand it came from, since snapshots are taken before plays.
func (s *Service) Undo(game *domain.Game, hist *History) (*domain.Game, []Event, error) {
	if game == nil {
		return nil, nil, ErrNoGame
	}
	restored := hist.Pop()
	if restored == nil {
		return nil, nil, ErrNothingToUndo
	}
	restored.Version = game.Version + 1

	return restored, []Event{{
		Kind:    EventStateReverted,
		Payload: StateRevertedPayload{Game: restored},
	}}, nil
}

func (s *Service) finishGame(game *domain.Game, winner domain.Seat) {
	game.Phase = domain.PhaseFinished
	game.Winner = winner
	game.Turn = domain.SeatNone
	if winner == domain.SeatHuman {
		game.Status = "You win!"
	} else {
		game.Status = "Opponent wins."
	}
}

func (s *Service) gameEndedEvent(game *domain.Game) Event {
	settlement := game.CalculateSettlement()
	return Event{
		Kind: EventGameEnded,
		Payload: GameEndedPayload{
			GameID:         game.ID,
			Winner:         game.Winner,
			WinnerUserID:   game.Seats[game.Winner],
			Stake:          game.Stake,
			BalanceChanges: settlement.BalanceChanges,
		},
	}
}
