package bot

import (
	"crazyeights/internal/domain"
)

// StandardBrain is the stock opponent strategy: play the first legal non-wild
// card in hand order, fall back to a wild, otherwise signal a draw. It is
// deliberately myopic; no lookahead and no hand shaping beyond the wild's
// suit pick.
type StandardBrain struct{}

func (b *StandardBrain) CalculateMove(game *domain.Game, seat domain.Seat) (domain.Move, error) {
	hand := game.Hand(seat)
	legal := domain.LegalPlays(hand, game.ActiveSuit, game.ActiveRank)
	if len(legal) == 0 {
		return domain.Move{Draw: true}, nil
	}

	for _, c := range legal {
		if !c.IsWild() {
			return domain.Move{Card: c}, nil
		}
	}

	wild := legal[0]
	return domain.Move{Card: wild, Suit: bestSuit(hand, wild)}, nil
}

// OnEvent is a no-op; the standard strategy keeps no table memory.
func (b *StandardBrain) OnEvent(event interface{}) {}

// bestSuit picks the suit the hand holds the most of, not counting the card
// about to be played. Ties resolve in canonical suit order.
func bestSuit(hand []domain.Card, playing domain.Card) domain.Suit {
	var counts [4]int
	skipped := false
	for _, c := range hand {
		if !skipped && c == playing {
			skipped = true
			continue
		}
		counts[c.Suit]++
	}

	best := domain.Suits[0]
	for _, s := range domain.Suits[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best
}
