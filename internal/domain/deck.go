package domain

import "math/rand"

// DeckSize is the number of cards in a full deck: 13 ranks across 4 suits.
const DeckSize = 52

// NewDeck returns the canonical 52-card deck: suits in enumeration order,
// ranks ace through king within each suit. No randomness.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for r := RankAce; r <= RankKing; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ShuffleDeck returns an unbiased random permutation of the given deck as a
// copy; the input is never mutated. A nil rng falls back to the process-wide
// source.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rng == nil {
		rand.Shuffle(len(out), swap)
	} else {
		rng.Shuffle(len(out), swap)
	}
	return out
}
