package domain

// IsLegalPlay reports whether card may be played against the active suit and
// rank. Wild cards are always playable. A non-wild card needs a suit match,
// or a rank match when an active rank is in force; RankNone means the most
// recent effective play was a wild, so only the suit restricts legality.
// Total function: no side effects, no failure modes.
func IsLegalPlay(card Card, activeSuit Suit, activeRank Rank) bool {
	if card.IsWild() {
		return true
	}
	if card.Suit == activeSuit {
		return true
	}
	return activeRank != RankNone && card.Rank == activeRank
}

// LegalPlays returns the playable subset of hand, preserving hand order.
func LegalPlays(hand []Card, activeSuit Suit, activeRank Rank) []Card {
	var legal []Card
	for _, c := range hand {
		if IsLegalPlay(c, activeSuit, activeRank) {
			legal = append(legal, c)
		}
	}
	return legal
}

// HasLegalPlay reports whether hand holds at least one playable card.
func HasLegalPlay(hand []Card, activeSuit Suit, activeRank Rank) bool {
	for _, c := range hand {
		if IsLegalPlay(c, activeSuit, activeRank) {
			return true
		}
	}
	return false
}
