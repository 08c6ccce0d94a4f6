package domain

import "testing"

func TestCardID(t *testing.T) {
	tests := []struct {
		name string
		card Card
		want string
	}{
		{name: "ace of hearts", card: Card{Suit: SuitHearts, Rank: RankAce}, want: "AH"},
		{name: "ten keeps both digits", card: Card{Suit: SuitDiamonds, Rank: RankTen}, want: "10D"},
		{name: "wild eight", card: Card{Suit: SuitSpades, Rank: RankEight}, want: "8S"},
		{name: "king of clubs", card: Card{Suit: SuitClubs, Rank: RankKing}, want: "KC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.card.ID(); got != tt.want {
				t.Fatalf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCardIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range NewDeck() {
		id := c.ID()
		if seen[id] {
			t.Fatalf("duplicate card ID: %s", id)
		}
		seen[id] = true
	}
}

func TestSuitFromLetter(t *testing.T) {
	for _, s := range Suits {
		got, ok := SuitFromLetter(s.Letter())
		if !ok || got != s {
			t.Fatalf("SuitFromLetter(%q) = %v, %v; want %v, true", s.Letter(), got, ok, s)
		}
	}
	if _, ok := SuitFromLetter("X"); ok {
		t.Fatalf("SuitFromLetter(%q) should not resolve", "X")
	}
}

func TestIsWild(t *testing.T) {
	if !(Card{Suit: SuitHearts, Rank: RankEight}).IsWild() {
		t.Fatalf("eight of hearts should be wild")
	}
	if (Card{Suit: SuitHearts, Rank: RankSeven}).IsWild() {
		t.Fatalf("seven of hearts should not be wild")
	}
}

func TestCardByID(t *testing.T) {
	hand := []Card{
		{Suit: SuitSpades, Rank: RankTen},
		{Suit: SuitHearts, Rank: RankSeven},
	}

	card, ok := CardByID(hand, "7H")
	if !ok || card != (Card{Suit: SuitHearts, Rank: RankSeven}) {
		t.Fatalf("CardByID(7H) = %v, %v; want seven of hearts, true", card, ok)
	}

	if _, ok := CardByID(hand, "AC"); ok {
		t.Fatalf("CardByID should miss for a card not in hand")
	}
}
