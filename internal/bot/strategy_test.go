package bot

import (
	"testing"

	"crazyeights/internal/domain"
)

func TestStandardBrainPrefersNonWild(t *testing.T) {
	game := &domain.Game{
		Hands: [2][]domain.Card{
			nil,
			{
				{Suit: domain.SuitClubs, Rank: domain.RankEight},
				{Suit: domain.SuitHearts, Rank: domain.RankFour},
				{Suit: domain.SuitSpades, Rank: domain.RankNine},
			},
		},
		ActiveSuit: domain.SuitHearts,
		ActiveRank: domain.RankTwo,
	}

	brain := &StandardBrain{}
	move, err := brain.CalculateMove(game, domain.SeatOpponent)
	if err != nil {
		t.Fatalf("CalculateMove returned error: %v", err)
	}
	if move.Draw {
		t.Fatal("expected a play, got a draw")
	}
	want := domain.Card{Suit: domain.SuitHearts, Rank: domain.RankFour}
	if move.Card != want {
		t.Errorf("played %v, want %v", move.Card, want)
	}
}

func TestStandardBrainFallsBackToWild(t *testing.T) {
	game := &domain.Game{
		Hands: [2][]domain.Card{
			nil,
			{
				{Suit: domain.SuitClubs, Rank: domain.RankEight},
				{Suit: domain.SuitDiamonds, Rank: domain.RankFour},
				{Suit: domain.SuitDiamonds, Rank: domain.RankNine},
			},
		},
		ActiveSuit: domain.SuitHearts,
		ActiveRank: domain.RankTwo,
	}

	brain := &StandardBrain{}
	move, err := brain.CalculateMove(game, domain.SeatOpponent)
	if err != nil {
		t.Fatalf("CalculateMove returned error: %v", err)
	}
	if move.Draw {
		t.Fatal("expected a wild play, got a draw")
	}
	if !move.Card.IsWild() {
		t.Fatalf("played %v, want the eight of clubs", move.Card)
	}
	if move.Suit != domain.SuitDiamonds {
		t.Errorf("named suit %v, want diamonds", move.Suit)
	}
}

func TestStandardBrainDrawsWhenStuck(t *testing.T) {
	game := &domain.Game{
		Hands: [2][]domain.Card{
			nil,
			{
				{Suit: domain.SuitClubs, Rank: domain.RankFour},
				{Suit: domain.SuitDiamonds, Rank: domain.RankNine},
			},
		},
		ActiveSuit: domain.SuitHearts,
		ActiveRank: domain.RankTwo,
	}

	brain := &StandardBrain{}
	move, err := brain.CalculateMove(game, domain.SeatOpponent)
	if err != nil {
		t.Fatalf("CalculateMove returned error: %v", err)
	}
	if !move.Draw {
		t.Errorf("expected a draw, got a play of %v", move.Card)
	}
}

func TestBestSuit(t *testing.T) {
	eightClubs := domain.Card{Suit: domain.SuitClubs, Rank: domain.RankEight}

	tests := []struct {
		name    string
		hand    []domain.Card
		playing domain.Card
		want    domain.Suit
	}{
		{
			name: "most held suit wins",
			hand: []domain.Card{
				eightClubs,
				{Suit: domain.SuitSpades, Rank: domain.RankTwo},
				{Suit: domain.SuitSpades, Rank: domain.RankNine},
				{Suit: domain.SuitHearts, Rank: domain.RankFour},
			},
			playing: eightClubs,
			want:    domain.SuitSpades,
		},
		{
			name: "tie resolves to hearts",
			hand: []domain.Card{
				eightClubs,
				{Suit: domain.SuitHearts, Rank: domain.RankTwo},
				{Suit: domain.SuitSpades, Rank: domain.RankNine},
			},
			playing: eightClubs,
			want:    domain.SuitHearts,
		},
		{
			name: "played card does not count toward its own suit",
			hand: []domain.Card{
				eightClubs,
				{Suit: domain.SuitClubs, Rank: domain.RankFour},
				{Suit: domain.SuitDiamonds, Rank: domain.RankNine},
				{Suit: domain.SuitDiamonds, Rank: domain.RankTen},
			},
			playing: eightClubs,
			want:    domain.SuitDiamonds,
		},
		{
			name:    "wild is the only card",
			hand:    []domain.Card{eightClubs},
			playing: eightClubs,
			want:    domain.SuitHearts,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := bestSuit(tc.hand, tc.playing)
			if got != tc.want {
				t.Errorf("bestSuit = %v, want %v", got, tc.want)
			}
		})
	}
}
