package domain

import (
	"testing"
)

func TestCalculateSettlement(t *testing.T) {
	tests := []struct {
		name            string
		winner          Seat
		stake           int64
		expectedChanges map[string]int64
	}{
		{
			name:   "human wins",
			winner: SeatHuman,
			stake:  100,
			expectedChanges: map[string]int64{
				"alice": 100,
				"bot-1": -100,
			},
		},
		{
			name:   "opponent wins",
			winner: SeatOpponent,
			stake:  250,
			expectedChanges: map[string]int64{
				"alice": -250,
				"bot-1": 250,
			},
		},
		{
			name:            "no winner settles nothing",
			winner:          SeatNone,
			stake:           100,
			expectedChanges: map[string]int64{},
		},
		{
			name:            "zero stake settles nothing",
			winner:          SeatHuman,
			stake:           0,
			expectedChanges: map[string]int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game := &Game{
				Seats:  [2]string{"alice", "bot-1"},
				Stake:  tt.stake,
				Winner: tt.winner,
			}

			settlement := game.CalculateSettlement()

			if len(settlement.BalanceChanges) != len(tt.expectedChanges) {
				t.Errorf("expected %d changes, got %d", len(tt.expectedChanges), len(settlement.BalanceChanges))
			}
			for uid, want := range tt.expectedChanges {
				if got := settlement.BalanceChanges[uid]; got != want {
					t.Errorf("player %s: got %d, want %d", uid, got, want)
				}
			}

			var sum int64
			for _, delta := range settlement.BalanceChanges {
				sum += delta
			}
			if sum != 0 {
				t.Errorf("settlement not zero-sum: %d", sum)
			}
		})
	}
}
