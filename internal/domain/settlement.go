package domain

// Settlement describes the wallet deltas produced by a finished game.
type Settlement struct {
	BalanceChanges map[string]int64 // user ID -> signed amount
}

// CalculateSettlement computes the zero-sum wager transfer for a finished
// game: the winner gains the stake, the loser pays it. An unfinished game
// settles to nothing.
func (g *Game) CalculateSettlement() Settlement {
	changes := make(map[string]int64)
	if g.Winner == SeatNone || g.Stake == 0 {
		return Settlement{BalanceChanges: changes}
	}
	winnerID := g.Seats[g.Winner]
	loserID := g.Seats[g.Winner.Other()]
	changes[winnerID] = g.Stake
	changes[loserID] = -g.Stake
	return Settlement{BalanceChanges: changes}
}
