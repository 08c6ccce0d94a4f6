package nakama

import (
	"crazyeights/internal/domain"
	"crazyeights/wire"
)

func toWireCard(c domain.Card) wire.Card {
	return wire.Card{
		Suit: c.Suit.Letter(),
		Rank: c.Rank.Symbol(),
		ID:   c.ID(),
	}
}

func toWireCards(cards []domain.Card) []wire.Card {
	out := make([]wire.Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, toWireCard(c))
	}
	return out
}

// toWireSnapshot renders the game as one seat is allowed to see it: the
// recipient's own hand in full, the other hand as a count.
func toWireSnapshot(game *domain.Game, seat domain.Seat, undoDepth int) wire.Snapshot {
	snap := wire.Snapshot{
		GameID:        game.ID,
		Phase:         string(game.Phase),
		Turn:          int(game.Turn),
		Seat:          int(seat),
		Hand:          toWireCards(game.Hand(seat)),
		OpponentCount: game.HandSize(seat.Other()),
		DiscardCount:  len(game.DiscardPile),
		DrawPileSize:  len(game.DrawPile),
		ActiveSuit:    game.ActiveSuit.Letter(),
		Winner:        int(game.Winner),
		Status:        game.Status,
		Version:       game.Version,
		UndoDepth:     undoDepth,
		Stake:         game.Stake,
	}
	if top, ok := game.TopDiscard(); ok {
		c := toWireCard(top)
		snap.TopDiscard = &c
	}
	if game.ActiveRank != domain.RankNone {
		snap.ActiveRank = game.ActiveRank.Symbol()
	}
	if game.PendingWild != nil {
		snap.AwaitingSuit = true
	}
	return snap
}
