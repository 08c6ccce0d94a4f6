package bot

import (
	"crazyeights/internal/domain"
)

// Brain is the interface that all opponent strategies must implement.
// CalculateMove returns a legal play or a draw signal; wild plays carry the
// replacement suit. OnEvent lets a strategy watch the table between turns.
type Brain interface {
	CalculateMove(game *domain.Game, seat domain.Seat) (domain.Move, error)
	OnEvent(event interface{})
}
