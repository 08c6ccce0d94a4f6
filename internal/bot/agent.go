package bot

import (
	"crazyeights/internal/domain"
)

// Agent couples a bot identity with a strategy. The match handler holds one
// Agent per match and asks it for a move whenever the opponent seat is up.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// CalculateMove delegates to the agent's strategy.
func (a *Agent) CalculateMove(game *domain.Game, seat domain.Seat) (domain.Move, error) {
	return a.Strategy.CalculateMove(game, seat)
}

// OnGameEvent forwards table events to the strategy so stateful brains can
// track what has been seen.
func (a *Agent) OnGameEvent(event interface{}) {
	a.Strategy.OnEvent(event)
}
