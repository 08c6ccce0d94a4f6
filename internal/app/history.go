package app

import "crazyeights/internal/domain"

// historyLimit caps stored snapshots. The oldest entry is evicted first.
const historyLimit = 10

// History keeps full game snapshots taken before applied moves, newest last.
// One snapshot covers one whole turn step, so popping rewinds exactly one
// human or opponent move.
type History struct {
	snapshots []*domain.Game
}

func NewHistory() *History {
	return &History{}
}

// Record stores a deep copy of game, evicting the oldest entry over the cap.
func (h *History) Record(game *domain.Game) {
	h.snapshots = append(h.snapshots, game.Clone())
	if len(h.snapshots) > historyLimit {
		h.snapshots = h.snapshots[1:]
	}
}

// Pop removes and returns the most recent snapshot, or nil when empty.
func (h *History) Pop() *domain.Game {
	if len(h.snapshots) == 0 {
		return nil
	}
	last := h.snapshots[len(h.snapshots)-1]
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	return last
}

// Len returns the number of stored snapshots.
func (h *History) Len() int {
	return len(h.snapshots)
}

// Clear discards all snapshots.
func (h *History) Clear() {
	h.snapshots = nil
}
