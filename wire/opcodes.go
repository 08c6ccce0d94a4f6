package wire

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame  int64 = 1
	OpPlayCard   int64 = 2
	OpDrawCard   int64 = 3
	OpChooseSuit int64 = 4
	OpUndo       int64 = 5
	OpRestart    int64 = 6

	// Server -> Client events
	OpPlayerJoined  int64 = 101
	OpPlayerLeft    int64 = 102
	OpGameStarted   int64 = 103
	OpHandDealt     int64 = 104 // send privately
	OpCardPlayed    int64 = 105
	OpCardDrawn     int64 = 106 // drawn card visible to the drawer only
	OpSuitChosen    int64 = 107
	OpTurnForfeited int64 = 108
	OpGameEnded     int64 = 109
	OpStateReverted int64 = 110 // send privately
	OpStateSnapshot int64 = 111 // send privately
	OpGameError     int64 = 112 // send privately
)
