package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a joinable match.
	RpcQuickMatch = "quick_match"

	// RpcRecentResults is the Nakama RPC id clients call to list their finished games.
	RpcRecentResults = "recent_results"

	// MatchNameCrazyEights is the authoritative match handler name registered with Nakama.
	MatchNameCrazyEights = "crazyeights_match"
)

// Match label values advertised for quick-match queries.
const (
	labelGameName     = "crazyeights"
	labelPhaseLobby   = "lobby"
	labelPhasePlaying = "playing"
	labelPhaseEnded   = "ended"
)
