package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"crazyeights/wire"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcRecentResults, rpcRecentResults)
}

// rpcQuickMatch finds a match still waiting for its human seat, or creates a
// fresh one. The bot opponent is seated by the match itself at init.
func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	// +label.open means we filter on the "open" key in the JSON label; :T
	// matches boolean true.
	query := "+label.open:T +label.game:" + labelGameName

	limit := 10
	authoritative := true

	matches, err := nk.MatchList(ctx, limit, authoritative, "", nil, nil, query)
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: MatchList error: %v", userId, err)
		return "", err
	}

	if len(matches) > 0 {
		matchID := matches[0].MatchId
		logger.Info("rpcQuickMatch [User:%s]: Found existing match %s", userId, matchID)
		b, _ := json.Marshal(wire.QuickMatchResponse{MatchID: matchID})
		return string(b), nil
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameCrazyEights, map[string]interface{}{})
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: MatchCreate error: %v", userId, err)
		return "", err
	}

	logger.Info("rpcQuickMatch [User:%s]: Created new match %s", userId, matchID)
	b, _ := json.Marshal(wire.QuickMatchResponse{MatchID: matchID})
	return string(b), nil
}
