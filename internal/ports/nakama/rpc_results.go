package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"crazyeights/wire"

	"github.com/heroiclabs/nakama-common/runtime"
)

const maxRecentResults = 50

// rpcRecentResults returns the caller's stored finished-game records, newest
// first.
// Payload: (Optional) {"limit": N}
func rpcRecentResults(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("Authentication required", 16) // UNAUTHENTICATED
	}

	limit := 10
	if payload != "" {
		var req struct {
			Limit int `json:"limit"`
		}
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
		}
		if req.Limit > 0 {
			limit = req.Limit
		}
	}
	if limit > maxRecentResults {
		limit = maxRecentResults
	}

	results, err := NewNakamaResultAdapter(nk).ListRecentResults(ctx, userID, limit)
	if err != nil {
		logger.Error("rpcRecentResults [User:%s]: %v", userID, err)
		return "", runtime.NewError("Internal error", 13) // INTERNAL
	}

	resp := wire.RecentResultsResponse{Results: make([]wire.ResultRecord, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, wire.ResultRecord{
			GameID:     r.GameID,
			WinnerID:   r.WinnerID,
			LoserID:    r.LoserID,
			Stake:      r.Stake,
			FinishedAt: r.FinishedAt,
			Receipt:    r.Receipt,
		})
	}

	b, _ := json.Marshal(resp)
	return string(b), nil
}
