package nakama

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"crazyeights/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const resultCollection = "results"

// NakamaResultAdapter persists finished-game records in Nakama storage.
type NakamaResultAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaResultAdapter creates a new result adapter.
func NewNakamaResultAdapter(nk runtime.NakamaModule) *NakamaResultAdapter {
	return &NakamaResultAdapter{nk: nk}
}

// SaveResult writes the record under each user's storage, keyed by game ID so
// settling the same game twice stays idempotent.
func (a *NakamaResultAdapter) SaveResult(ctx context.Context, userIDs []string, result ports.GameResult) error {
	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal game result: %w", err)
	}

	writes := make([]*runtime.StorageWrite, 0, len(userIDs))
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		writes = append(writes, &runtime.StorageWrite{
			Collection:      resultCollection,
			Key:             result.GameID,
			UserID:          userID,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		})
	}
	if len(writes) == 0 {
		return nil
	}

	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to save game result: %w", err)
	}
	return nil
}

// ListRecentResults reads the user's stored records and returns them newest
// first.
func (a *NakamaResultAdapter) ListRecentResults(ctx context.Context, userID string, limit int) ([]ports.GameResult, error) {
	if limit <= 0 {
		limit = 10
	}

	objects, _, err := a.nk.StorageList(ctx, "", userID, resultCollection, limit, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list game results: %w", err)
	}

	results := make([]ports.GameResult, 0, len(objects))
	for _, obj := range objects {
		var r ports.GameResult
		if err := json.Unmarshal([]byte(obj.GetValue()), &r); err != nil {
			continue
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].FinishedAt > results[j].FinishedAt
	})
	return results, nil
}

var _ ports.ResultPort = (*NakamaResultAdapter)(nil)
