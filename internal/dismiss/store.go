// Package dismiss persists the set of insight IDs the user has hidden.
//
// The set lives in a single named slot of the key-value storage, encoded
// as a JSON array of strings. Persistence is best-effort: a read that
// fails or finds malformed data degrades to an empty set, and write
// failures are logged and swallowed. Hiding an insight must never take
// the dashboard down.
package dismiss

import (
	"context"
	"encoding/json"
	"log/slog"
)

// SlotKey is the storage slot holding the dismissed-ID list.
const SlotKey = "insight_dismissals"

// SlotStore is the narrow storage surface the store needs.
type SlotStore interface {
	GetSlot(ctx context.Context, key string) (string, error)
	SetSlot(ctx context.Context, key, value string) error
	DeleteSlot(ctx context.Context, key string) error
}

type Store struct {
	slots SlotStore
}

func NewStore(slots SlotStore) *Store {
	return &Store{slots: slots}
}

// Get returns the dismissed IDs. Storage failures and malformed data
// (non-array JSON, non-string elements) yield an empty set.
func (s *Store) Get(ctx context.Context) map[string]struct{} {
	out := make(map[string]struct{})
	raw, err := s.slots.GetSlot(ctx, SlotKey)
	if err != nil || raw == "" {
		return out
	}
	var values []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		slog.WarnContext(ctx, "Dismissal slot holds malformed data, treating as empty", "error", err)
		return out
	}
	for _, v := range values {
		var id string
		if err := json.Unmarshal(v, &id); err != nil || id == "" {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}

// Add unions one ID into the stored set. Adding an already-dismissed ID
// is a no-op, so the call is idempotent.
func (s *Store) Add(ctx context.Context, id string) {
	if id == "" {
		return
	}
	set := s.Get(ctx)
	if _, ok := set[id]; ok {
		return
	}
	set[id] = struct{}{}
	s.write(ctx, set)
}

// Replace overwrites the stored set with a deduplicated copy of ids.
func (s *Store) Replace(ctx context.Context, ids []string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	s.write(ctx, set)
}

// Clear removes every dismissed ID.
func (s *Store) Clear(ctx context.Context) {
	if err := s.slots.DeleteSlot(ctx, SlotKey); err != nil {
		slog.WarnContext(ctx, "Failed to clear dismissal slot", "error", err)
	}
}

func (s *Store) write(ctx context.Context, set map[string]struct{}) {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		slog.WarnContext(ctx, "Failed to encode dismissal set", "error", err)
		return
	}
	if err := s.slots.SetSlot(ctx, SlotKey, string(data)); err != nil {
		slog.WarnContext(ctx, "Failed to persist dismissal set", "error", err, "count", len(ids))
	}
}
