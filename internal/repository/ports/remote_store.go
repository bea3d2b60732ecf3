package ports

import (
	"context"
	"encoding/json"

	"github.com/bernicerice/MealMission/internal/doctree"
)

// Snapshot is the value read at a store path.
type Snapshot struct {
	Path  string
	Value json.RawMessage
}

func (s Snapshot) Exists() bool {
	return !doctree.IsNull(s.Value)
}

// Decode unmarshals the snapshot value into v.
func (s Snapshot) Decode(v any) error {
	return json.Unmarshal(s.Value, v)
}

// RemoteStore is the client's view of the key-path document store.
type RemoteStore interface {
	Get(ctx context.Context, path string) (Snapshot, error)
	Set(ctx context.Context, path string, value any) error
	// Push stores value under a new store-generated child key of path and
	// returns that key.
	Push(ctx context.Context, path string, value any) (string, error)
	Delete(ctx context.Context, path string) error
}
