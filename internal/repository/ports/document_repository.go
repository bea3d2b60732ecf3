package ports

import (
	"context"
	"encoding/json"
)

// DocumentRepository persists the server's document tree. Get returns
// doctree.Null for paths with no data.
type DocumentRepository interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Set(ctx context.Context, path string, value json.RawMessage) error
	Delete(ctx context.Context, path string) error
}
