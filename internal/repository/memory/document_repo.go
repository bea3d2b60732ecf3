// Package memory holds process-local repositories used for development runs
// and tests. Nothing here survives a restart.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bernicerice/MealMission/internal/doctree"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

type DocumentRepository struct {
	mu     sync.RWMutex
	leaves map[string]json.RawMessage
}

func NewDocumentRepo() *DocumentRepository {
	return &DocumentRepository{leaves: make(map[string]json.RawMessage)}
}

func (r *DocumentRepository) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return doctree.Build(path, r.leaves)
}

func (r *DocumentRepository) Set(ctx context.Context, path string, value json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	leaves, err := doctree.Flatten(path, value)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteLocked(path)
	for _, ancestor := range doctree.Ancestors(path) {
		delete(r.leaves, ancestor)
	}
	for key, leaf := range leaves {
		r.leaves[key] = leaf
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteLocked(path)
	return nil
}

func (r *DocumentRepository) deleteLocked(path string) {
	for key := range r.leaves {
		if doctree.Covers(path, key) {
			delete(r.leaves, key)
		}
	}
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)
