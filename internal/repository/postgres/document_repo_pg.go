package postgres

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bernicerice/MealMission/internal/doctree"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

// DocumentRepository keeps one row per leaf of the document tree, keyed by
// its full slash path.
type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepo(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

type leafRow struct {
	Path  string `db:"path"`
	Value []byte `db:"value"`
}

func (r *DocumentRepository) Get(ctx context.Context, path string) (json.RawMessage, error) {
	const query = `
		SELECT path, value
		FROM documents
		WHERE $1 = '' OR path = $1 OR starts_with(path, $2)
	`
	var rows []leafRow
	if err := r.db.SelectContext(ctx, &rows, query, path, path+"/"); err != nil {
		return nil, err
	}
	leaves := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		leaves[row.Path] = json.RawMessage(row.Value)
	}
	return doctree.Build(path, leaves)
}

func (r *DocumentRepository) Set(ctx context.Context, path string, value json.RawMessage) error {
	leaves, err := doctree.Flatten(path, value)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := deleteSubtree(ctx, tx, path); err != nil {
		return err
	}
	if ancestors := doctree.Ancestors(path); len(ancestors) > 0 {
		const query = `DELETE FROM documents WHERE path = ANY($1)`
		if _, err := tx.ExecContext(ctx, query, pq.Array(ancestors)); err != nil {
			return err
		}
	}

	const insert = `
		INSERT INTO documents (path, value, updated_at)
		VALUES ($1, $2, NOW())
	`
	for leafPath, leaf := range leaves {
		if _, err := tx.ExecContext(ctx, insert, leafPath, []byte(leaf)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *DocumentRepository) Delete(ctx context.Context, path string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := deleteSubtree(ctx, tx, path); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteSubtree(ctx context.Context, tx *sqlx.Tx, path string) error {
	const query = `
		DELETE FROM documents
		WHERE $1 = '' OR path = $1 OR starts_with(path, $2)
	`
	_, err := tx.ExecContext(ctx, query, path, path+"/")
	return err
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)
