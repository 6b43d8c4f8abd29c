package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"study-session-service/internal/domain"
)

// CollectionLoader loads collection JSONB from Postgres.
type CollectionLoader struct {
	pool *pgxpool.Pool
}

func NewCollectionLoader(pool *pgxpool.Pool) *CollectionLoader {
	return &CollectionLoader{pool: pool}
}

func (l *CollectionLoader) LoadCollection(ctx context.Context, collectionID string) (domain.Collection, error) {
	return loadCollection(ctx, l.pool, collectionID)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func loadCollection(ctx context.Context, db queryRower, collectionID string) (domain.Collection, error) {
	var (
		name string
		kind string
		raw  []byte
	)
	err := db.QueryRow(ctx, `SELECT name, kind, items FROM collections WHERE id=$1`, collectionID).Scan(&name, &kind, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Collection{}, domain.ErrCollectionNotFound
	}
	if err != nil {
		return domain.Collection{}, fmt.Errorf("load collection: %w: %w", domain.ErrNetwork, err)
	}

	c := domain.Collection{ID: collectionID, Name: name, Kind: domain.ItemKind(kind)}
	if err := json.Unmarshal(raw, &c.Items); err != nil {
		return domain.Collection{}, fmt.Errorf("unmarshal collection items: %w", err)
	}
	return c, nil
}

// SaveCollection inserts or replaces a collection.
func SaveCollection(ctx context.Context, pool *pgxpool.Pool, c domain.Collection) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("marshal collection items: %w", err)
	}
	_, err = pool.Exec(ctx, `INSERT INTO collections (id, name, kind, items) VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, kind=EXCLUDED.kind, items=EXCLUDED.items`,
		c.ID, c.Name, string(c.Kind), string(items))
	if err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	return nil
}
