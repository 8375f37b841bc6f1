package kv

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents in the kv_documents table (see migrations).
type Postgres struct{ pool *pgxpool.Pool }

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (r *Postgres) Get(ctx context.Context, owner int64, key Key) ([]byte, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT doc FROM kv_documents WHERE owner_id = $1 AND doc_key = $2
	`, owner, string(key)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (r *Postgres) Put(ctx context.Context, owner int64, key Key, doc []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO kv_documents (owner_id, doc_key, doc, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (owner_id, doc_key) DO UPDATE SET
		  doc=$3, updated_at=now()
	`, owner, string(key), doc)
	return err
}

func (r *Postgres) Delete(ctx context.Context, owner int64, key Key) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM kv_documents WHERE owner_id = $1 AND doc_key = $2`, owner, string(key))
	return err
}
