package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents in a single JSONB table keyed by
// (company_id, collection, key).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the documents table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS company_documents (
	company_id TEXT NOT NULL,
	collection TEXT NOT NULL,
	key        TEXT NOT NULL,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (company_id, collection, key)
)`)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Get implements Store.
func (p *Postgres) Get(ctx context.Context, companyID, collection, key string) ([]byte, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT doc FROM company_documents WHERE company_id=$1 AND collection=$2 AND key=$3`,
		companyID, collection, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Put implements Store. The upsert makes last-writer-wins semantics explicit;
// callers needing read-modify-write atomicity go through Update instead.
func (p *Postgres) Put(ctx context.Context, companyID, collection, key string, doc []byte) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO company_documents (company_id, collection, key, doc, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (company_id, collection, key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		companyID, collection, key, doc)
	return err
}

// Delete implements Store.
func (p *Postgres) Delete(ctx context.Context, companyID, collection, key string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM company_documents WHERE company_id=$1 AND collection=$2 AND key=$3`,
		companyID, collection, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Store.
func (p *Postgres) List(ctx context.Context, companyID, collection string) ([][]byte, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT doc FROM company_documents WHERE company_id=$1 AND collection=$2 ORDER BY key`,
		companyID, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Update implements Store using a row lock so concurrent read-modify-write
// sequences serialise on the cell.
func (p *Postgres) Update(ctx context.Context, companyID, collection, key string, fn UpdateFunc) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current []byte
	err = tx.QueryRow(ctx,
		`SELECT doc FROM company_documents WHERE company_id=$1 AND collection=$2 AND key=$3 FOR UPDATE`,
		companyID, collection, key).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO company_documents (company_id, collection, key, doc, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (company_id, collection, key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		companyID, collection, key, next)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
