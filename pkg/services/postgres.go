package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"sitecms/pkg/content"
)

// body is JSON, not JSONB: JSONB reorders object keys.
const pgSectionSchema = `
CREATE TABLE IF NOT EXISTS section_content (
	page TEXT NOT NULL,
	section TEXT NOT NULL,
	locale TEXT NOT NULL,
	body JSON NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (page, section, locale)
);
`

// PostgresStore has the same layout as SQLiteStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSectionSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Fetch(ctx context.Context, page string) (content.PageContent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT section, locale, body::text FROM section_content WHERE page = $1`, page)
	if err != nil {
		return nil, fmt.Errorf("query page %s: %w", page, err)
	}
	defer rows.Close()
	return scanSections(rows)
}

func (s *PostgresStore) Persist(ctx context.Context, page, key string, locale content.Locale, tree content.Node) error {
	if err := validKey(page, key, locale); err != nil {
		return err
	}
	body, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO section_content (page, section, locale, body, updated_at)
		VALUES ($1, $2, $3, $4::json, now())
		ON CONFLICT (page, section, locale) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, page, key, string(locale), string(body))
	if err != nil {
		return fmt.Errorf("upsert %s/%s/%s: %w", page, key, locale, err)
	}
	return nil
}

func (s *PostgresStore) ListPages(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT page FROM section_content ORDER BY page`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pages []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
