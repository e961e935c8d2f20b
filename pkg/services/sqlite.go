package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sitecms/pkg/content"
)

const sectionSchema = `
CREATE TABLE IF NOT EXISTS section_content (
	page TEXT NOT NULL,
	section TEXT NOT NULL,
	locale TEXT NOT NULL,
	body TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (page, section, locale)
);
`

// SQLiteStore keeps one row per page, section and locale.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(sectionSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Fetch(ctx context.Context, page string) (content.PageContent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT section, locale, body FROM section_content WHERE page = ?`, page)
	if err != nil {
		return nil, fmt.Errorf("query page %s: %w", page, err)
	}
	defer func() { _ = rows.Close() }()
	return scanSections(rows)
}

func (s *SQLiteStore) Persist(ctx context.Context, page, key string, locale content.Locale, tree content.Node) error {
	if err := validKey(page, key, locale); err != nil {
		return err
	}
	body, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO section_content (page, section, locale, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (page, section, locale) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, page, key, string(locale), string(body), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert %s/%s/%s: %w", page, key, locale, err)
	}
	return nil
}

func (s *SQLiteStore) ListPages(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT page FROM section_content ORDER BY page`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSections(rows rowScanner) (content.PageContent, error) {
	pc := content.PageContent{}
	for rows.Next() {
		var section, locale, body string
		if err := rows.Scan(&section, &locale, &body); err != nil {
			return nil, err
		}
		var n content.Node
		if err := json.Unmarshal([]byte(body), &n); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", section, locale, err)
		}
		if pc[section] == nil {
			pc[section] = content.LocalizedTree{}
		}
		pc[section][content.Locale(locale)] = n
	}
	return pc, rows.Err()
}
