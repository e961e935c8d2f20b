package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sitecms/pkg/content"
)

// ErrInvalidName is returned for page, section or locale names that cannot
// be stored safely.
var ErrInvalidName = errors.New("invalid name")

// Store is a content backend. Fetching a page that was never saved returns
// empty content, not an error.
type Store interface {
	content.Store
	ListPages(ctx context.Context) ([]string, error)
	Close() error
}

// OpenStore builds the store for driver. dsn is a directory for "file", a
// database file for "sqlite" and "bolt", and a connection string for
// "postgres".
func OpenStore(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "file":
		return NewFileStore(dsn)
	case "sqlite":
		return NewSQLiteStore(dsn)
	case "bolt":
		return NewBoltStore(dsn)
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// validName rejects empty names and anything that could escape a directory
// or collide with a composite key separator.
func validName(kind, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %s %q", ErrInvalidName, kind, name)
	}
	return nil
}

func validKey(page, key string, locale content.Locale) error {
	if err := validName("page", page); err != nil {
		return err
	}
	if err := validName("section", key); err != nil {
		return err
	}
	return validName("locale", string(locale))
}
