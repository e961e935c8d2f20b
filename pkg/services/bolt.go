package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"sitecms/pkg/content"
)

// BoltStore keeps a bucket per page holding "section/locale" keys.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Fetch(_ context.Context, page string) (content.PageContent, error) {
	pc := content.PageContent{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(page))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			section, locale, ok := strings.Cut(string(k), "/")
			if !ok {
				return nil
			}
			var n content.Node
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			if pc[section] == nil {
				pc[section] = content.LocalizedTree{}
			}
			pc[section][content.Locale(locale)] = n
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return pc, nil
}

func (s *BoltStore) Persist(_ context.Context, page, key string, locale content.Locale, tree content.Node) error {
	if err := validKey(page, key, locale); err != nil {
		return err
	}
	body, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(page))
		if err != nil {
			return err
		}
		return b.Put([]byte(key+"/"+string(locale)), body)
	})
}

func (s *BoltStore) ListPages(_ context.Context) ([]string, error) {
	var pages []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			pages = append(pages, string(name))
			return nil
		})
	})
	return pages, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
