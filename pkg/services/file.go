package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"sitecms/pkg/content"
)

func SafeJoin(root, sub, target string) string {
	cleanTarget := filepath.Clean(target)
	if strings.Contains(cleanTarget, "..") {
		return ""
	}
	return filepath.Join(root, sub, cleanTarget)
}

// FileStore keeps one document per page in a directory. The document format
// follows the file extension; new pages are written as JSON.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create content dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

var pageExtensions = []string{".json", ".yaml", ".yml", ".toml"}

// pageFile finds the existing document of page, or the path a new one
// would be written to.
func (s *FileStore) pageFile(page string) (string, bool) {
	for _, ext := range pageExtensions {
		p := SafeJoin(s.dir, "", page+ext)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return filepath.Join(s.dir, page+".json"), false
}

func (s *FileStore) Fetch(_ context.Context, page string) (content.PageContent, error) {
	if err := validName("page", page); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(page)
}

func (s *FileStore) read(page string) (content.PageContent, error) {
	path, exists := s.pageFile(page)
	if !exists {
		return content.PageContent{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	pc, err := DecodePage(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return pc, nil
}

// Persist rewrites the page document with one locale of one section
// replaced. The file is replaced atomically.
func (s *FileStore) Persist(_ context.Context, page, key string, locale content.Locale, tree content.Node) error {
	if err := validKey(page, key, locale); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pc, err := s.read(page)
	if err != nil {
		return err
	}
	if pc[key] == nil {
		pc[key] = content.LocalizedTree{}
	}
	pc[key][locale] = tree

	path, _ := s.pageFile(page)
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := EncodePage(pc, format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".page_*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) ListPages(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var pages []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, err := FormatOf(entry.Name()); err != nil {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if !seen[name] {
			seen[name] = true
			pages = append(pages, name)
		}
	}
	sort.Strings(pages)
	return pages, nil
}

func (s *FileStore) Close() error { return nil }
