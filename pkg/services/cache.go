package services

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"sitecms/pkg/content"
)

// CachedStore caches fetched pages and the page list of another store.
// Concurrent fetches of the same page share one backend call.
type CachedStore struct {
	Store

	group singleflight.Group

	cacheMutex sync.Mutex
	pages      map[string]content.PageContent
	pageList   []string
	listLoaded bool
	// gen changes on every invalidation so a fetch racing a persist does
	// not cache what it read before the write.
	gen uint64
}

func NewCachedStore(s Store) *CachedStore {
	return &CachedStore{Store: s, pages: map[string]content.PageContent{}}
}

// Fetch returns a private copy of the cached page.
func (c *CachedStore) Fetch(ctx context.Context, page string) (content.PageContent, error) {
	c.cacheMutex.Lock()
	pc, ok := c.pages[page]
	gen := c.gen
	c.cacheMutex.Unlock()
	if ok {
		return clonePage(pc), nil
	}

	v, err, _ := c.group.Do(page, func() (interface{}, error) {
		pc, err := c.Store.Fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		c.cacheMutex.Lock()
		if c.gen == gen {
			c.pages[page] = pc
		}
		c.cacheMutex.Unlock()
		return pc, nil
	})
	if err != nil {
		return nil, err
	}
	return clonePage(v.(content.PageContent)), nil
}

func (c *CachedStore) Persist(ctx context.Context, page, key string, locale content.Locale, tree content.Node) error {
	err := c.Store.Persist(ctx, page, key, locale, tree)
	c.Invalidate(page)
	return err
}

func (c *CachedStore) ListPages(ctx context.Context) ([]string, error) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	if c.listLoaded {
		return append([]string{}, c.pageList...), nil
	}
	pages, err := c.Store.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	c.pageList = pages
	c.listLoaded = true
	return append([]string{}, pages...), nil
}

// Invalidate drops page from the cache, and the page list with it. With no
// page given everything is dropped.
func (c *CachedStore) Invalidate(pages ...string) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	if len(pages) == 0 {
		c.pages = map[string]content.PageContent{}
	}
	for _, p := range pages {
		delete(c.pages, p)
		c.group.Forget(p)
	}
	c.listLoaded = false
	c.pageList = nil
	c.gen++
}

func clonePage(pc content.PageContent) content.PageContent {
	out := make(content.PageContent, len(pc))
	for k, tree := range pc {
		out[k] = tree.Clone()
	}
	return out
}
