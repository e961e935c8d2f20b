package content

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Fetcher loads the authoritative content of a page.
type Fetcher interface {
	Fetch(ctx context.Context, page string) (PageContent, error)
}

// Persister stores the content of one locale of one section.
type Persister interface {
	Persist(ctx context.Context, page, key string, locale Locale, tree Node) error
}

// Store is the content collaborator a Controller reads from and saves to.
type Store interface {
	Fetcher
	Persister
}

// Controller owns the drafts of one section of a page, one per locale.
// It is safe for concurrent use; patches to one locale are applied in the
// order they arrive. Saving snapshots the draft and persists it without
// holding the lock, so edits may continue while a save is in flight.
type Controller struct {
	page    string
	key     string
	locales []Locale
	store   Store
	editor  *Editor
	log     *zap.Logger

	mu            sync.Mutex
	authoritative LocalizedTree
	drafts        map[Locale]Draft
}

type Option func(*Controller)

func WithEditor(e *Editor) Option {
	return func(c *Controller) { c.editor = e }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController creates a controller for section key of page. When locales
// is empty the locales found in the fetched section are used.
func NewController(store Store, page, key string, locales []Locale, opts ...Option) *Controller {
	c := &Controller{
		page:          page,
		key:           key,
		locales:       append([]Locale{}, locales...),
		store:         store,
		editor:        &Editor{},
		log:           zap.NewNop(),
		authoritative: LocalizedTree{},
		drafts:        map[Locale]Draft{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("page", page), zap.String("section", key))
	return c
}

func (c *Controller) Page() string { return c.page }
func (c *Controller) Key() string  { return c.key }

// Locales returns the locales that have drafts.
func (c *Controller) Locales() []Locale {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Locale{}, c.localesLocked()...)
}

func (c *Controller) localesLocked() []Locale {
	if len(c.locales) > 0 {
		return c.locales
	}
	return c.authoritative.Locales()
}

// Load fetches the section and opens fresh drafts for every locale.
func (c *Controller) Load(ctx context.Context) error {
	pc, err := c.store.Fetch(ctx, c.page)
	if err != nil {
		return fmt.Errorf("fetch page %s: %w", c.page, err)
	}
	c.Replace(SectionOf(c.page, pc, c.key).Tree)
	return nil
}

// Resync reloads the section from the store, discarding unsaved edits in
// every locale.
func (c *Controller) Resync(ctx context.Context) error {
	if err := c.Load(ctx); err != nil {
		return err
	}
	c.log.Debug("section resynced")
	return nil
}

// ResyncLocale reloads locale from the store, discarding its unsaved
// edits. Drafts of other locales are kept.
func (c *Controller) ResyncLocale(ctx context.Context, locale Locale) error {
	pc, err := c.store.Fetch(ctx, c.page)
	if err != nil {
		return fmt.Errorf("fetch page %s: %w", c.page, err)
	}
	fresh, found := SectionOf(c.page, pc, c.key).Tree[locale]

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.drafts[locale]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	if c.authoritative == nil {
		c.authoritative = LocalizedTree{}
	}
	if found {
		c.authoritative[locale] = fresh.Clone()
	} else {
		delete(c.authoritative, locale)
	}
	c.drafts[locale] = Open(Section{Page: c.page, Key: c.key, Tree: c.authoritative}, locale)
	c.log.Debug("locale resynced", zap.String("locale", string(locale)))
	return nil
}

// Replace installs tree as the authoritative content and reopens all drafts.
func (c *Controller) Replace(tree LocalizedTree) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative = tree.Clone()
	section := Section{Page: c.page, Key: c.key, Tree: c.authoritative}
	drafts := make(map[Locale]Draft, len(c.drafts))
	for _, l := range c.localesLocked() {
		drafts[l] = Open(section, l)
	}
	c.drafts = drafts
}

// Draft returns the current draft of locale.
func (c *Controller) Draft(locale Locale) (Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drafts[locale]
	if !ok {
		return Draft{}, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	return d, nil
}

// Authoritative returns the last fetched or saved tree of locale.
func (c *Controller) Authoritative(locale Locale) (Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.drafts[locale]; !ok {
		return Node{}, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	return baseTree(c.authoritative, locale), nil
}

// Patch writes value at path in locale's draft and returns the new draft.
func (c *Controller) Patch(locale Locale, path Path, value Node) (Draft, error) {
	if err := path.Validate(); err != nil {
		return Draft{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drafts[locale]
	if !ok {
		return Draft{}, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	d = d.Patch(path, value)
	c.drafts[locale] = d
	return d, nil
}

// Render returns the widget tree of locale's draft. Widget actions patch
// the draft of that locale.
func (c *Controller) Render(locale Locale) (*Widget, error) {
	d, err := c.Draft(locale)
	if err != nil {
		return nil, err
	}
	return c.editor.Render(d.Root, func(path Path, value Node) error {
		_, err := c.Patch(locale, path, value)
		return err
	}), nil
}

// Dirty reports whether locale's draft differs from its authoritative tree.
func (c *Controller) Dirty(locale Locale) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drafts[locale]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	return !d.Root.Equal(baseTree(c.authoritative, locale)), nil
}

// Changes lists the unsaved changes of locale's draft.
func (c *Controller) Changes(locale Locale) ([]Change, error) {
	from, to, err := c.pair(locale)
	if err != nil {
		return nil, err
	}
	return Diff(from, to)
}

// MergePatch renders locale's unsaved changes as a JSON merge patch.
func (c *Controller) MergePatch(locale Locale) ([]byte, error) {
	from, to, err := c.pair(locale)
	if err != nil {
		return nil, err
	}
	return MergePatch(from, to)
}

func (c *Controller) pair(locale Locale) (Node, Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drafts[locale]
	if !ok {
		return Node{}, Node{}, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	return baseTree(c.authoritative, locale), d.Root, nil
}

// Save persists locale's current draft. On success the saved tree becomes
// authoritative for that locale only; on failure nothing changes and the
// draft is kept for a retry.
func (c *Controller) Save(ctx context.Context, locale Locale) error {
	d, err := c.Draft(locale)
	if err != nil {
		return err
	}
	if err := c.store.Persist(ctx, c.page, c.key, locale, d.Root); err != nil {
		c.log.Warn("save failed", zap.String("locale", string(locale)), zap.Error(err))
		return fmt.Errorf("save %s/%s/%s: %w", c.page, c.key, locale, err)
	}
	c.mu.Lock()
	c.authoritative[locale] = d.Root
	c.mu.Unlock()
	c.log.Info("section saved", zap.String("locale", string(locale)))
	return nil
}
