package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sitecms/pkg/content"
)

// ErrSessionNotFound is returned for unknown or expired editing sessions.
var ErrSessionNotFound = errors.New("editing session not found")

// Session is one user's open section.
type Session struct {
	ID         string
	Controller *content.Controller

	mu       sync.Mutex
	lastUsed time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// SessionManager tracks open editing sessions and keeps them in step with
// saves made elsewhere.
type SessionManager struct {
	store    content.Store
	notifier Notifier
	editor   *content.Editor
	locales  []content.Locale
	idle     time.Duration
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(store content.Store, notifier Notifier, editor *content.Editor, locales []content.Locale, idle time.Duration, log *zap.Logger) *SessionManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{
		store:    store,
		notifier: notifier,
		editor:   editor,
		locales:  locales,
		idle:     idle,
		log:      log,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// Start subscribes to section changes and, with an idle timeout set,
// expires idle sessions in the background. Both stop when ctx is cancelled.
func (m *SessionManager) Start(ctx context.Context) error {
	if err := m.notifier.Subscribe(ctx, func(ev SectionChanged) { m.HandleChange(ctx, ev) }); err != nil {
		return err
	}
	if m.idle > 0 {
		go m.expireLoop(ctx)
	}
	return nil
}

func (m *SessionManager) expireLoop(ctx context.Context) {
	ticker := time.NewTicker(m.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Expire()
		}
	}
}

// Open loads page/key and starts a session on it.
func (m *SessionManager) Open(ctx context.Context, page, key string) (*Session, error) {
	c := content.NewController(m.store, page, key, m.locales,
		content.WithEditor(m.editor),
		content.WithLogger(m.log))
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	s := &Session{ID: uuid.NewString(), Controller: c, lastUsed: m.now()}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Info("session opened", zap.String("session", s.ID), zap.String("page", page), zap.String("section", key))
	return s, nil
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.touch(m.now())
	return s, nil
}

func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// Save saves one locale of a session and announces the change.
func (m *SessionManager) Save(ctx context.Context, s *Session, locale content.Locale) error {
	if err := s.Controller.Save(ctx, locale); err != nil {
		return err
	}
	ev := SectionChanged{Page: s.Controller.Page(), Section: s.Controller.Key(), Locale: locale, Origin: s.ID}
	if err := m.notifier.Publish(ctx, ev); err != nil {
		m.log.Warn("publish change failed", zap.Error(err))
	}
	return nil
}

// Persist writes content directly, outside any session, and announces it.
func (m *SessionManager) Persist(ctx context.Context, page, key string, locale content.Locale, tree content.Node) error {
	if err := m.store.Persist(ctx, page, key, locale, tree); err != nil {
		return err
	}
	if err := m.notifier.Publish(ctx, SectionChanged{Page: page, Section: key, Locale: locale}); err != nil {
		m.log.Warn("publish change failed", zap.Error(err))
	}
	return nil
}

// HandleChange resyncs the changed locale in every session on the changed
// section except the one that made the change. Unsaved edits in that
// locale are discarded; other locales keep their drafts. An event without
// a locale resyncs the whole section.
func (m *SessionManager) HandleChange(ctx context.Context, ev SectionChanged) {
	m.invalidate(ev.Page)

	m.mu.Lock()
	var targets []*Session
	for id, s := range m.sessions {
		if id == ev.Origin {
			continue
		}
		if s.Controller.Page() == ev.Page && s.Controller.Key() == ev.Section {
			targets = append(targets, s)
		}
	}
	m.mu.Unlock()

	for _, s := range targets {
		var err error
		if ev.Locale == "" {
			err = s.Controller.Resync(ctx)
		} else {
			err = s.Controller.ResyncLocale(ctx, ev.Locale)
		}
		if errors.Is(err, content.ErrUnknownLocale) {
			m.log.Debug("locale not edited by session", zap.String("session", s.ID), zap.String("locale", string(ev.Locale)))
			continue
		}
		if err != nil {
			m.log.Warn("resync failed", zap.String("session", s.ID), zap.Error(err))
			continue
		}
		m.log.Info("session resynced", zap.String("session", s.ID), zap.String("page", ev.Page),
			zap.String("section", ev.Section), zap.String("locale", string(ev.Locale)))
	}
}

// ResyncAll drops every cached page and reloads all open sessions from the
// store, discarding their unsaved edits. It is used after the content
// changed underneath the editor, e.g. by a git pull. It returns the number
// of sessions reloaded.
func (m *SessionManager) ResyncAll(ctx context.Context) int {
	m.invalidate()

	m.mu.Lock()
	targets := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		targets = append(targets, s)
	}
	m.mu.Unlock()

	n := 0
	for _, s := range targets {
		if err := s.Controller.Resync(ctx); err != nil {
			m.log.Warn("resync failed", zap.String("session", s.ID), zap.Error(err))
			continue
		}
		n++
	}
	m.log.Info("sessions resynced", zap.Int("count", n))
	return n
}

// invalidate drops pages from the store cache, all of them when none are given.
func (m *SessionManager) invalidate(pages ...string) {
	if inv, ok := m.store.(interface{ Invalidate(pages ...string) }); ok {
		inv.Invalidate(pages...)
	}
}

// Expire closes sessions idle for longer than the idle timeout.
func (m *SessionManager) Expire() int {
	if m.idle <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.log.Info("expired idle sessions", zap.Int("count", n))
	}
	return n
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
