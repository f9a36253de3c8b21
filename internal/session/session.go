// Package session hosts editor instances for the HTTP service: one editor
// per open document, evicted after a period of inactivity.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dgallion1/mintaro/internal/clock"
	"github.com/dgallion1/mintaro/internal/editor"
	"github.com/dgallion1/mintaro/internal/sink"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many open sessions")
	ErrInvalidID       = errors.New("invalid document id")
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// maxNotices bounds the notices kept between two reads.
const maxNotices = 32

// Session is one hosted editor.
type Session struct {
	ID        string
	Editor    *editor.Editor
	CreatedAt time.Time

	mu       sync.Mutex
	lastUsed time.Time
	notices  []editor.Notice
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

// LastUsed returns the time of the last access.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) addNotice(n editor.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

// TakeNotices returns and clears the notices raised since the last call.
func (s *Session) TakeNotices() []editor.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// Snapshot is a JSON-safe summary of a session.
type Snapshot struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	LastUsed  time.Time    `json:"lastUsed"`
	Stats     editor.Stats `json:"stats"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		LastUsed:  s.LastUsed(),
		Stats:     s.Editor.Stats(),
	}
}

// Config configures a Manager.
type Config struct {
	TTL         time.Duration
	MaxSessions int
	// Defaults seeds the options of every editor; ContainerID, OnSave,
	// OnNotice, Clock and Logger are set per session.
	Defaults editor.Options
	Sink     sink.Sink
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Manager is a thread-safe registry of sessions with TTL eviction.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg   Config
	log   *slog.Logger
	clock clock.Clock
	idGen func() string

	stop chan struct{}
	done chan struct{}
}

func NewManager(cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Sink == nil {
		cfg.Sink = sink.NewMemory()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		log:      cfg.Logger,
		clock:    cfg.Clock,
		idGen:    func() string { return ulid.Make().String() },
	}
}

// Sink returns the store saves go to.
func (m *Manager) Sink() sink.Sink { return m.cfg.Sink }

// CreateRequest describes a new document.
type CreateRequest struct {
	Content     string `json:"content"`
	HTML        bool   `json:"html"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Create opens a new editor.
func (m *Manager) Create(req CreateRequest) (*Session, error) {
	return m.open(m.idGen(), req)
}

// Open returns the session for id, reloading the saved document from the
// sink when no session is open for it.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if !validID.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if s, err := m.Get(id); err == nil {
		return s, nil
	}
	rec, err := m.cfg.Sink.Load(ctx, id)
	if err != nil {
		if errors.Is(err, sink.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return m.open(id, CreateRequest{Content: rec.HTML, HTML: true})
}

func (m *Manager) open(id string, req CreateRequest) (*Session, error) {
	now := m.clock.Now()
	s := &Session{ID: id, CreatedAt: now, lastUsed: now}

	opts := m.cfg.Defaults
	opts.ContainerID = "editor-" + id
	if req.Placeholder != "" {
		opts.Placeholder = req.Placeholder
	}
	opts.Clock = m.clock
	opts.Logger = m.log.With("session", id)
	opts.OnSave = sink.SaveFunc(m.cfg.Sink, id)
	opts.OnNotice = s.addNotice

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		existing.touch(now)
		return existing, nil
	}
	if len(m.sessions) >= m.cfg.MaxSessions {
		return nil, fmt.Errorf("%w (max %d)", ErrTooManySessions, m.cfg.MaxSessions)
	}
	s.Editor = editor.New(opts, req.Content, req.HTML)
	m.sessions[id] = s
	m.log.Info("session opened", "session", id, "open", len(m.sessions))
	return s, nil
}

// Get returns an open session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.touch(m.clock.Now())
	return s, nil
}

// Close closes the editor and forgets the session. Saved content stays in
// the sink.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Editor.Close()
	m.log.Info("session closed", "session", id)
	return nil
}

// Delete closes the session, if open, and removes the saved document.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.Close(id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return m.cfg.Sink.Delete(ctx, id)
}

// List returns snapshots of the open sessions, oldest first.
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	out := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Cleanup closes sessions idle for longer than the TTL and returns how many
// were evicted.
func (m *Manager) Cleanup() int {
	now := m.clock.Now()
	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed()) > m.cfg.TTL {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Editor.Close()
		m.log.Info("session expired", "session", s.ID)
	}
	return len(expired)
}

// Start runs the eviction janitor until ctx is done or Stop is called.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

// Stop halts the janitor and closes every open session.
func (m *Manager) Stop() {
	if m.stop != nil {
		close(m.stop)
		<-m.done
		m.stop = nil
	}
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Editor.Close()
	}
}
