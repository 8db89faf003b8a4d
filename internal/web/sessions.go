package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"subjectview/internal/httpx"
	"subjectview/internal/view"
)

const sessionCookie = "subjectview_session"

type SessionOptions struct {
	TTL    time.Duration
	Max    int
	Secure bool
}

type sessionEntry struct {
	session  *view.Session
	lastSeen time.Time
}

// Sessions keeps one page session per browser, keyed by a cookie. Each
// session runs its listing fetch once, when it is opened.
type Sessions struct {
	mu         sync.Mutex
	entries    map[string]*sessionEntry
	newSession func() *view.Session
	fetcher    view.Fetcher
	opts       SessionOptions
	now        func() time.Time
	logger     *zap.Logger
}

func NewSessions(newSession func() *view.Session, fetcher view.Fetcher, opts SessionOptions, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.Max <= 0 {
		opts.Max = 1000
	}
	return &Sessions{
		entries:    make(map[string]*sessionEntry),
		newSession: newSession,
		fetcher:    fetcher,
		opts:       opts,
		now:        time.Now,
		logger:     logger,
	}
}

// Lookup resolves the caller's session from its cookie.
func (s *Sessions) Lookup(r *http.Request) (*view.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.Value]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(e.lastSeen) > s.opts.TTL {
		delete(s.entries, c.Value)
		return nil, false
	}
	e.lastSeen = now
	return e.session, true
}

// Open returns the session a page load should render. A caller without a
// live session, or whose session failed to load, gets a fresh one whose
// fetch has already run.
func (s *Sessions) Open(w http.ResponseWriter, r *http.Request) *view.Session {
	if sess, ok := s.Lookup(r); ok {
		if !sess.Failed() {
			return sess
		}
		s.drop(r)
	}

	sess := s.newSession()
	if err := sess.Start(r.Context(), s.fetcher); err != nil {
		s.logger.Warn("session fetch failed", zap.Error(err), zap.String("request_id", httpx.RequestIDFrom(r)))
	}

	id := uuid.NewString()
	s.put(id, sess)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.opts.TTL / time.Second),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Len reports how many sessions are held.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *Sessions) drop(r *http.Request) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return
	}
	s.mu.Lock()
	delete(s.entries, c.Value)
	s.mu.Unlock()
}

func (s *Sessions) put(id string, sess *view.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.Sub(e.lastSeen) > s.opts.TTL {
			delete(s.entries, k)
		}
	}
	for len(s.entries) >= s.opts.Max {
		s.evictOldest()
	}
	s.entries[id] = &sessionEntry{session: sess, lastSeen: now}
}

func (s *Sessions) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for k, e := range s.entries {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = k, e.lastSeen
		}
	}
	delete(s.entries, oldestID)
	s.logger.Debug("session evicted", zap.String("session", oldestID))
}
