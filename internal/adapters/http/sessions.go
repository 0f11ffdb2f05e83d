package httpadapter

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/medical-query-assistant/internal/adapters/web"
	"github.com/kirillkom/medical-query-assistant/internal/core/policy"
	"github.com/kirillkom/medical-query-assistant/internal/core/ports"
	"github.com/kirillkom/medical-query-assistant/internal/core/usecase"
)

const (
	sessionCookieName = "medq_session"
	sessionHeader     = "X-Session-Id"
)

// ControllerFactory builds the controller owned by one session. view and
// presenter may be nil for sessions without a page.
type ControllerFactory func(sessionID string, view ports.ResultView, presenter ports.NoticePresenter) *usecase.QueryController

type sessionMetrics interface {
	SessionOpened()
	SessionsClosed(n int)
}

type session struct {
	id         string
	controller *usecase.QueryController
	panel      *web.ResultPanel
	notices    *policy.NoticeBoard
	lastSeen   time.Time
}

type sessionStore struct {
	create  func(id string) *session
	idleTTL time.Duration
	clock   func() time.Time
	metrics sessionMetrics

	mu        sync.Mutex
	sessions  map[string]*session
	lastSweep time.Time
}

func newSessionStore(idleTTL time.Duration, create func(id string) *session, m sessionMetrics) *sessionStore {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &sessionStore{
		create:   create,
		idleTTL:  idleTTL,
		clock:    time.Now,
		metrics:  m,
		sessions: make(map[string]*session),
	}
}

// acquire returns the session for id. Unknown ids get a new session: under
// id itself when adopt is set, otherwise under a fresh id. The second result
// reports creation.
func (s *sessionStore) acquire(id string, adopt bool) (*session, bool) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)

	if sess, ok := s.sessions[id]; ok && id != "" {
		sess.lastSeen = now
		return sess, false
	}

	if id == "" || !adopt {
		id = uuid.NewString()
	}
	sess := s.create(id)
	sess.lastSeen = now
	s.sessions[id] = sess
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	return sess, true
}

// lookup returns the session stored under id without creating one.
func (s *sessionStore) lookup(id string) (*session, bool) {
	if id == "" {
		return nil, false
	}
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = now
	}
	return sess, ok
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *sessionStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < s.idleTTL/4 {
		return
	}
	s.lastSweep = now

	evicted := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.idleTTL {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 && s.metrics != nil {
		s.metrics.SessionsClosed(evicted)
	}
}

func newWebSessionFactory(factory ControllerFactory, renderer *web.Renderer, noticeTTL time.Duration, logger *slog.Logger) func(string) *session {
	return func(id string) *session {
		panel := web.NewResultPanel(renderer)
		notices := policy.NewNoticeBoard(noticeTTL, logger.With("session_id", id))
		return &session{
			id:         id,
			controller: factory(id, panel, notices),
			panel:      panel,
			notices:    notices,
		}
	}
}

func newAPISessionFactory(factory ControllerFactory) func(string) *session {
	return func(id string) *session {
		return &session{id: id, controller: factory(id, nil, nil)}
	}
}

func sessionCookie(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// existingWebSession finds the browser's session. Read-only routes use it so
// anonymous traffic never allocates state.
func existingWebSession(store *sessionStore, r *http.Request) (*session, bool) {
	return store.lookup(sessionCookie(r))
}

// webSession finds or opens the browser's session and sets the cookie when
// a new one is opened.
func webSession(store *sessionStore, w http.ResponseWriter, r *http.Request) *session {
	sess, created := store.acquire(sessionCookie(r), false)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sess.id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// apiSession keys JSON clients by the X-Session-Id header scoped to the
// client address, or by the address alone when the header is absent. The
// response echoes the id as the client sent it.
func apiSession(store *sessionStore, w http.ResponseWriter, r *http.Request) *session {
	ip := clientIP(r)
	id := r.Header.Get(sessionHeader)
	if id == "" {
		id = "ip:" + ip
	}
	sess, _ := store.acquire(ip+"|"+id, true)
	w.Header().Set(sessionHeader, id)
	return sess
}
