package web

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subjectview/internal/platform/openlibrary"
	"subjectview/internal/record"
	"subjectview/internal/view"
)

type stubFetcher struct {
	res *openlibrary.SubjectResponse
	err error
}

func (s stubFetcher) FetchSubject(context.Context, string, int) (*openlibrary.SubjectResponse, error) {
	return s.res, s.err
}

// flakyFetcher errors on the first `failures` calls, then serves the listing.
type flakyFetcher struct {
	listing  stubFetcher
	failures int32
	calls    atomic.Int32
}

func (f *flakyFetcher) FetchSubject(ctx context.Context, subject string, limit int) (*openlibrary.SubjectResponse, error) {
	if f.calls.Add(1) <= f.failures {
		return nil, errors.New("upstream unavailable")
	}
	return f.listing.FetchSubject(ctx, subject, limit)
}

func newTestRouter(t *testing.T, f view.Fetcher) (http.Handler, *Sessions) {
	t.Helper()
	sessions := NewSessions(func() *view.Session {
		return view.NewSession(view.SessionConfig{Subject: "education_technology", Limit: 50, Rand: rand.New(rand.NewPCG(3, 4))}, nil)
	}, f, SessionOptions{}, nil)
	return NewRouter(sessions, RouterConfig{}, nil), sessions
}

// browser replays the session cookie the way a real one would.
type browser struct {
	h       http.Handler
	cookies []*http.Cookie
}

func (b *browser) do(method, path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.h.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		b.cookies = set
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, "")
}

func (b *browser) sessionID() string {
	for _, c := range b.cookies {
		if c.Name == sessionCookie {
			return c.Value
		}
	}
	return ""
}

func exampleListing() stubFetcher {
	return stubFetcher{res: &openlibrary.SubjectResponse{Works: []openlibrary.Work{
		{Title: "A", FirstPublishYear: record.IntPtr(2001)},
		{Title: "B", FirstPublishYear: record.IntPtr(2001)},
		{Title: "C", FirstPublishYear: record.IntPtr(1999)},
	}}}
}

type stateEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		State struct {
			Active   string `json:"active"`
			Filtered bool   `json:"filtered"`
			Year     string `json:"year"`
		} `json:"state"`
		Status  string `json:"status"`
		Records int    `json:"records"`
		Counts  []struct {
			Year  int `json:"year"`
			Count int `json:"count"`
		} `json:"counts"`
	} `json:"data"`
}

func getState(t *testing.T, b *browser) stateEnvelope {
	t.Helper()
	w := b.get("/api/state")
	require.Equal(t, http.StatusOK, w.Code)

	var env stateEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHandler_Page(t *testing.T) {
	h, _ := newTestRouter(t, exampleListing())
	b := &browser{h: h}

	w := b.get("/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	body := w.Body.String()
	assert.Contains(t, body, "3 publications found via Open Library API")
	assert.Contains(t, body, `<section id="view-timeline" class="view-section active">`)
	assert.Contains(t, body, `<section id="view-list" class="view-section hidden">`)
	assert.Contains(t, body, `href="/events/timelineChart?arg=1"`)
	assert.Contains(t, body, `href="/events/nav?arg=view-list"`)
	assert.Equal(t, 3, strings.Count(body, `class="book-card"`))

	cookie := w.Result().Cookies()
	require.Len(t, cookie, 1)
	assert.Equal(t, sessionCookie, cookie[0].Name)
	assert.True(t, cookie[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie[0].SameSite)
}

func TestHandler_ChartClickFlow(t *testing.T) {
	h, _ := newTestRouter(t, exampleListing())
	b := &browser{h: h}
	b.get("/")

	w := b.get("/events/timelineChart?arg=1")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	env := getState(t, b)
	assert.True(t, env.Success)
	assert.Equal(t, "list", env.Data.State.Active)
	assert.True(t, env.Data.State.Filtered)
	assert.Equal(t, "2001", env.Data.State.Year)
	assert.Equal(t, "2 publications found via Year 2001", env.Data.Status)

	body := b.get("/").Body.String()
	assert.Equal(t, 2, strings.Count(body, `class="book-card"`))
	assert.Contains(t, body, "Back to Timeline")

	w = b.do(http.MethodPost, "/events/btn-show-all", "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	var env2 stateEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env2))
	assert.Equal(t, "list", env2.Data.State.Active)
	assert.False(t, env2.Data.State.Filtered)
	assert.Equal(t, 3, env2.Data.Records)
	require.Len(t, env2.Data.Counts, 2)
	assert.Equal(t, 1999, env2.Data.Counts[0].Year)
}

func TestHandler_EventErrors(t *testing.T) {
	tests := []struct {
		name       string
		fetcher    view.Fetcher
		path       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown target",
			fetcher:    exampleListing(),
			path:       "/events/nope",
			wantStatus: http.StatusNotFound,
			wantCode:   "unknown_target",
		},
		{
			name:       "oversized argument",
			fetcher:    exampleListing(),
			path:       "/events/timelineChart?arg=" + strings.Repeat("9", 40),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_event",
		},
		{
			name:       "unknown view",
			fetcher:    exampleListing(),
			path:       "/events/nav?arg=grid",
			wantStatus: http.StatusBadRequest,
			wantCode:   "unknown_view",
		},
		{
			name:       "chart missing after failed fetch",
			fetcher:    stubFetcher{err: errors.New("offline")},
			path:       "/events/timelineChart?arg=0",
			wantStatus: http.StatusNotFound,
			wantCode:   "unknown_target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(t, tt.fetcher)
			b := &browser{h: h}
			b.get("/")
			w := b.get(tt.path)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body struct {
				Success bool `json:"success"`
				Error   struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestHandler_FetchFailurePage(t *testing.T) {
	h, _ := newTestRouter(t, stubFetcher{err: errors.New("offline")})

	w := (&browser{h: h}).get("/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), view.LoadErrorMsg)
}

func TestHandler_ReloadAfterFailedFetch(t *testing.T) {
	f := &flakyFetcher{listing: exampleListing(), failures: 1}
	h, sessions := newTestRouter(t, f)
	b := &browser{h: h}

	w := b.get("/")
	assert.Contains(t, w.Body.String(), view.LoadErrorMsg)
	failedID := b.sessionID()
	require.NotEmpty(t, failedID)

	w = b.get("/")
	assert.Contains(t, w.Body.String(), "3 publications found via Open Library API")
	assert.NotEqual(t, failedID, b.sessionID())
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, 1, sessions.Len())

	// A loaded session is reused, not fetched again.
	b.get("/events/timelineChart?arg=0")
	w = b.get("/")
	assert.Contains(t, w.Body.String(), "1 publications found via Year 1999")
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestHandler_IndependentClients(t *testing.T) {
	h, sessions := newTestRouter(t, exampleListing())
	alice := &browser{h: h}
	bob := &browser{h: h}
	alice.get("/")
	bob.get("/")
	require.NotEqual(t, alice.sessionID(), bob.sessionID())
	assert.Equal(t, 2, sessions.Len())

	alice.get("/events/timelineChart?arg=1")

	a := getState(t, alice)
	assert.Equal(t, "list", a.Data.State.Active)
	assert.Equal(t, "2001", a.Data.State.Year)

	bs := getState(t, bob)
	assert.Equal(t, "timeline", bs.Data.State.Active)
	assert.False(t, bs.Data.State.Filtered)
	assert.Equal(t, "3 publications found via Open Library API", bs.Data.Status)

	bob.get("/events/nav?arg=list")
	assert.Equal(t, "2001", getState(t, alice).Data.State.Year)
	assert.Equal(t, "list", getState(t, bob).Data.State.Active)
}

func TestHandler_NoSession(t *testing.T) {
	h, sessions := newTestRouter(t, exampleListing())
	b := &browser{h: h}

	w := b.get("/events/btn-show-all")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = b.do(http.MethodPost, "/events/btn-show-all", "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"no_session"`)

	w = b.get("/api/state")
	assert.Equal(t, http.StatusNotFound, w.Code)

	b.cookies = []*http.Cookie{{Name: sessionCookie, Value: "forged"}}
	w = b.get("/api/state")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, sessions.Len())
}

func TestRouter_Misc(t *testing.T) {
	h, sessions := newTestRouter(t, exampleListing())

	for path, want := range map[string]int{
		"/healthz":          http.StatusOK,
		"/static/style.css": http.StatusOK,
		"/missing":          http.StatusNotFound,
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, path)
	}

	req := httptest.NewRequest(http.MethodDelete, "/events/btn-show-all", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Zero(t, sessions.Len())
}

func TestRouter_RateLimitAndHSTS(t *testing.T) {
	sessions := NewSessions(func() *view.Session {
		return view.NewSession(view.SessionConfig{Subject: "x", Limit: 1}, nil)
	}, exampleListing(), SessionOptions{}, nil)
	h := NewRouter(sessions, RouterConfig{RateLimitRPS: 1, RateLimitBurst: 1, EnableHSTS: true}, nil)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.1.1.1:999"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	// Zero burst never reaches the limiter.
	h = NewRouter(sessions, RouterConfig{RateLimitRPS: 1}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
