package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/sitepulse/config"
	"github.com/use-agent/sitepulse/models"
	"github.com/use-agent/sitepulse/notify"
	"github.com/use-agent/sitepulse/session"
	"github.com/use-agent/sitepulse/store"
)

type recorder struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recorder) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Kind, len(r.got))
	for i, n := range r.got {
		out[i] = n.Kind
	}
	return out
}

func (r *recorder) last() notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.got[len(r.got)-1]
}

type fixture struct {
	client *Client
	sess   *session.Session
	notes  *recorder
	calls  *atomic.Int32
}

func newFixture(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *fixture {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	sess := session.New(store.NewMemory())
	notes := &recorder{}
	c := New(config.ClientConfig{
		BaseURL:     srv.URL + "/",
		Timeout:     timeout,
		MaxAttempts: 3,
	}, sess, notes)
	return &fixture{client: c, sess: sess, notes: notes, calls: calls}
}

func TestScrape_InvalidInputMakesNoCall(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
		msg   string
	}{
		{"empty", "", models.ErrCodeEmptyInput, models.MsgEmptyInput},
		{"whitespace", "   ", models.ErrCodeEmptyInput, models.MsgEmptyInput},
		{"no host", "https://", models.ErrCodeInvalidURL, models.MsgInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {}, time.Second)

			_, err := f.client.Scrape(context.Background(), tt.input)
			if got := models.CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
			if got := f.calls.Load(); got != 0 {
				t.Errorf("calls = %d, want 0", got)
			}
			if n := f.notes.last(); n.Kind != notify.KindError || n.Message != tt.msg {
				t.Errorf("notification = %+v", n)
			}
		})
	}
}

func TestScrape_QueryEscapesNormalizedURL(t *testing.T) {
	var gotQuery, gotAccept, gotPath string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"url":"https://example.com","title":"Example","html":"<p>hi</p>","markdown":"hi","relatedPages":[]}`)
	}, time.Second)

	if _, err := f.client.Scrape(context.Background(), "  example.com "); err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if gotPath != "/scrape" {
		t.Errorf("path = %q, want /scrape", gotPath)
	}
	if gotQuery != "url=https%3A%2F%2Fexample.com" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAccept != AcceptHeader {
		t.Errorf("accept = %q", gotAccept)
	}
}

func TestScrape_StructuredIsPersisted(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"url":"https://example.com","title":"Example","html":"<h1>x</h1>","markdown":"# x","relatedPages":[{"url":"https://example.com/a","title":"A","markdown":"a"}]}`)
	}, time.Second)
	ctx := context.Background()

	out, err := f.client.Scrape(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if out.Degraded() {
		t.Fatal("expected structured outcome")
	}
	if r := out.Result(); r.Title != "Example" || len(r.RelatedPages) != 1 {
		t.Errorf("result = %+v", r)
	}

	stored, err := f.sess.LastScrape(ctx)
	if err != nil {
		t.Fatalf("LastScrape: %v", err)
	}
	if stored.Kind != models.KindStructured || stored.Result.Markdown != "# x" {
		t.Errorf("stored = %+v", stored)
	}
	if site, _ := f.sess.Website(ctx); site != "https://example.com" {
		t.Errorf("website = %q", site)
	}
	if n := f.notes.last(); n.Kind != notify.KindSuccess || n.Message != notify.MsgSuccess {
		t.Errorf("notification = %+v", n)
	}
}

func TestScrape_RawHTMLIsDegraded(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"html", "<html><body>hi</body></html>", "<html><body>hi</body></html>"},
		{"json string", `"<p>quoted</p>"`, "<p>quoted</p>"},
		{"json without url or html", `{"title":"only"}`, `{"title":"only"}`},
		{"broken json", `{"url":`, `{"url":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}, time.Second)
			ctx := context.Background()

			out, err := f.client.Scrape(ctx, "example.com")
			if err != nil {
				t.Fatalf("Scrape: %v", err)
			}
			if !out.Degraded() {
				t.Fatal("expected degraded outcome")
			}
			r := out.Result()
			if r.HTML != tt.want || r.URL != "https://example.com" {
				t.Errorf("result = %+v", r)
			}
			if r.Markdown != "" || len(r.RelatedPages) != 0 {
				t.Errorf("raw result carries markdown or related pages: %+v", r)
			}

			stored, err := f.sess.LastScrape(ctx)
			if err != nil {
				t.Fatalf("LastScrape: %v", err)
			}
			if stored.Kind != models.KindRawHTML || stored.Result.HTML != tt.want {
				t.Errorf("stored = %+v", stored)
			}
			if n := f.notes.last(); n.Kind != notify.KindDegraded || n.Message != notify.MsgDegraded {
				t.Errorf("notification = %+v", n)
			}
		})
	}
}

func TestScrape_ServerErrorExhaustsAttempts(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, time.Second)

	_, err := f.client.Scrape(context.Background(), "example.com")

	var se *models.ScrapeError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want ScrapeError", err)
	}
	if se.Code != models.ErrCodeServerError || se.Status != http.StatusInternalServerError {
		t.Errorf("error = %+v", se)
	}
	if got := f.calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}

	kinds := f.notes.kinds()
	want := []notify.Kind{notify.KindRetrying, notify.KindRetrying, notify.KindError}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Errorf("notifications = %v, want %v", kinds, want)
	}
	if n := f.notes.last(); n.Attempt != 3 || n.Status != 500 {
		t.Errorf("final notification = %+v", n)
	}
	if _, err := f.sess.LastScrape(context.Background()); !errors.Is(err, session.ErrEmpty) {
		t.Errorf("LastScrape after failure: %v, want ErrEmpty", err)
	}
}

func TestScrape_RecoversAfterServerError(t *testing.T) {
	var n atomic.Int32
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"url":"https://example.com","html":"<p>ok</p>"}`)
	}, time.Second)

	out, err := f.client.Scrape(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if out.Degraded() {
		t.Error("expected structured outcome")
	}
	if got := f.calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestScrape_ClientErrorIsTerminal(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail", `{"detail":"Not Found"}`, "Not Found"},
		{"error message", `{"error":{"message":"nope"}}`, "nope"},
		{"message", `{"message":"gone"}`, "gone"},
		{"no body", "", "Failed to fetch website data: 404 Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, tt.body)
			}, time.Second)

			_, err := f.client.Scrape(context.Background(), "example.com")

			var se *models.ScrapeError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want ScrapeError", err)
			}
			if se.Code != models.ErrCodeClientError || se.Status != 404 || se.Message != tt.want {
				t.Errorf("error = %+v", se)
			}
			if got := f.calls.Load(); got != 1 {
				t.Errorf("calls = %d, want 1", got)
			}
			if n := f.notes.last(); n.Message != tt.want {
				t.Errorf("notification message = %q", n.Message)
			}
		})
	}
}

// Timeouts are not retried: one attempt, then SCRAPE_TIMEOUT.
func TestScrape_TimeoutIsTerminal(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	start := time.Now()
	_, err := f.client.Scrape(context.Background(), "example.com")
	if got := models.CodeOf(err); got != models.ErrCodeTimeout {
		t.Fatalf("code = %q (%v), want %q", got, err, models.ErrCodeTimeout)
	}
	if got := models.UserMessage(err); got != models.MsgTimeout {
		t.Errorf("message = %q", got)
	}
	if got := f.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestScrape_CallerCancel(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {}, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.client.Scrape(ctx, "example.com")
	if got := models.CodeOf(err); got != models.ErrCodeCanceled {
		t.Errorf("code = %q, want %q", got, models.ErrCodeCanceled)
	}
}

func TestScrape_NetworkErrorIsRetried(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
	}, time.Second)

	_, err := f.client.Scrape(context.Background(), "example.com")
	if got := models.CodeOf(err); got != models.ErrCodeNetworkError {
		t.Fatalf("code = %q (%v), want %q", got, err, models.ErrCodeNetworkError)
	}
	if got := models.UserMessage(err); got != models.MsgNetwork {
		t.Errorf("message = %q", got)
	}
	if got := f.calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestScrape_UnreachableBackend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := New(config.ClientConfig{BaseURL: "http://" + addr, Timeout: time.Second, MaxAttempts: 2}, nil, nil)
	_, err = c.Scrape(context.Background(), "example.com")
	if got := models.CodeOf(err); got != models.ErrCodeNetworkError {
		t.Errorf("code = %q (%v), want %q", got, err, models.ErrCodeNetworkError)
	}
}

type failingStore struct{ store.Store }

func (failingStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestScrape_PersistFailureKeepsOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"url":"https://example.com","html":"<p>ok</p>"}`)
	}))
	defer srv.Close()

	c := New(config.ClientConfig{BaseURL: srv.URL, Timeout: time.Second, MaxAttempts: 3},
		session.New(failingStore{store.NewMemory()}), nil)

	out, err := c.Scrape(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if out.Result().HTML != "<p>ok</p>" {
		t.Errorf("result = %+v", out.Result())
	}
}

func TestScrape_ConcurrentCallsLastWriteWins(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"url":%q,"html":"<p>x</p>"}`, r.URL.Query().Get("url"))
	}, time.Second)
	ctx := context.Background()

	sites := []string{"a.example.com", "b.example.com", "c.example.com"}
	var wg sync.WaitGroup
	for _, s := range sites {
		wg.Add(1)
		go func(s string) {
			defer wg.Done()
			if _, err := f.client.Scrape(ctx, s); err != nil {
				t.Errorf("Scrape(%s): %v", s, err)
			}
		}(s)
	}
	wg.Wait()

	if got := f.calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
	site, err := f.sess.Website(ctx)
	if err != nil {
		t.Fatalf("Website: %v", err)
	}
	found := false
	for _, s := range sites {
		if site == "https://"+s {
			found = true
		}
	}
	if !found {
		t.Errorf("website = %q, want one of %v", site, sites)
	}
}
