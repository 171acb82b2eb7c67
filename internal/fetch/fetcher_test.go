package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

type stubBackend struct {
	name      string
	available bool
}

func (s stubBackend) Name() string    { return s.name }
func (s stubBackend) Available() bool { return s.available }
func (s stubBackend) Get(context.Context, string, http.Header, io.Writer) error {
	return errors.New("stub backend should not be called")
}

func newTestFetcher(t *testing.T, opts ...Option) *Fetcher {
	t.Helper()
	base := []Option{WithBackends(NewHTTPBackend(time.Second)), WithRetryDelay(0)}
	f, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestNewNoBackend(t *testing.T) {
	_, err := New(WithBackends(stubBackend{name: "a"}, stubBackend{name: "b"}))
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindNoBackend {
		t.Fatalf("expected KindNoBackend, got %v", err)
	}
}

func TestNewPicksFirstAvailable(t *testing.T) {
	f, err := New(WithBackends(stubBackend{name: "a"}, stubBackend{name: "b", available: true}, stubBackend{name: "c", available: true}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := f.Backend().Name(); got != "b" {
		t.Errorf("selected backend = %q, want b", got)
	}
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    bool
	}{
		{name: "successful_download", statusCode: http.StatusOK, body: "binary content"},
		{name: "404_not_found", statusCode: http.StatusNotFound, body: "not found", wantErr: true},
		{name: "500_server_error", statusCode: http.StatusInternalServerError, body: "boom", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != DefaultUserAgent {
					t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
				}
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			f := newTestFetcher(t, WithRetries(1))
			dest := filepath.Join(t.TempDir(), "out")
			err := f.Fetch(context.Background(), server.URL, dest)

			if tt.wantErr {
				var fe *FetchError
				if !errors.As(err, &fe) || fe.Kind != KindStatus || fe.StatusCode != tt.statusCode {
					t.Fatalf("expected status error %d, got %v", tt.statusCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			content, err := os.ReadFile(dest)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(content) != tt.body {
				t.Errorf("content = %q, want %q", content, tt.body)
			}
		})
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newTestFetcher(t)
	body, err := f.FetchBytes(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestFetchGivesUpAfterRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := newTestFetcher(t)
	if _, err := f.FetchBytes(context.Background(), server.URL, nil); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&attempts); got != DefaultRetries+1 {
		t.Errorf("attempts = %d, want %d", got, DefaultRetries+1)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := newTestFetcher(t)
	if _, err := f.FetchBytes(context.Background(), server.URL, nil); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestFetchBytesHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	f := newTestFetcher(t, WithToken("secret", "127.0.0.1"))
	extra := http.Header{}
	extra.Set("Accept", "application/json")
	if _, err := f.FetchBytes(context.Background(), server.URL, extra); err != nil {
		t.Fatalf("FetchBytes: %v", err)
	}
}

func TestTokenNotSentToOtherHosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization leaked: %q", got)
		}
	}))
	defer server.Close()

	f := newTestFetcher(t, WithToken("secret"))
	if _, err := f.FetchBytes(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("FetchBytes: %v", err)
	}
}

func TestParseCurlStatus(t *testing.T) {
	tests := []struct {
		msg  string
		want int
	}{
		{"curl: (22) The requested URL returned error: 404", 404},
		{"curl: (22) The requested URL returned error: 503 Service Unavailable", 503},
		{"curl: (6) Could not resolve host: nowhere", 0},
	}
	for _, tt := range tests {
		if got := parseCurlStatus(tt.msg); got != tt.want {
			t.Errorf("parseCurlStatus(%q) = %d, want %d", tt.msg, got, tt.want)
		}
	}
}

func TestCurlBackend(t *testing.T) {
	b := NewCurlBackend(time.Second)
	if !b.Available() {
		t.Skip("curl not installed")
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("from curl"))
	}))
	defer server.Close()

	f, err := New(WithBackends(b), WithRetryDelay(0), WithRetries(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	body, err := f.FetchBytes(context.Background(), server.URL, nil)
	if err != nil || string(body) != "from curl" {
		t.Fatalf("FetchBytes = %q, %v", body, err)
	}

	_, err = f.FetchBytes(context.Background(), server.URL+"/missing", nil)
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindStatus {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestFetchBytesTooLargeIsNotRetried(t *testing.T) {
	backends := map[string]Backend{
		"http": NewHTTPBackend(time.Second),
		"curl": NewCurlBackend(time.Second),
	}
	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			if !b.Available() {
				t.Skipf("%s backend not available", name)
			}
			var hits int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				chunk := make([]byte, 64<<10)
				for written := 0; written <= MaxInMemoryBytes; written += len(chunk) {
					if _, err := w.Write(chunk); err != nil {
						return
					}
				}
			}))
			defer server.Close()

			f, err := New(WithBackends(b), WithRetryDelay(0), WithRetries(3))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_, err = f.FetchBytes(context.Background(), server.URL, nil)
			var fe *FetchError
			if !errors.As(err, &fe) || fe.Kind != KindTooLarge {
				t.Fatalf("expected KindTooLarge, got %v", err)
			}
			if got := atomic.LoadInt32(&hits); got != 1 {
				t.Errorf("server hit %d times, want 1 (no retries)", got)
			}
		})
	}
}
