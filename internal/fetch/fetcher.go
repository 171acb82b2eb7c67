package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"toolup/internal/logger"
)

const (
	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 3
	// DefaultRetryDelay is the fixed pause between attempts.
	DefaultRetryDelay = 2 * time.Second
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "toolup/1.0"
	// MaxInMemoryBytes bounds FetchBytes responses (10 MiB).
	MaxInMemoryBytes = 10 << 20
)

// Fetcher downloads URLs through the first available Backend, retrying
// transient failures a fixed number of times with a fixed delay.
type Fetcher struct {
	backend    Backend
	candidates []Backend
	retries    int
	delay      time.Duration
	userAgent  string
	token      string
	tokenHosts map[string]bool
}

// Option configures a Fetcher during construction.
type Option func(*Fetcher)

// WithBackends sets the backend candidates in preference order. An empty list
// leaves no candidates, so New fails with KindNoBackend.
func WithBackends(backends ...Backend) Option {
	return func(f *Fetcher) { f.candidates = append([]Backend{}, backends...) }
}

// WithRetries overrides the retry count.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = n
		}
	}
}

// WithRetryDelay overrides the pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.delay = d }
}

// WithToken sends "Authorization: Bearer <token>" to github.com, api.github.com
// and any extra hosts given (e.g. a GitHub Enterprise API host).
func WithToken(token string, hosts ...string) Option {
	return func(f *Fetcher) {
		f.token = token
		for _, h := range hosts {
			f.tokenHosts[strings.ToLower(h)] = true
		}
	}
}

// New selects the first available backend. It fails with KindNoBackend if none is.
func New(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		retries:   DefaultRetries,
		delay:     DefaultRetryDelay,
		userAgent: DefaultUserAgent,
		tokenHosts: map[string]bool{
			"github.com":     true,
			"api.github.com": true,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	// Default preference: built-in HTTP client, then curl
	if f.candidates == nil {
		f.candidates = []Backend{NewHTTPBackend(ConnectTimeout), NewCurlBackend(ConnectTimeout)}
	}

	// Pick the first backend that can run on this machine
	var names []string
	for _, b := range f.candidates {
		names = append(names, b.Name())
		if b.Available() {
			f.backend = b
			break
		}
	}
	if f.backend == nil {
		return nil, &FetchError{
			Kind: KindNoBackend,
			Err:  fmt.Errorf("none of [%s] is available", strings.Join(names, ", ")),
		}
	}
	logger.Debug("[DEBUG] Using %s fetch backend\n", f.backend.Name())
	return f, nil
}

// Backend returns the selected backend.
func (f *Fetcher) Backend() Backend { return f.backend }

// Fetch downloads url into destPath, truncating it on every attempt. On failure
// destPath may hold a partial body; the caller owns it.
func (f *Fetcher) Fetch(ctx context.Context, url, destPath string) error {
	return f.retry(ctx, url, func() error {
		out, err := os.Create(destPath)
		if err != nil {
			return fmt.Errorf("failed to create file %s: %w", destPath, err)
		}
		getErr := f.backend.Get(ctx, url, f.headers(url, nil), out)
		if cerr := out.Close(); cerr != nil && getErr == nil {
			return fmt.Errorf("failed to close %s: %w", destPath, cerr)
		}
		return getErr
	})
}

// FetchBytes downloads url into memory, bounded by MaxInMemoryBytes.
// extra headers are added to the defaults.
func (f *Fetcher) FetchBytes(ctx context.Context, url string, extra http.Header) ([]byte, error) {
	var buf bytes.Buffer
	err := f.retry(ctx, url, func() error {
		buf.Reset()
		w := &limitedWriter{buf: &buf, limit: MaxInMemoryBytes, url: url}
		return f.backend.Get(ctx, url, f.headers(url, extra), w)
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Fetcher) retry(ctx context.Context, url string, attempt func() error) error {
	var lastErr error
	for i := 0; i <= f.retries; i++ {
		if err := ctx.Err(); err != nil {
			return &FetchError{Kind: KindRequest, URL: url, Err: err}
		}
		// Fixed delay between attempts, cut short by cancellation
		if i > 0 {
			logger.Debug("[DEBUG] Retrying %s (attempt %d of %d) after: %v\n", url, i+1, f.retries+1, lastErr)
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return &FetchError{Kind: KindRequest, URL: url, Err: ctx.Err()}
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		// Only network errors and 5xx/408/429 are worth another attempt
		var fe *FetchError
		if !errors.As(err, &fe) || !fe.Transient() {
			return err
		}
	}
	return lastErr
}

func (f *Fetcher) headers(rawURL string, extra http.Header) http.Header {
	h := http.Header{}
	h.Set("User-Agent", f.userAgent)
	// The token is only sent to the configured GitHub hosts
	if f.token != "" {
		if u, err := neturl.Parse(rawURL); err == nil && f.tokenHosts[strings.ToLower(u.Hostname())] {
			h.Set("Authorization", "Bearer "+f.token)
		}
	}
	for k, vs := range extra {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	return h
}

type limitedWriter struct {
	buf   *bytes.Buffer
	limit int
	url   string
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.buf.Len()+len(p) > w.limit {
		return 0, &FetchError{Kind: KindTooLarge, URL: w.url, Err: fmt.Errorf("response exceeds %d bytes", w.limit)}
	}
	return w.buf.Write(p)
}
