package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"toolup/internal/logger"
)

// ConnectTimeout bounds each connection attempt.
const ConnectTimeout = 15 * time.Second

// Backend performs a single GET and streams the body into w.
// Implementations are interchangeable; Fetcher picks one per process.
type Backend interface {
	Name() string
	Available() bool
	Get(ctx context.Context, url string, header http.Header, w io.Writer) error
}

// HTTPBackend uses net/http.
type HTTPBackend struct {
	client *http.Client
}

// NewHTTPBackend creates a net/http backend whose dial and TLS handshake are
// each bounded by connectTimeout.
func NewHTTPBackend(connectTimeout time.Duration) *HTTPBackend {
	dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: 2 * connectTimeout,
		IdleConnTimeout:       90 * time.Second,
	}
	return &HTTPBackend{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

func (b *HTTPBackend) Name() string { return "http" }

// Available is always true; net/http is compiled in.
func (b *HTTPBackend) Available() bool { return true }

func (b *HTTPBackend) Get(ctx context.Context, url string, header http.Header, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{Kind: KindRequest, URL: url, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	// Send the request; redirects to the asset CDN are followed
	resp, err := b.client.Do(req)
	if err != nil {
		return &FetchError{Kind: KindRequest, URL: url, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Debug("[DEBUG] Failed to close response body for %s: %v\n", url, cerr)
		}
	}()

	// Handle non-2xx responses, keeping a short body snippet for the error
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &FetchError{
			Kind:       KindStatus,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(snippet))),
		}
	}

	// Stream the body to the caller's writer
	if _, err := io.Copy(w, resp.Body); err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return fe
		}
		return &FetchError{Kind: KindRequest, URL: url, Err: err}
	}
	return nil
}

// CurlBackend shells out to curl.
type CurlBackend struct {
	path           string
	connectTimeout time.Duration
}

// NewCurlBackend looks curl up on PATH. The backend is unavailable if it is missing.
func NewCurlBackend(connectTimeout time.Duration) *CurlBackend {
	path, _ := exec.LookPath("curl")
	return &CurlBackend{path: path, connectTimeout: connectTimeout}
}

func (b *CurlBackend) Name() string { return "curl" }

func (b *CurlBackend) Available() bool { return b.path != "" }

// curl exit code 22 is "HTTP page not retrieved" under --fail.
const curlExitHTTPError = 22

func (b *CurlBackend) Get(ctx context.Context, url string, header http.Header, w io.Writer) error {
	args := []string{
		"--fail", "--silent", "--show-error", "--location",
		"--connect-timeout", strconv.Itoa(int(b.connectTimeout / time.Second)),
	}
	// Pass request headers through as --header flags
	for k, vs := range header {
		for _, v := range vs {
			args = append(args, "--header", k+": "+v)
		}
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, b.path, args...)
	var stderr bytes.Buffer
	out := &recordingWriter{w: w}
	cmd.Stdout = out
	cmd.Stderr = &stderr
	logger.Debug("[DEBUG] Running command: curl %s\n", strings.Join(redactHeaders(args), " "))

	runErr := cmd.Run()

	// A failing writer makes curl exit with a write error (23); report the writer's
	// own error instead so that e.g. an oversized body is not retried.
	if out.err != nil {
		var fe *FetchError
		if errors.As(out.err, &fe) {
			return fe
		}
		return &FetchError{Kind: KindRequest, URL: url, Err: out.err}
	}

	if err := runErr; err != nil {
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == curlExitHTTPError {
			return &FetchError{Kind: KindStatus, URL: url, StatusCode: parseCurlStatus(msg), Err: errors.New(msg)}
		}
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return &FetchError{Kind: KindRequest, URL: url, Err: err}
	}
	return nil
}

// recordingWriter keeps the first error returned by the wrapped writer.
type recordingWriter struct {
	w   io.Writer
	err error
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.w.Write(p)
	if err != nil {
		r.err = err
	}
	return n, err
}

// parseCurlStatus pulls the status out of "curl: (22) The requested URL returned error: 404".
func parseCurlStatus(msg string) int {
	idx := strings.LastIndex(msg, "error:")
	if idx < 0 {
		return 0
	}
	fields := strings.Fields(msg[idx+len("error:"):])
	if len(fields) == 0 {
		return 0
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return code
}

func redactHeaders(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, a := range out {
		if strings.HasPrefix(a, "Authorization:") {
			out[i] = "Authorization: <redacted>"
		}
	}
	return out
}

// BackendsByName builds backends in the given preference order. Unknown names
// are skipped with a warning.
func BackendsByName(names []string) []Backend {
	var backends []Backend
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "http":
			backends = append(backends, NewHTTPBackend(ConnectTimeout))
		case "curl":
			backends = append(backends, NewCurlBackend(ConnectTimeout))
		default:
			logger.Warn("[WARN] Unknown fetch backend %q ignored\n", name)
		}
	}
	return backends
}
