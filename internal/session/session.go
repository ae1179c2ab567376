// Package session wraps an HTTP client with a persistent cookie jar and
// optional routing through the anonymous proxy pool.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"lostfilm/internal/httputil"
	"lostfilm/internal/proxy"
)

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 10 * 1024 * 1024

// Options configures a Session.
type Options struct {
	// JarPath is the cookie jar file. It is loaded on construction when it
	// exists and rewritten by SaveCookies. Empty disables persistence.
	JarPath string

	// Timeout is an upper bound on each exchange at the client level. The
	// gateway additionally applies its own per-fetch deadline.
	Timeout time.Duration

	// Proxies routes every request through the pool when non-nil.
	Proxies *proxy.Pool

	// MaxBodySize caps a response body; larger responses fail with
	// ErrBodyTooLarge. Defaults to 10 MiB.
	MaxBodySize int64
}

// ErrBodyTooLarge is wrapped by the RequestError of an oversized response.
var ErrBodyTooLarge = errors.New("response body too large")

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	URL        *url.URL // Final URL after redirects
	Proxy      string   // Proxy the request went through, if any
}

// RequestError is a transport-level failure, tagged with the proxy in use.
type RequestError struct {
	Proxy string
	Err   error
}

func (e *RequestError) Error() string {
	if e.Proxy != "" {
		return fmt.Sprintf("request via proxy %s: %v", e.Proxy, e.Err)
	}
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error { return e.Err }

// RequestOption adjusts an outgoing request.
type RequestOption func(*http.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// WithReferer sets the Referer header.
func WithReferer(ref string) RequestOption {
	return WithHeader("Referer", ref)
}

type proxyKey struct{}

// proxyFromContext routes a request through the proxy chosen by Request.
func proxyFromContext(r *http.Request) (*url.URL, error) {
	if u, ok := r.Context().Value(proxyKey{}).(*url.URL); ok {
		return u, nil
	}
	return nil, nil
}

// Session owns the HTTP client, the cookie jar and the proxy pool handle.
type Session struct {
	client  *http.Client
	jar     *Jar
	jarPath string
	proxies *proxy.Pool
	maxBody int64
}

// New creates a session, restoring cookies from opts.JarPath if present.
// An unreadable jar is logged and replaced with an empty one.
func New(opts Options) (*Session, error) {
	var jar *Jar
	if opts.JarPath != "" {
		if _, err := os.Stat(opts.JarPath); err == nil {
			jar, err = LoadJar(opts.JarPath)
			if err != nil {
				slog.Warn("discarding unreadable cookie jar", "path", opts.JarPath, "err", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checking cookie jar: %w", err)
		}
	}
	if jar == nil {
		var err error
		if jar, err = NewJar(); err != nil {
			return nil, err
		}
	}

	maxBody := opts.MaxBodySize
	if maxBody <= 0 {
		maxBody = maxBodySize
	}

	return &Session{
		maxBody: maxBody,
		client:  httputil.NewClient(opts.Timeout, jar, proxyFromContext),
		jar:     jar,
		jarPath: opts.JarPath,
		proxies: opts.Proxies,
	}, nil
}

// Request performs method on rawURL with params in the query string and data
// as a form body. Proxy pool errors are returned unwrapped; transport errors
// come back as *RequestError. HTTP error statuses are not errors here.
func (s *Session) Request(ctx context.Context, method, rawURL string, params, data url.Values, opts ...RequestOption) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("malformed URL: %w", err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var proxyAddr string
	if s.proxies != nil {
		proxyAddr, err = s.proxies.Get(ctx)
		if err != nil {
			return nil, err
		}
		ctx = context.WithValue(ctx, proxyKey{}, &url.URL{Scheme: "http", Host: proxyAddr})
	}

	var body io.Reader
	if len(data) > 0 {
		body = strings.NewReader(data.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httputil.SetBrowserHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &RequestError{Proxy: proxyAddr, Err: err}
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, &RequestError{Proxy: proxyAddr, Err: fmt.Errorf("reading response: %w", err)}
	}
	if int64(len(content)) > s.maxBody {
		return nil, &RequestError{Proxy: proxyAddr, Err: fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, s.maxBody)}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       content,
		URL:        resp.Request.URL,
		Proxy:      proxyAddr,
	}, nil
}

// SaveCookies writes the jar to its file. It is a no-op without a jar path.
func (s *Session) SaveCookies() error {
	if s.jarPath == "" {
		return nil
	}
	return s.jar.Save(s.jarPath)
}

// Cookies returns the cookies that would be sent to rawURL.
func (s *Session) Cookies(rawURL string) []*http.Cookie {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return s.jar.Cookies(u)
}

// InvalidateProxy reports a failed proxy to the pool.
func (s *Session) InvalidateProxy(addr string) {
	if s.proxies != nil && addr != "" {
		s.proxies.Invalidate(addr)
	}
}

// ProxyEnabled reports whether requests are routed through the pool.
func (s *Session) ProxyEnabled() bool {
	return s.proxies != nil
}
