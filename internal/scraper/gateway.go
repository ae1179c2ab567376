// Package scraper provides the fetch gateway every site request goes through.
//
// The gateway picks the HTTP method, applies the mandatory timeout, checks the
// status, persists cookies after a verified success and normalizes every
// failure into *Error. Nothing transport-specific leaks past it.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"lostfilm/internal/proxy"
	"lostfilm/internal/session"
)

// Requester is the part of a session the gateway uses.
type Requester interface {
	Request(ctx context.Context, method, rawURL string, params, data url.Values, opts ...session.RequestOption) (*session.Response, error)
	SaveCookies() error
	InvalidateProxy(addr string)
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	// Timeout bounds every fetch. It must be positive.
	Timeout time.Duration

	// OnProxyListFailure is invoked when the proxy list cannot be loaded, so
	// the caller can turn proxy mode off in its settings.
	OnProxyListFailure func(err error)
}

// Gateway executes requests for the scrapers.
type Gateway struct {
	session            Requester
	timeout            time.Duration
	onProxyListFailure func(error)
}

// NewGateway creates a gateway over s.
func NewGateway(s Requester, opts GatewayOptions) (*Gateway, error) {
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("fetch timeout must be positive, got %v", opts.Timeout)
	}
	return &Gateway{
		session:            s,
		timeout:            opts.Timeout,
		onProxyListFailure: opts.OnProxyListFailure,
	}, nil
}

// Fetch requests rawURL, using POST when data is non-empty and GET otherwise.
// Cookies are saved only after the response status has been checked.
func (g *Gateway) Fetch(ctx context.Context, rawURL string, params, data url.Values, opts ...session.RequestOption) (*session.Response, error) {
	method := http.MethodGet
	if len(data) > 0 {
		method = http.MethodPost
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.session.Request(ctx, method, rawURL, params, data, opts...)
	slog.Debug("fetched URL", "method", method, "url", rawURL, "params", params.Encode(),
		"elapsed", time.Since(start).Round(time.Millisecond), "err", err)
	if err != nil {
		return nil, g.classify(rawURL, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, NewError(CodeFetch, fmt.Errorf("unexpected status %s", resp.Status), "Can't fetch URL: %s", rawURL)
	}

	if err := g.session.SaveCookies(); err != nil {
		slog.Warn("saving cookies failed", "err", err)
	}
	return resp, nil
}

// classify maps a session error onto the gateway taxonomy and performs the
// side effects tied to proxy failures.
func (g *Gateway) classify(rawURL string, err error) error {
	var listErr *proxy.ListError
	if errors.As(err, &listErr) {
		if g.onProxyListFailure != nil {
			g.onProxyListFailure(err)
		}
		return NewError(CodeProxyList, err, "Can't load anonymous proxy list")
	}

	if errors.Is(err, proxy.ErrNoValidProxies) {
		return NewError(CodeNoValidProxies, err, "Can't find anonymous proxy")
	}

	var reqErr *session.RequestError
	if errors.As(err, &reqErr) && reqErr.Proxy != "" && !errors.Is(err, session.ErrBodyTooLarge) {
		g.session.InvalidateProxy(reqErr.Proxy)
	}

	if isTimeout(err) {
		return NewError(CodeTimeout, err, "Timeout while fetching URL: %s", rawURL)
	}
	return NewError(CodeFetch, err, "Can't fetch URL: %s", rawURL)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
