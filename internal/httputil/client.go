// Package httputil provides the hardened HTTP transport shared by the session
// and proxy packages, plus input sanitization utilities.
package httputil

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"
)

// UserAgent is sent with every request; the tracker serves a stripped page to unknown agents.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0"

// ProxyFunc selects the proxy for a request, as in http.Transport.Proxy.
type ProxyFunc func(*http.Request) (*url.URL, error)

// NewTransport creates a transport with secure defaults routing through proxy (may be nil).
func NewTransport(proxy ProxyFunc) *http.Transport {
	return &http.Transport{
		Proxy: proxy,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  false,
		MaxIdleConnsPerHost: 5,
	}
}

// NewClient creates a hardened HTTP client. The timeout bounds the whole
// exchange and must be positive.
func NewClient(timeout time.Duration, jar http.CookieJar, proxy ProxyFunc) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: NewTransport(proxy),
	}
}

// SetBrowserHeaders sets standard browser-like headers on req.
func SetBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3")
}
