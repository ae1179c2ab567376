package proxy

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lostfilm/internal/httputil"
)

// maxListSize caps how much of a proxy list response is read.
const maxListSize = 2 * 1024 * 1024

// HTTPSource loads a proxy list from a URL. Both plain-text lists (one
// host:port per line) and HTML tables (IP and port in the first two cells)
// are understood.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates a source that fetches url directly (never through a proxy).
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: httputil.NewClient(timeout, nil, nil),
	}
}

// Fetch downloads and parses the list.
func (s *HTTPSource) Fetch(ctx context.Context) ([]string, error) {
	if err := httputil.ValidateURL(s.URL); err != nil {
		return nil, fmt.Errorf("invalid proxy list URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httputil.SetBrowserHeaders(req)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, s.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "html") || bytes.Contains(body, []byte("<table")) {
		return parseHTMLList(body)
	}
	return parseTextList(body), nil
}

// parseTextList reads one address per line, skipping comments and junk.
func parseTextList(body []byte) []string {
	var addrs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if u, err := url.Parse(line); err == nil && u.Host != "" {
			line = u.Host
		}
		addAddr(&addrs, seen, line)
	}
	return addrs
}

// parseHTMLList extracts ip/port pairs from table rows.
func parseHTMLList(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var addrs []string
	seen := make(map[string]bool)

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		host := strings.TrimSpace(cells.Eq(0).Text())
		port := strings.TrimSpace(cells.Eq(1).Text())
		addAddr(&addrs, seen, host+":"+port)
	})

	return addrs, nil
}

func addAddr(addrs *[]string, seen map[string]bool, addr string) {
	if seen[addr] || httputil.ValidateHostPort(addr) != nil {
		return
	}
	seen[addr] = true
	*addrs = append(*addrs, addr)
}

// HTTPChecker returns a Checker that fetches checkURL through the proxy.
func HTTPChecker(checkURL string, timeout time.Duration) Checker {
	return func(ctx context.Context, addr string) error {
		proxyURL := &url.URL{Scheme: "http", Host: addr}
		client := httputil.NewClient(timeout, nil, http.ProxyURL(proxyURL))
		defer client.CloseIdleConnections()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httputil.SetBrowserHeaders(req)

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("status %d through proxy", resp.StatusCode)
		}
		return nil
	}
}
