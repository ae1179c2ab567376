package proxy

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

	"github.com/google/go-cmp/cmp"
)

type staticSource struct {
	addrs []string
	err   error
	calls atomic.Int32
}

func (s *staticSource) Fetch(ctx context.Context) ([]string, error) {
	s.calls.Add(1)
	return s.addrs, s.err
}

func onlyValid(valid ...string) Checker {
	ok := make(map[string]bool)
	for _, v := range valid {
		ok[v] = true
	}
	return func(ctx context.Context, addr string) error {
		if ok[addr] {
			return nil
		}
		return fmt.Errorf("%s is dead", addr)
	}
}

func TestGetSelectsValidProxy(t *testing.T) {
	src := &staticSource{addrs: []string{"10.0.0.1:80", "10.0.0.2:80", "10.0.0.3:80"}}
	pool := NewPool(Options{Source: src, Checker: onlyValid("10.0.0.2:80")})

	addr, err := pool.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if addr != "10.0.0.2:80" {
		t.Errorf("Get() = %q, want 10.0.0.2:80", addr)
	}

	// The selection is kept while healthy.
	if _, err := pool.Get(context.Background()); err != nil {
		t.Fatalf("second Get() error: %v", err)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("source fetched %d times, want 1", n)
	}
}

func TestGetListErrors(t *testing.T) {
	tests := []struct {
		name string
		src  *staticSource
	}{
		{"fetch failure", &staticSource{err: errors.New("connection refused")}},
		{"empty list", &staticSource{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewPool(Options{Source: tt.src, Checker: onlyValid()})
			_, err := pool.Get(context.Background())
			var le *ListError
			if !errors.As(err, &le) {
				t.Fatalf("expected *ListError, got %v", err)
			}
		})
	}
}

func TestGetNoValidProxies(t *testing.T) {
	src := &staticSource{addrs: []string{"10.0.0.1:80", "10.0.0.2:80"}}
	pool := NewPool(Options{Source: src, Checker: onlyValid()})

	_, err := pool.Get(context.Background())
	if !errors.Is(err, ErrNoValidProxies) {
		t.Fatalf("expected ErrNoValidProxies, got %v", err)
	}
}

func TestInvalidateDropsAfterMaxFailures(t *testing.T) {
	src := &staticSource{addrs: []string{"10.0.0.1:80", "10.0.0.2:80"}}
	pool := NewPool(Options{
		Source:      src,
		Checker:     onlyValid("10.0.0.1:80", "10.0.0.2:80"),
		MaxFailures: 2,
		Concurrency: 1,
	})

	first, err := pool.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	pool.Invalidate(first)
	if pool.Current() != first {
		t.Fatalf("proxy dropped after a single failure")
	}
	pool.Invalidate(first)
	if pool.Current() != "" {
		t.Fatalf("proxy should be dropped after MaxFailures, current = %q", pool.Current())
	}

	second, err := pool.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() after drop error: %v", err)
	}
	if second == first {
		t.Errorf("dropped proxy %q was selected again", first)
	}
}

func TestHTTPSourcePlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "# anonymous proxies\n10.0.0.1:3128\n\nhttp://10.0.0.2:8080\nnot a proxy\n10.0.0.1:3128\n")
	}))
	defer srv.Close()

	got, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	want := []string{"10.0.0.1:3128", "10.0.0.2:8080"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPSourceHTMLTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><table>
<tr><th>IP</th><th>Port</th><th>Anonymity</th></tr>
<tr><td>10.1.1.1</td><td>80</td><td>elite</td></tr>
<tr><td> 10.1.1.2 </td><td>3128</td><td>anonymous</td></tr>
<tr><td>bogus</td><td>port</td><td>-</td></tr>
</table></body></html>`)
	}))
	defer srv.Close()

	got, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	want := []string{"10.1.1.1:80", "10.1.1.2:3128"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPSourceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 503 proxy list")
	}
}

func TestGetRemembersListFailure(t *testing.T) {
	src := &staticSource{err: errors.New("connection refused")}
	pool := NewPool(Options{Source: src, Checker: onlyValid()})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Get(context.Background())
			var le *ListError
			if !errors.As(err, &le) {
				t.Errorf("expected *ListError, got %v", err)
			}
		}()
	}
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Errorf("source fetched %d times, want 1", n)
	}
}

func TestHTTPCheckerClosesConnections(t *testing.T) {
	var closed atomic.Int32
	proxySrv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	proxySrv.Config.ConnState = func(c net.Conn, state http.ConnState) {
		if state == http.StateClosed {
			closed.Add(1)
		}
	}
	proxySrv.Start()
	defer proxySrv.Close()

	check := HTTPChecker("http://tracker.example/", time.Second)
	if err := check(context.Background(), proxySrv.Listener.Addr().String()); err != nil {
		t.Fatalf("check error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for closed.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if closed.Load() == 0 {
		t.Error("checker left its proxy connection open")
	}
}
