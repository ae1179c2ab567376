// Package proxy maintains a rotating pool of anonymous HTTP proxies.
//
// The pool loads candidates from a Source, validates them concurrently and
// hands out the first one that works. Callers report broken proxies with
// Invalidate; after MaxFailures reports the proxy is dropped and the next Get
// selects a new one.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrNoValidProxies is returned when no candidate from the list passes validation.
var ErrNoValidProxies = errors.New("no valid proxies found")

// ListError is returned when the proxy list cannot be loaded or is empty.
type ListError struct {
	Err error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("loading proxy list: %v", e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// Source supplies candidate proxy addresses ("host:port").
type Source interface {
	Fetch(ctx context.Context) ([]string, error)
}

// Checker validates a single proxy address.
type Checker func(ctx context.Context, addr string) error

// Options configures a Pool.
type Options struct {
	Source       Source
	Checker      Checker // Defaults to HTTPChecker(CheckURL, CheckTimeout)
	CheckURL     string
	CheckTimeout time.Duration
	MaxFailures  int // Failures before a proxy is dropped; default 3
	Concurrency  int // Parallel validations; default 10
}

// Pool hands out a validated proxy and tracks its health.
type Pool struct {
	source      Source
	check       Checker
	maxFailures int
	concurrency int

	mu       sync.Mutex
	listErr  *ListError
	current  string
	failures map[string]int
	dropped  map[string]bool
}

// NewPool creates a pool. Nothing is fetched until the first Get.
func NewPool(opts Options) *Pool {
	p := &Pool{
		source:      opts.Source,
		check:       opts.Checker,
		maxFailures: opts.MaxFailures,
		concurrency: opts.Concurrency,
		failures:    make(map[string]int),
		dropped:     make(map[string]bool),
	}
	if p.maxFailures <= 0 {
		p.maxFailures = 3
	}
	if p.concurrency <= 0 {
		p.concurrency = 10
	}
	if p.check == nil {
		timeout := opts.CheckTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		p.check = HTTPChecker(opts.CheckURL, timeout)
	}
	return p
}

// Get returns the current proxy, selecting a new one if there is none.
// Selection holds the pool lock, so concurrent callers share one refresh.
func (p *Pool) Get(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != "" {
		return p.current, nil
	}

	// A list that failed once stays failed for the life of the pool.
	if p.listErr != nil {
		return "", p.listErr
	}

	addrs, err := p.source.Fetch(ctx)
	if err != nil {
		p.listErr = &ListError{Err: err}
		return "", p.listErr
	}
	if len(addrs) == 0 {
		p.listErr = &ListError{Err: errors.New("proxy list is empty")}
		return "", p.listErr
	}

	candidates := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if !p.dropped[a] {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return "", &ListError{Err: errors.New("every listed proxy has been dropped")}
	}

	addr := p.selectValid(ctx, candidates)
	if addr == "" {
		return "", ErrNoValidProxies
	}

	slog.Debug("selected proxy", "addr", addr, "candidates", len(candidates))
	p.current = addr
	return addr, nil
}

// selectValid checks candidates in parallel and returns the first that passes.
func (p *Pool) selectValid(ctx context.Context, candidates []string) string {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	var (
		once  sync.Once
		found string
	)
	for _, addr := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := p.check(gctx, addr); err != nil {
				slog.Debug("proxy rejected", "addr", addr, "err", err)
				return nil
			}
			once.Do(func() {
				found = addr
				cancel()
			})
			return nil
		})
	}
	_ = g.Wait()
	return found
}

// Invalidate records a failure for addr and drops it after MaxFailures.
func (p *Pool) Invalidate(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failures[addr]++
	if p.failures[addr] < p.maxFailures {
		return
	}

	slog.Debug("dropping proxy", "addr", addr, "failures", p.failures[addr])
	delete(p.failures, addr)
	p.dropped[addr] = true
	if p.current == addr {
		p.current = ""
	}
}

// Current returns the proxy in use, or "" if none has been selected.
func (p *Pool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
