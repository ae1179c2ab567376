// Package lostfilm scrapes the LostFilm tracker: authentication, series
// metadata, episode listings and torrent links. Every request goes through
// the fetch gateway, so all network failures surface as *scraper.Error.
package lostfilm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"golang.org/x/sync/errgroup"

	"lostfilm/internal/media"
	"lostfilm/internal/scraper"
	"lostfilm/internal/session"
)

// sessionCookie is set by the site after a successful login.
const sessionCookie = "lf_session"

// SeriesCache is the TTL cache used by Series and SeriesBulk.
type SeriesCache interface {
	Get(ctx context.Context, id int) (*media.Series, bool)
	Set(ctx context.Context, s *media.Series)
}

// CookieSource reports the cookies the session would send to a URL.
type CookieSource interface {
	Cookies(rawURL string) []*http.Cookie
}

// Options configures a Scraper.
type Options struct {
	BaseURL  string
	Login    string
	Password string

	// MaxWorkers bounds concurrent fetches in SeriesBulk.
	MaxWorkers int

	// Cache holds fetched series. Nil disables caching.
	Cache SeriesCache

	// Cookies lets EnsureLogin skip the login request when a session
	// cookie is already present. Nil means always log in once per Scraper.
	Cookies CookieSource
}

// Scraper talks to the tracker.
type Scraper struct {
	gw       *scraper.Gateway
	base     string
	login    string
	password string
	workers  int
	cache    SeriesCache
	cookies  CookieSource

	mu       sync.Mutex
	loggedIn bool
}

// New creates a scraper issuing requests through gw.
func New(gw *scraper.Gateway, opts Options) *Scraper {
	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Scraper{
		gw:       gw,
		base:     strings.TrimRight(opts.BaseURL, "/"),
		login:    opts.Login,
		password: opts.Password,
		workers:  workers,
		cache:    opts.Cache,
		cookies:  opts.Cookies,
	}
}

func (s *Scraper) url(path string) string {
	return s.base + "/" + strings.TrimLeft(path, "/")
}

// loginResponse is the JSON body returned by the login endpoint.
type loginResponse struct {
	Name        string `json:"name"`
	Success     bool   `json:"success"`
	Error       int    `json:"error"`
	NeedCaptcha bool   `json:"need_captcha"`
}

// Login authenticates with the given credentials. The site answers 200 for
// rejected credentials too, so the outcome is decided by the response body.
func (s *Scraper) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return scraper.NewError(scraper.CodeAuth, nil, "Login and password are required")
	}

	data := url.Values{
		"act":  {"users"},
		"type": {"login"},
		"mail": {username},
		"pass": {password},
		"rem":  {"1"},
	}
	resp, err := s.gw.Fetch(ctx, s.url("ajaxik.php"), nil, data, session.WithReferer(s.url("login")))
	if err != nil {
		return err
	}

	var result loginResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return scraper.NewError(scraper.CodeParse, err, "Unexpected login response")
	}
	if result.NeedCaptcha {
		return scraper.NewError(scraper.CodeAuth, nil, "Login requires a captcha, log in through the browser once")
	}
	if !result.Success {
		return scraper.NewError(scraper.CodeAuth, nil, "Authorization failed for %s (error %d)", username, result.Error)
	}

	s.mu.Lock()
	s.loggedIn = true
	s.mu.Unlock()
	slog.Debug("logged in", "user", result.Name)
	return nil
}

// LoggedIn reports whether the session holds an authenticated cookie.
func (s *Scraper) LoggedIn() bool {
	s.mu.Lock()
	loggedIn := s.loggedIn
	s.mu.Unlock()
	if loggedIn {
		return true
	}
	if s.cookies == nil {
		return false
	}
	for _, c := range s.cookies.Cookies(s.base + "/") {
		if c.Name == sessionCookie && c.Value != "" {
			return true
		}
	}
	return false
}

// EnsureLogin logs in with the configured credentials unless the session
// is already authenticated.
func (s *Scraper) EnsureLogin(ctx context.Context) error {
	if s.LoggedIn() {
		return nil
	}
	return s.Login(ctx, s.login, s.password)
}

// fetchDocument fetches a page through the gateway and parses it.
func (s *Scraper) fetchDocument(ctx context.Context, path string, params url.Values) (*goquery.Document, error) {
	resp, err := s.gw.Fetch(ctx, s.url(path), params, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, scraper.NewError(scraper.CodeParse, err, "Can't parse page %s", path)
	}
	return doc, nil
}

func seriesParams(id int) url.Values {
	return url.Values{"cat": {strconv.Itoa(id)}}
}

// fetchSeries fetches and parses one series page, bypassing the cache.
func (s *Scraper) fetchSeries(ctx context.Context, id int) (*media.Series, *goquery.Document, error) {
	doc, err := s.fetchDocument(ctx, "browse.php", seriesParams(id))
	if err != nil {
		return nil, nil, err
	}
	series := parseSeries(doc, id, s.base)
	if series == nil {
		return nil, nil, scraper.NewError(scraper.CodeParse, nil, "No series found with id %d", id)
	}
	return series, doc, nil
}

// Series returns the metadata of one series, from the cache when fresh.
func (s *Scraper) Series(ctx context.Context, id int) (*media.Series, error) {
	if s.cache != nil {
		if series, ok := s.cache.Get(ctx, id); ok {
			return series, nil
		}
	}
	series, _, err := s.fetchSeries(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, series)
	}
	return series, nil
}

// SeriesBulk returns metadata for every id it can resolve. Cache misses are
// fetched concurrently, at most MaxWorkers at a time. A failing id is logged
// and left out of the result; it never fails the whole batch.
func (s *Scraper) SeriesBulk(ctx context.Context, ids []int) map[int]*media.Series {
	results := csmap.Create[int, *media.Series]()

	var missing []int
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if s.cache != nil {
			if series, ok := s.cache.Get(ctx, id); ok {
				results.Store(id, series)
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		slog.Debug("fetching series", "count", len(missing), "cached", len(seen)-len(missing))

		var g errgroup.Group
		g.SetLimit(s.workers)
		for _, id := range missing {
			g.Go(func() error {
				series, _, err := s.fetchSeries(ctx, id)
				if err != nil {
					slog.Warn("skipping series", "id", id, "code", scraper.Code(err), "err", err)
					return nil
				}
				if s.cache != nil {
					s.cache.Set(ctx, series)
				}
				results.Store(id, series)
				return nil
			})
		}
		g.Wait()
	}

	out := make(map[int]*media.Series, results.Count())
	results.Range(func(id int, series *media.Series) bool {
		out[id] = series
		return false
	})
	return out
}

// SeriesEpisodes returns the episode list of a series, newest first as the
// site orders it. The page also refreshes the series cache entry.
func (s *Scraper) SeriesEpisodes(ctx context.Context, id int) ([]media.Episode, error) {
	series, doc, err := s.fetchSeries(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, series)
	}
	return parseEpisodes(doc, series, s.base), nil
}

// NewEpisodes returns one page (1-based) of the latest releases listing.
func (s *Scraper) NewEpisodes(ctx context.Context, page int) ([]media.Episode, error) {
	if page < 1 {
		page = 1
	}
	doc, err := s.fetchDocument(ctx, "new.php", url.Values{"page": {strconv.Itoa(page)}})
	if err != nil {
		return nil, fmt.Errorf("getting new episodes: %w", err)
	}
	return parseNewEpisodes(doc, s.base), nil
}

// SeriesList returns the full series catalogue.
func (s *Scraper) SeriesList(ctx context.Context) ([]SeriesRef, error) {
	doc, err := s.fetchDocument(ctx, "serials.php", nil)
	if err != nil {
		return nil, fmt.Errorf("getting series list: %w", err)
	}
	return parseSeriesList(doc), nil
}

// TorrentLinks returns every quality variant of a release. An empty episode
// selects the complete-season release. The endpoint requires a login.
func (s *Scraper) TorrentLinks(ctx context.Context, seriesID, season int, episode string) ([]media.TorrentLink, error) {
	if err := s.EnsureLogin(ctx); err != nil {
		return nil, err
	}

	e := media.NewEpisode(seriesID, season, episode)
	params := url.Values{
		"c": {strconv.Itoa(seriesID)},
		"s": {strconv.Itoa(season)},
		"e": {e.Code()},
	}
	doc, err := s.fetchDocument(ctx, "nrdr.php", params)
	if err != nil {
		return nil, err
	}

	links := parseTorrentLinks(doc, s.base)
	if links == nil {
		links = []media.TorrentLink{}
	}
	return links, nil
}
