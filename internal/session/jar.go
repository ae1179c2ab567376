package session

import (
	"encoding/gob"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// cookieRecord is the persisted form of a cookie. net/http/cookiejar keeps its
// entries private, so the jar mirrors everything it is given here.
type cookieRecord struct {
	URL      string // scheme://host of the origin that last set the cookie
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	Secure   bool
	HttpOnly bool
}

// key identifies a cookie the way net/http/cookiejar does: by effective
// domain, path and name. Scheme and port are not part of it, so a cookie
// replaced from another origin overwrites the old record.
func (r cookieRecord) key() string {
	domain := strings.ToLower(strings.TrimPrefix(r.Domain, "."))
	if domain == "" {
		if u, err := url.Parse(r.URL); err == nil {
			domain = strings.ToLower(u.Hostname())
		}
	}
	return domain + ";" + r.Path + ";" + r.Name
}

// defaultPath is the RFC 6265 default cookie path for a request path.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func (r cookieRecord) expired(now time.Time) bool {
	return !r.Expires.IsZero() && !r.Expires.After(now)
}

func (r cookieRecord) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     r.Name,
		Value:    r.Value,
		Path:     r.Path,
		Domain:   r.Domain,
		Expires:  r.Expires,
		Secure:   r.Secure,
		HttpOnly: r.HttpOnly,
	}
}

// Jar is an http.CookieJar that can be written to and restored from a file.
type Jar struct {
	jar *cookiejar.Jar

	mu      sync.Mutex
	records map[string]cookieRecord
}

// NewJar creates an empty jar using the public suffix list.
func NewJar() (*Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Jar{jar: jar, records: make(map[string]cookieRecord)}, nil
}

// LoadJar restores a jar previously written with Save. Expired cookies are skipped.
func LoadJar(path string) (*Jar, error) {
	j, err := NewJar()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cookie jar: %w", err)
	}
	defer f.Close()

	var records []cookieRecord
	if err := gob.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding cookie jar %s: %w", path, err)
	}

	now := time.Now()
	for _, r := range records {
		if r.expired(now) {
			continue
		}
		u, err := url.Parse(r.URL)
		if err != nil {
			continue
		}
		j.SetCookies(u, []*http.Cookie{r.cookie()})
	}
	return j, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	origin := u.Scheme + "://" + u.Host
	for _, c := range cookies {
		r := cookieRecord{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if r.Path == "" || r.Path[0] != '/' {
			r.Path = defaultPath(u.Path)
		}
		if c.MaxAge > 0 {
			r.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || r.expired(now) {
			delete(j.records, r.key())
			continue
		}
		j.records[r.key()] = r
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Save overwrites path with the current cookies. The write goes through a
// temp file and rename so a crash never leaves a truncated jar.
func (j *Jar) Save(path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	records := make([]cookieRecord, 0, len(j.records))
	for _, r := range j.records {
		if !r.expired(now) {
			records = append(records, r)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating cookie dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "cookies-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := gob.NewEncoder(tmpFile).Encode(records); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encoding cookies: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming cookie jar: %w", err)
	}
	return nil
}

// Len returns the number of live cookies held.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.records)
}
