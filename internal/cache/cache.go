// Package cache keeps fetched series metadata for a fixed time-to-live.
//
// Lookups hit an in-memory tier first and fall back to the sqlite
// series_cache table, so metadata survives between CLI invocations.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"lostfilm/internal/media"
)

// Options configures a SeriesCache.
type Options struct {
	TTL time.Duration // Zero or negative means the 3 hour default
	DB  *sql.DB // Optional disk tier
}

// SeriesCache maps series ids to immutable *media.Series records.
// It is safe for concurrent use; entries are replaced whole, never mutated.
type SeriesCache struct {
	mem *cache.Cache
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// New creates a series cache.
func New(opts Options) *SeriesCache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 3 * time.Hour
	}
	return &SeriesCache{
		mem: cache.New(ttl, 10*time.Minute),
		db:  opts.DB,
		ttl: ttl,
		now: time.Now,
	}
}

func key(id int) string { return strconv.Itoa(id) }

// Get returns the cached series for id if it has not expired.
func (c *SeriesCache) Get(ctx context.Context, id int) (*media.Series, bool) {
	if v, ok := c.mem.Get(key(id)); ok {
		if s, ok := v.(*media.Series); ok {
			return s, true
		}
	}
	if c.db == nil {
		return nil, false
	}

	var (
		data      []byte
		fetchedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT data, fetched_at FROM series_cache WHERE id = ?", id).Scan(&data, &fetchedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("reading series cache", "id", id, "err", err)
		}
		return nil, false
	}

	age := c.now().Sub(time.Unix(fetchedAt, 0))
	if age >= c.ttl {
		return nil, false
	}

	var s media.Series
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("discarding corrupt series cache entry", "id", id, "err", err)
		return nil, false
	}
	c.mem.Set(key(id), &s, c.ttl-age)
	return &s, true
}

// Set stores s in both tiers. Disk failures are logged; the memory tier
// always receives the entry.
func (c *SeriesCache) Set(ctx context.Context, s *media.Series) {
	if s == nil {
		return
	}
	c.mem.Set(key(s.ID), s, cache.DefaultExpiration)
	if c.db == nil {
		return
	}

	data, err := json.Marshal(s)
	if err != nil {
		slog.Warn("encoding series for cache", "id", s.ID, "err", err)
		return
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO series_cache (id, data, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, fetched_at = excluded.fetched_at`,
		s.ID, data, c.now().Unix())
	if err != nil {
		slog.Warn("writing series cache", "id", s.ID, "err", err)
	}
}

// Delete removes id from both tiers, forcing the next lookup to refetch.
func (c *SeriesCache) Delete(ctx context.Context, id int) error {
	c.mem.Delete(key(id))
	if c.db == nil {
		return nil
	}
	_, err := c.db.ExecContext(ctx, "DELETE FROM series_cache WHERE id = ?", id)
	return err
}

// Prune drops expired rows from the disk tier and returns how many went.
func (c *SeriesCache) Prune(ctx context.Context) (int64, error) {
	c.mem.DeleteExpired()
	if c.db == nil {
		return 0, nil
	}
	cutoff := c.now().Add(-c.ttl).Unix()
	res, err := c.db.ExecContext(ctx, "DELETE FROM series_cache WHERE fetched_at <= ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Len reports the number of entries in the memory tier.
func (c *SeriesCache) Len() int {
	return c.mem.ItemCount()
}
