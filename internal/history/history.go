// Package history manages the watch history, stored in the history table of
// the application database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lostfilm/internal/media"
)

// Store reads and writes history entries.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store over db, which must carry the history table.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Load returns all entries, most recently watched first.
func (s *Store) Load(ctx context.Context) ([]media.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT series_id, season, episode, title, position, duration, watched_at
		FROM history ORDER BY watched_at DESC, series_id, season, episode`)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Find returns the entry for one release, or nil if it was never played.
func (s *Store) Find(ctx context.Context, seriesID, season int, episode string) (*media.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT series_id, season, episode, title, position, duration, watched_at
		FROM history WHERE series_id = ? AND season = ? AND episode = ?`,
		seriesID, season, episode)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return &e, nil
}

// Save writes or updates an entry. A zero WatchedAt is set to now.
func (s *Store) Save(ctx context.Context, entry media.HistoryEntry) error {
	if entry.WatchedAt.IsZero() {
		entry.WatchedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (series_id, season, episode, title, position, duration, watched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(series_id, season, episode) DO UPDATE SET
			title = excluded.title,
			position = excluded.position,
			duration = excluded.duration,
			watched_at = excluded.watched_at`,
		entry.SeriesID, entry.Season, entry.Episode, entry.Title,
		entry.Position, entry.Duration, entry.WatchedAt.Unix())
	if err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// Remove deletes an entry from the history.
func (s *Store) Remove(ctx context.Context, seriesID, season int, episode string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM history WHERE series_id = ? AND season = ? AND episode = ?",
		seriesID, season, episode)
	if err != nil {
		return fmt.Errorf("removing history entry: %w", err)
	}
	return nil
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// FormatForDisplay creates display strings for selection from history entries.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	var items []string
	for _, e := range entries {
		var display string
		if e.Episode == "" {
			display = fmt.Sprintf("%s Season %d", e.Title, e.Season)
		} else {
			display = fmt.Sprintf("%s %02d.%s", e.Title, e.Season, e.Episode)
		}
		if e.Position > 0 {
			pct := 0.0
			if e.Duration > 0 {
				pct = (e.Position / e.Duration) * 100
			}
			display += fmt.Sprintf(" [%.0f%%]", pct)
		}
		items = append(items, display)
	}
	return items
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (media.HistoryEntry, error) {
	var (
		e         media.HistoryEntry
		watchedAt int64
	)
	if err := sc.Scan(&e.SeriesID, &e.Season, &e.Episode, &e.Title, &e.Position, &e.Duration, &watchedAt); err != nil {
		return media.HistoryEntry{}, err
	}
	e.WatchedAt = time.Unix(watchedAt, 0)
	return e, nil
}
