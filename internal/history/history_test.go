package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lostfilm/internal/media"
	"lostfilm/internal/store"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "lostfilm.db"))
	if err != nil {
		t.Fatalf("store.Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestSaveAndLoad(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	entry := media.HistoryEntry{
		SeriesID:  245,
		Title:     "Пространство",
		Season:    3,
		Episode:   "7",
		Position:  1234,
		Duration:  2537,
		WatchedAt: time.Unix(1700000000, 0),
	}

	if err := s.Save(ctx, entry); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	entries, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if got.SeriesID != entry.SeriesID || got.Episode != entry.Episode {
		t.Errorf("got %+v, want %+v", got, entry)
	}
	if got.Position != entry.Position {
		t.Errorf("Position = %f, want %f", got.Position, entry.Position)
	}
	if !got.WatchedAt.Equal(entry.WatchedAt) {
		t.Errorf("WatchedAt = %v, want %v", got.WatchedAt, entry.WatchedAt)
	}
}

func TestSaveUpdatesExisting(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	entry := media.HistoryEntry{SeriesID: 1, Title: "Test", Season: 1, Episode: "2", Position: 100}
	s.Save(ctx, entry)

	entry.Position = 500
	s.Save(ctx, entry)

	entries, _ := s.Load(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after update, got %d", len(entries))
	}
	if entries[0].Position != 500 {
		t.Errorf("position = %f, want 500", entries[0].Position)
	}
}

func TestFind(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.Save(ctx, media.HistoryEntry{SeriesID: 9, Title: "Season pack", Season: 2, Position: 42})

	got, err := s.Find(ctx, 9, 2, "")
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if got == nil || got.Position != 42 {
		t.Errorf("Find() = %+v, want position 42", got)
	}

	missing, err := s.Find(ctx, 9, 3, "")
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if missing != nil {
		t.Errorf("Find() for unknown release = %+v, want nil", missing)
	}
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.Save(ctx, media.HistoryEntry{SeriesID: 1, Title: "A", Season: 1, Episode: "1"})
	s.Save(ctx, media.HistoryEntry{SeriesID: 2, Title: "B", Season: 1, Episode: "1"})

	if err := s.Remove(ctx, 1, 1, "1"); err != nil {
		t.Fatal(err)
	}

	entries, _ := s.Load(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after remove, got %d", len(entries))
	}
	if entries[0].SeriesID != 2 {
		t.Errorf("remaining entry SeriesID = %d, want 2", entries[0].SeriesID)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if entries, _ := s.Load(ctx); len(entries) != 0 {
		t.Errorf("expected empty history after Clear, got %d", len(entries))
	}
}

func TestLoadOrdersByRecency(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.Save(ctx, media.HistoryEntry{SeriesID: 1, Title: "Old", Season: 1, Episode: "1", WatchedAt: time.Unix(100, 0)})
	s.Save(ctx, media.HistoryEntry{SeriesID: 2, Title: "New", Season: 1, Episode: "1", WatchedAt: time.Unix(200, 0)})

	entries, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Title != "New" {
		t.Errorf("Load() order = %+v, want newest first", entries)
	}
}

func TestFormatForDisplay(t *testing.T) {
	entries := []media.HistoryEntry{
		{Title: "Show A", Season: 2, Episode: "5", Position: 500, Duration: 1000},
		{Title: "Show B", Season: 1, Position: 0},
	}

	items := FormatForDisplay(entries)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if items[0] != "Show A 02.5 [50%]" {
		t.Errorf("episode display = %q, want 'Show A 02.5 [50%%]'", items[0])
	}
	if items[1] != "Show B Season 1" {
		t.Errorf("season display = %q, want 'Show B Season 1'", items[1])
	}
}
