package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"lostfilm/internal/media"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		n       int
		want    int
		wantErr bool
	}{
		{"first", "0\tSD / 547 MiB\n", 3, 0, false},
		{"last", "2\t1080p / 2.4 GiB\n", 3, 2, false},
		{"empty", "", 3, -1, true},
		{"out of range", "5\tx\n", 3, -1, true},
		{"garbage", "abc\tx\n", 3, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSelection(tt.out, tt.n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSelection() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseSelection() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestListModelSelects(t *testing.T) {
	var m tea.Model = newListModel("Select quality", []string{"SD", "720p", "1080p"})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got := m.(listModel).choice; got != 1 {
		t.Errorf("choice = %d, want 1", got)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestListModelCancels(t *testing.T) {
	var m tea.Model = newListModel("Select quality", []string{"SD", "720p"})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.(listModel).choice; got != -1 {
		t.Errorf("choice after esc = %d, want -1", got)
	}
}

func TestLabels(t *testing.T) {
	ep := media.NewEpisode(245, 3, "7")
	ep.SeriesTitle = "Пространство"
	ep.EpisodeTitle = "Делай, что должно"
	ep.OriginalTitle = "Delta-V"

	if got, want := EpisodeLabel(ep, true), "03.7 Пространство / Делай, что должно / Delta-V"; got != want {
		t.Errorf("EpisodeLabel() = %q, want %q", got, want)
	}
	if got, want := EpisodeLabel(ep, false), "03.7 Пространство / Делай, что должно"; got != want {
		t.Errorf("EpisodeLabel(no original) = %q, want %q", got, want)
	}

	season := media.NewEpisode(245, 3, media.CompleteSeasonCode)
	season.SeriesTitle = "Пространство"
	season.EpisodeTitle = "3 сезон полностью"
	if got, want := EpisodeLabel(season, true), "Пространство / 3 сезон полностью"; got != want {
		t.Errorf("EpisodeLabel(season) = %q, want %q", got, want)
	}

	s := &media.Series{Title: "Викинги", OriginalTitle: "Vikings"}
	if got, want := SeriesLabel(s, true), "Викинги (Vikings)"; got != want {
		t.Errorf("SeriesLabel() = %q, want %q", got, want)
	}
	if got, want := SeriesLabel(s, false), "Викинги"; got != want {
		t.Errorf("SeriesLabel(no original) = %q, want %q", got, want)
	}
}
