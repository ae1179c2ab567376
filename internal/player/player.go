// Package player launches external media players for torrent streams and
// downloaded files. All player invocations use exec.CommandContext with
// explicit argument slices, so titles and paths are never shell-interpreted.
package player

import (
	"context"
	"fmt"
)

// Playback is what a player reports once it exits.
type Playback struct {
	Position float64 // Seconds, 0 when the player cannot report it
	Duration float64
}

// Player is the interface for media player implementations.
type Player interface {
	// Play opens target (a URL or a local path) and blocks until the player
	// exits.
	Play(ctx context.Context, target, title string, startPos float64) (Playback, error)

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name.
func New(name string) (Player, error) {
	switch name {
	case "", "mpv":
		return &MPV{}, nil
	case "vlc":
		return &VLC{}, nil
	case "iina", "celluloid":
		return &Generic{name: name}, nil
	default:
		return nil, fmt.Errorf("unsupported player %q", name)
	}
}

// FormatPosition formats seconds as H:MM:SS or M:SS.
func FormatPosition(seconds float64) string {
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
