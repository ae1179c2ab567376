package torrent

import (
	"context"
	"fmt"
	"log/slog"

	"lostfilm/internal/player"
)

// PlayOptions selects what to stream and how to present it.
type PlayOptions struct {
	FileID   *int // Nil streams the largest file
	Title    string
	StartPos float64
}

// StreamResult is what a stream leaves behind once playback ends.
type StreamResult struct {
	TempFiles []string // Downloaded content still in temporary storage
	Playback  player.Playback
}

// Streamer opens a torrent as a playable stream.
type Streamer interface {
	Play(ctx context.Context, p player.Player, t *Torrent, opts PlayOptions) (*StreamResult, error)

	// SavedFilesNeeded reports whether the stream layer still needs its temp
	// files after playback, in which case they must be copied, not moved.
	SavedFilesNeeded() bool
}

// Hooks persist or discard what a stream downloaded. Both are external
// collaborators; SaveFiles is expected to clean temp state once it is done.
type Hooks interface {
	SaveFiles(files []string, move bool) error
	PurgeTemp() error
}

// Play streams t with p and then invokes exactly one hook: SaveFiles when
// the stream left files behind, PurgeTemp otherwise, including when the
// stream itself failed.
func Play(ctx context.Context, st Streamer, p player.Player, t *Torrent, opts PlayOptions, hooks Hooks) (player.Playback, error) {
	res, err := st.Play(ctx, p, t, opts)
	if err != nil {
		if perr := hooks.PurgeTemp(); perr != nil {
			slog.Warn("purging temp files", "err", perr)
		}
		return player.Playback{}, fmt.Errorf("streaming %s: %w", t.Name, err)
	}

	if len(res.TempFiles) == 0 {
		return res.Playback, hooks.PurgeTemp()
	}

	if err := hooks.SaveFiles(res.TempFiles, !st.SavedFilesNeeded()); err != nil {
		return res.Playback, fmt.Errorf("saving downloaded files: %w", err)
	}
	return res.Playback, nil
}
