package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool {
	_, err := exec.LookPath("vlc")
	return err == nil
}

func vlcArgs(target, title string, startPos float64) []string {
	args := []string{
		target,
		"--meta-title", title,
		"--play-and-exit",
	}
	if startPos > 0 {
		args = append(args, fmt.Sprintf("--start-time=%.0f", startPos))
	}
	return args
}

// Play launches VLC. VLC has no IPC position tracking like mpv, so the
// returned playback is always empty.
func (v *VLC) Play(ctx context.Context, target, title string, startPos float64) (Playback, error) {
	cmd := exec.CommandContext(ctx, "vlc", vlcArgs(target, title, startPos)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		// VLC exits non-zero on user close.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Playback{}, nil
		}
		return Playback{}, fmt.Errorf("running vlc: %w", err)
	}
	return Playback{}, nil
}
