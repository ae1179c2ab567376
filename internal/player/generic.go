package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Generic implements the Player interface for players like iina and celluloid
// that accept mpv-compatible arguments.
type Generic struct {
	name string
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool {
	_, err := exec.LookPath(g.name)
	return err == nil
}

func genericArgs(target, title string, startPos float64) []string {
	args := []string{target, "--force-media-title=" + title}
	if startPos > 0 {
		args = append(args, fmt.Sprintf("--start=+%.0f", startPos))
	}
	return args
}

// Play launches the generic player. Position tracking is not supported.
func (g *Generic) Play(ctx context.Context, target, title string, startPos float64) (Playback, error) {
	cmd := exec.CommandContext(ctx, g.name, genericArgs(target, title, startPos)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Playback{}, nil
		}
		return Playback{}, fmt.Errorf("running %s: %w", g.name, err)
	}
	return Playback{}, nil
}
