package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// MPV implements the Player interface for mpv. The playback position is
// tracked over mpv's JSON IPC socket, created at a randomized temp path.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool {
	_, err := exec.LookPath("mpv")
	return err == nil
}

func mpvArgs(target, title, socketPath string, startPos float64) []string {
	args := []string{
		target,
		"--force-media-title=" + title,
		"--input-ipc-server=" + socketPath,
		"--really-quiet",
	}
	if startPos > 0 {
		args = append(args, fmt.Sprintf("--start=+%.0f", startPos))
	}
	return args
}

// Play launches mpv and returns the last observed position and duration.
func (m *MPV) Play(ctx context.Context, target, title string, startPos float64) (Playback, error) {
	socketDir, err := os.MkdirTemp("", "lostfilm-mpv-*")
	if err != nil {
		return Playback{}, fmt.Errorf("creating temp dir for mpv socket: %w", err)
	}
	defer os.RemoveAll(socketDir)

	socketPath := filepath.Join(socketDir, "socket")

	cmd := exec.CommandContext(ctx, "mpv", mpvArgs(target, title, socketPath, startPos)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		return Playback{}, fmt.Errorf("starting mpv: %w", err)
	}

	var (
		wg       sync.WaitGroup
		playback Playback
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		playback = trackPlayback(socketPath)
	}()

	waitErr := cmd.Wait()
	wg.Wait()

	// mpv exits non-zero when the user quits mid-file.
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return playback, fmt.Errorf("running mpv: %w", waitErr)
	}
	return playback, nil
}

// trackPlayback observes time-pos and duration until mpv closes the socket.
func trackPlayback(socketPath string) Playback {
	var pb Playback

	for i := 0; i < 50; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return pb
	}
	defer conn.Close()

	for id, prop := range []string{"time-pos", "duration"} {
		data, _ := json.Marshal(map[string]any{
			"command": []any{"observe_property", id + 1, prop},
		})
		conn.Write(append(data, '\n'))
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var event struct {
			Event string  `json:"event"`
			Name  string  `json:"name"`
			Data  float64 `json:"data"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.Event != "property-change" || event.Data <= 0 {
			continue
		}
		switch event.Name {
		case "time-pos":
			pb.Position = event.Data
		case "duration":
			pb.Duration = event.Data
		}
	}

	return pb
}
