package torrent

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"lostfilm/internal/player"
)

// WebtorrentStreamer streams through the webtorrent CLI, which downloads into
// a temp directory and serves the selected file over local HTTP.
type WebtorrentStreamer struct {
	Binary         string        // Defaults to "webtorrent"
	TempDir        string        // Parent of per-stream download dirs
	Port           int           // Defaults to 8888
	StartupTimeout time.Duration // Defaults to 30s
}

func (w *WebtorrentStreamer) binary() string {
	if w.Binary != "" {
		return w.Binary
	}
	return "webtorrent"
}

func (w *WebtorrentStreamer) port() int {
	if w.Port > 0 {
		return w.Port
	}
	return 8888
}

// Available checks if the webtorrent binary exists in PATH.
func (w *WebtorrentStreamer) Available() bool {
	_, err := exec.LookPath(w.binary())
	return err == nil
}

// SavedFilesNeeded is false: the download dir is ours and webtorrent exits
// with the player, so files can be moved out.
func (w *WebtorrentStreamer) SavedFilesNeeded() bool { return false }

// Play starts webtorrent, waits for its HTTP server and plays the stream.
func (w *WebtorrentStreamer) Play(ctx context.Context, p player.Player, t *Torrent, opts PlayOptions) (*StreamResult, error) {
	idx, err := selectFile(t, opts.FileID)
	if err != nil {
		return nil, err
	}

	if w.TempDir != "" {
		if err := os.MkdirAll(w.TempDir, 0700); err != nil {
			return nil, fmt.Errorf("creating temp dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(w.TempDir, "stream-*")
	if err != nil {
		return nil, fmt.Errorf("creating stream dir: %w", err)
	}

	torrentPath := t.LocalPath()
	if torrentPath == "" {
		if torrentPath, err = t.DownloadLocally(dir); err != nil {
			return nil, err
		}
	}

	port := w.port()
	args := webtorrentArgs(torrentPath, dir, port, idx)

	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmd := exec.CommandContext(cmdCtx, w.binary(), args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting webtorrent: %w", err)
	}
	slog.Debug("webtorrent started", "pid", cmd.Process.Pid, "file", idx, "dir", dir)

	timeout := w.StartupTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	if err := waitForServer(ctx, addr, timeout); err != nil {
		cancel()
		cmd.Wait()
		return nil, err
	}

	pb, playErr := p.Play(ctx, streamURL(port, idx), opts.Title, opts.StartPos)

	cancel()
	cmd.Wait()

	if playErr != nil {
		return nil, playErr
	}

	files, err := collectFiles(dir, t.LocalPath())
	if err != nil {
		return nil, err
	}
	return &StreamResult{TempFiles: files, Playback: pb}, nil
}

func webtorrentArgs(torrentPath, outDir string, port, idx int) []string {
	return []string{
		"download", torrentPath,
		"--out", outDir,
		"--port", strconv.Itoa(port),
		"--select", strconv.Itoa(idx),
		"--quiet",
	}
}

func streamURL(port, idx int) string {
	return fmt.Sprintf("http://127.0.0.1:%d/%d", port, idx)
}

// selectFile validates fileID, or picks the largest file when it is nil.
func selectFile(t *Torrent, fileID *int) (int, error) {
	files := t.Files()
	if len(files) == 0 {
		return 0, fmt.Errorf("torrent %s has no files", t.Name)
	}
	if fileID != nil {
		if *fileID < 0 || *fileID >= len(files) {
			return 0, fmt.Errorf("file %d not in torrent (%d files)", *fileID, len(files))
		}
		return *fileID, nil
	}
	best := files[0]
	for _, f := range files[1:] {
		if f.Length > best.Length {
			best = f
		}
	}
	return best.Index, nil
}

// waitForServer polls addr until it accepts connections.
func waitForServer(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("stream server at %s did not start: %w", addr, ctx.Err())
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// collectFiles lists regular files under dir, skipping the torrent itself.
func collectFiles(dir, skip string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && path != skip {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing stream files: %w", err)
	}
	return files, nil
}
