// Package torrent retrieves .torrent files from the tracker, stores them
// locally and streams their content to a player.
package torrent

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	bencode "github.com/jackpal/bencode-go"

	"lostfilm/internal/httputil"
	"lostfilm/internal/media"
	"lostfilm/internal/session"
)

// Fetcher downloads a URL. *scraper.Gateway satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, params, data url.Values, opts ...session.RequestOption) (*session.Response, error)
}

type metainfo struct {
	Announce string   `bencode:"announce"`
	Info     infoDict `bencode:"info"`
}

type infoDict struct {
	Name        string     `bencode:"name"`
	Length      int64      `bencode:"length"`
	PieceLength int64      `bencode:"piece length"`
	Files       []fileDict `bencode:"files"`
}

type fileDict struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

// Torrent is a decoded .torrent file.
type Torrent struct {
	Name     string
	Announce string
	URL      string // Where it was fetched from
	Data     []byte // Raw bencoded content

	files     []media.TorrentFile
	localPath string
}

// Fetch downloads rawURL through f and decodes it.
func Fetch(ctx context.Context, f Fetcher, rawURL string) (*Torrent, error) {
	if err := httputil.ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("invalid torrent URL: %w", err)
	}
	resp, err := f.Fetch(ctx, rawURL, nil, nil, session.WithHeader("Accept", "application/x-bittorrent"))
	if err != nil {
		return nil, err
	}
	t, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding torrent from %s: %w", rawURL, err)
	}
	t.URL = rawURL
	return t, nil
}

// Parse decodes bencoded metainfo.
func Parse(data []byte) (*Torrent, error) {
	var mi metainfo
	if err := bencode.Unmarshal(bytes.NewReader(data), &mi); err != nil {
		return nil, fmt.Errorf("parsing metainfo: %w", err)
	}
	if mi.Info.Name == "" {
		return nil, fmt.Errorf("metainfo has no name")
	}

	t := &Torrent{
		Name:     mi.Info.Name,
		Announce: mi.Announce,
		Data:     data,
	}

	if len(mi.Info.Files) == 0 {
		t.files = []media.TorrentFile{{Index: 0, Path: mi.Info.Name, Length: mi.Info.Length}}
		return t, nil
	}

	for i, f := range mi.Info.Files {
		if len(f.Path) == 0 {
			return nil, fmt.Errorf("file %d has an empty path", i)
		}
		t.files = append(t.files, media.TorrentFile{
			Index:  i,
			Path:   path.Join(append([]string{mi.Info.Name}, f.Path...)...),
			Length: f.Length,
		})
	}
	return t, nil
}

// Files lists the files inside the torrent in metainfo order.
func (t *Torrent) Files() []media.TorrentFile {
	return append([]media.TorrentFile(nil), t.files...)
}

// Size returns the total content size.
func (t *Torrent) Size() int64 {
	var n int64
	for _, f := range t.files {
		n += f.Length
	}
	return n
}

// LocalPath returns where DownloadLocally stored the file, if it did.
func (t *Torrent) LocalPath() string {
	return t.localPath
}

// DownloadLocally writes the .torrent file into dir, creating dir first.
// The write is atomic (temp file + rename). It returns the file path.
func (t *Torrent) DownloadLocally(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating torrent dir: %w", err)
	}

	dest, err := httputil.SafeDownloadPath(dir, t.Name+".torrent")
	if err != nil {
		return "", err
	}

	tmpFile, err := os.CreateTemp(dir, ".torrent-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(t.Data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing torrent: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming torrent file: %w", err)
	}

	t.localPath = filepath.Clean(dest)
	return t.localPath, nil
}
