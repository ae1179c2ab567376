package torrent

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lostfilm/internal/media"
)

func TestSelectFile(t *testing.T) {
	tor := &Torrent{Name: "pack", files: []media.TorrentFile{
		{Index: 0, Path: "pack/sample.mkv", Length: 100},
		{Index: 1, Path: "pack/e01.mkv", Length: 2000},
		{Index: 2, Path: "pack/e02.mkv", Length: 1500},
	}}

	idx, err := selectFile(tor, nil)
	if err != nil || idx != 1 {
		t.Errorf("selectFile(nil) = %d, %v; want largest file 1", idx, err)
	}

	two := 2
	if idx, err := selectFile(tor, &two); err != nil || idx != 2 {
		t.Errorf("selectFile(2) = %d, %v", idx, err)
	}

	bad := 3
	if _, err := selectFile(tor, &bad); err == nil {
		t.Error("expected error for out-of-range file id")
	}

	if _, err := selectFile(&Torrent{Name: "empty"}, nil); err == nil {
		t.Error("expected error for torrent without files")
	}
}

func TestWebtorrentArgs(t *testing.T) {
	got := webtorrentArgs("/data/ep.torrent", "/tmp/stream-1", 9000, 2)
	want := []string{"download", "/data/ep.torrent", "--out", "/tmp/stream-1", "--port", "9000", "--select", "2", "--quiet"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("webtorrentArgs mismatch (-want +got):\n%s", diff)
	}
	if u := streamURL(9000, 2); u != "http://127.0.0.1:9000/2" {
		t.Errorf("streamURL = %q", u)
	}
}

func TestWaitForServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()

	if err := waitForServer(context.Background(), addr, time.Second); err != nil {
		t.Errorf("waitForServer() on a listening port: %v", err)
	}

	ln.Close()
	if err := waitForServer(context.Background(), addr, 300*time.Millisecond); err == nil {
		t.Error("expected timeout for a closed port")
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "pack"), 0700)
	for _, name := range []string{"pack/e01.mkv", "pack/e02.mkv", "ep.torrent"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := collectFiles(dir, filepath.Join(dir, "ep.torrent"))
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(files)
	want := []string{filepath.Join(dir, "pack/e01.mkv"), filepath.Join(dir, "pack/e02.mkv")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("collectFiles mismatch (-want +got):\n%s", diff)
	}
}
