package download

import (
	"os"
	"path/filepath"
	"testing"
)

func setupStream(t *testing.T) (*Library, []string) {
	t.Helper()
	root := t.TempDir()
	lib := &Library{
		Dir:     filepath.Join(root, "Videos"),
		TempDir: filepath.Join(root, "temp"),
	}

	streamDir := filepath.Join(lib.TempDir, "stream-123", "The.Expanse.S03")
	if err := os.MkdirAll(streamDir, 0700); err != nil {
		t.Fatal(err)
	}
	files := []string{
		filepath.Join(streamDir, "e01.mkv"),
		filepath.Join(streamDir, "e02.mkv"),
	}
	for _, f := range files {
		if err := os.WriteFile(f, []byte("video "+filepath.Base(f)), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return lib, files
}

func TestSaveFilesMove(t *testing.T) {
	lib, files := setupStream(t)

	if err := lib.SaveFiles(files, true); err != nil {
		t.Fatalf("SaveFiles() error: %v", err)
	}

	for _, name := range []string{"e01.mkv", "e02.mkv"} {
		data, err := os.ReadFile(filepath.Join(lib.Dir, "The.Expanse.S03", name))
		if err != nil {
			t.Errorf("%s not saved: %v", name, err)
			continue
		}
		if string(data) != "video "+name {
			t.Errorf("%s content = %q", name, data)
		}
	}

	entries, err := os.ReadDir(lib.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not purged, %d entries left", len(entries))
	}
}

func TestSaveFilesCopy(t *testing.T) {
	lib, files := setupStream(t)
	if err := lib.SaveFiles(files[:1], false); err != nil {
		t.Fatalf("SaveFiles() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(lib.Dir, "The.Expanse.S03", "e01.mkv")); err != nil {
		t.Errorf("copied file missing: %v", err)
	}
}

func TestSaveFilesRejectsOutsideTemp(t *testing.T) {
	lib, _ := setupStream(t)
	outside := filepath.Join(t.TempDir(), "elsewhere.mkv")
	os.WriteFile(outside, []byte("x"), 0600)

	if err := lib.SaveFiles([]string{outside}, true); err == nil {
		t.Error("expected error for a file outside the temp dir")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("file outside the temp dir must not be touched")
	}
}

func TestPurgeTemp(t *testing.T) {
	lib, _ := setupStream(t)

	if err := lib.PurgeTemp(); err != nil {
		t.Fatalf("PurgeTemp() error: %v", err)
	}
	if _, err := os.Stat(lib.TempDir); err != nil {
		t.Errorf("temp dir itself should remain: %v", err)
	}
	entries, _ := os.ReadDir(lib.TempDir)
	if len(entries) != 0 {
		t.Errorf("expected empty temp dir, got %d entries", len(entries))
	}

	missing := &Library{TempDir: filepath.Join(t.TempDir(), "nope")}
	if err := missing.PurgeTemp(); err != nil {
		t.Errorf("PurgeTemp() on a missing dir: %v", err)
	}
}
