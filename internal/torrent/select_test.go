package torrent

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"lostfilm/internal/media"
)

var testLinks = []media.TorrentLink{
	{Quality: media.QualityFullHD, Size: 2 << 30, URL: "http://t/1080"},
	{Quality: media.QualitySD, Size: 500 << 20, URL: "http://t/sd"},
	{Quality: media.QualityHD, Size: 1 << 30, URL: "http://t/720"},
	{Quality: media.QualityHD, Size: 3 << 30, URL: "http://t/720-dup"},
}

type recordingChooser struct {
	answer  int
	err     error
	calls   int
	options []string
}

func (r *recordingChooser) choose(prompt string, options []string) (int, error) {
	r.calls++
	r.options = options
	return r.answer, r.err
}

func TestOrderLinks(t *testing.T) {
	ordered := OrderLinks(testLinks)
	if len(ordered) != 3 {
		t.Fatalf("expected one slot per tier, got %d", len(ordered))
	}
	want := []string{"http://t/sd", "http://t/720", "http://t/1080"}
	for i, l := range ordered {
		if l == nil || l.URL != want[i] {
			t.Errorf("ordered[%d] = %+v, want %s", i, l, want[i])
		}
	}

	sparse := OrderLinks(testLinks[:1])
	if sparse[0] != nil || sparse[1] != nil || sparse[2] == nil {
		t.Errorf("missing tiers should be nil, got %+v", sparse)
	}
}

func TestSelectLinkFixedQuality(t *testing.T) {
	c := &recordingChooser{answer: 0}

	got, err := SelectLink(testLinks, media.QualityHD, false, c.choose)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.URL != "http://t/720" {
		t.Errorf("SelectLink() = %+v, want the 720p link", got)
	}
	if c.calls != 0 {
		t.Error("chooser should not be called for a present fixed quality")
	}
}

func TestSelectLinkForced(t *testing.T) {
	c := &recordingChooser{answer: 2}

	got, err := SelectLink(testLinks, media.QualityHD, true, c.choose)
	if err != nil {
		t.Fatal(err)
	}
	if c.calls != 1 {
		t.Fatalf("chooser called %d times, want 1", c.calls)
	}
	wantOptions := []string{"SD / 500 MiB", "720p / 1.0 GiB", "1080p / 2.0 GiB"}
	if diff := cmp.Diff(wantOptions, c.options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	if got == nil || got.Quality != media.QualityFullHD {
		t.Errorf("SelectLink() = %+v, want the chosen 1080p link", got)
	}
}

func TestSelectLinkAsksWhenPreferredMissing(t *testing.T) {
	c := &recordingChooser{answer: 0}
	links := []media.TorrentLink{{Quality: media.QualitySD, URL: "http://t/sd"}}

	got, err := SelectLink(links, media.QualityFullHD, false, c.choose)
	if err != nil {
		t.Fatal(err)
	}
	if c.calls != 1 || got == nil || got.URL != "http://t/sd" {
		t.Errorf("expected interactive fallback to SD, got %+v after %d calls", got, c.calls)
	}
}

func TestSelectLinkAskMode(t *testing.T) {
	c := &recordingChooser{answer: 1}
	got, err := SelectLink(testLinks, 0, false, c.choose)
	if err != nil {
		t.Fatal(err)
	}
	if c.calls != 1 || got.Quality != media.QualityHD {
		t.Errorf("quality 0 should always ask, got %+v after %d calls", got, c.calls)
	}
}

func TestSelectLinkCancelled(t *testing.T) {
	c := &recordingChooser{answer: -1}
	got, err := SelectLink(testLinks, 0, true, c.choose)
	if err != nil || got != nil {
		t.Errorf("cancel should yield nil, nil; got %+v, %v", got, err)
	}
}

func TestSelectLinkNoLinks(t *testing.T) {
	c := &recordingChooser{}
	got, err := SelectLink(nil, media.QualityHD, false, c.choose)
	if err != nil || got != nil || c.calls != 0 {
		t.Errorf("no links should yield nil without asking; got %+v, %v, %d calls", got, err, c.calls)
	}
}

func TestSelectLinkChooserError(t *testing.T) {
	boom := errors.New("no tty")
	c := &recordingChooser{err: boom}
	if _, err := SelectLink(testLinks, 0, false, c.choose); !errors.Is(err, boom) {
		t.Errorf("expected chooser error, got %v", err)
	}

	c = &recordingChooser{answer: 7}
	if _, err := SelectLink(testLinks, 0, false, c.choose); err == nil {
		t.Error("expected out of range error")
	}
}
