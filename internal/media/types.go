// Package media defines shared types for the lostfilm application.
package media

import (
	"fmt"
	"strings"
	"time"
)

// CompleteSeasonCode is the episode code the site uses for a whole-season release.
const CompleteSeasonCode = "99"

// Series represents a TV series page on the tracker.
type Series struct {
	ID            int      // Site category ID (browse.php?cat=ID)
	Code          string   // Poster/image code used in static URLs
	Title         string   // Localized title
	OriginalTitle string   // Original (usually English) title
	Poster        string   // Poster URL
	Image         string   // Banner/fanart URL
	Icon          string   // Small icon URL
	Plot          string   // Short plot
	About         string   // Long description, used when Plot is empty
	Actors        []string // Cast
	Writers       []string
	Producers     []string
	Genres        []string
	Year          int
	EpisodesCount int
}

// Description prefers the short plot over the long description.
func (s *Series) Description() string {
	if s.Plot != "" {
		return s.Plot
	}
	return s.About
}

// Episode represents a single release in a series listing. A complete-season
// release has IsCompleteSeason set and an empty EpisodeNumber.
type Episode struct {
	SeriesID         int
	SeriesTitle      string
	SeasonNumber     int
	EpisodeNumber    string // e.g. "5" or "1-2"; empty for a complete season
	EpisodeTitle     string
	OriginalTitle    string
	ReleaseDate      time.Time
	Poster           string
	IsCompleteSeason bool
}

// NewEpisode builds an episode from the site's season/episode codes, folding the
// complete-season code into IsCompleteSeason.
func NewEpisode(seriesID, season int, episode string) Episode {
	e := Episode{SeriesID: seriesID, SeasonNumber: season}
	episode = strings.TrimSpace(episode)
	if episode == CompleteSeasonCode || episode == "" {
		e.IsCompleteSeason = true
	} else {
		e.EpisodeNumber = episode
	}
	return e
}

// Code returns the site episode code used in torrent link requests.
func (e Episode) Code() string {
	if e.IsCompleteSeason {
		return CompleteSeasonCode
	}
	return e.EpisodeNumber
}

// Label returns the "SS.EE" prefix for regular episodes and "Season N" otherwise.
func (e Episode) Label() string {
	if e.IsCompleteSeason {
		return fmt.Sprintf("Season %d", e.SeasonNumber)
	}
	return fmt.Sprintf("%02d.%s", e.SeasonNumber, e.EpisodeNumber)
}

// TorrentLink is one quality variant of a release.
type TorrentLink struct {
	Quality  Quality
	Size     int64 // Bytes
	Duration int   // Seconds, 0 when the page does not say
	URL      string
}

// TorrentFile is a file entry inside a torrent.
type TorrentFile struct {
	Index  int
	Path   string
	Length int64
}

func (f TorrentFile) String() string {
	return f.Path
}

// HistoryEntry represents a single played release in the watch history.
type HistoryEntry struct {
	SeriesID  int
	Title     string
	Season    int
	Episode   string // Empty for a complete season
	Position  float64
	Duration  float64
	WatchedAt time.Time
}
