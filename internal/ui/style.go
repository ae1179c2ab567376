package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"lostfilm/internal/media"
	"lostfilm/internal/units"
)

var (
	codeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// EpisodeLabel renders "SS.EE Series / Episode [/ Original]". Complete
// seasons carry no code prefix.
func EpisodeLabel(e media.Episode, showOriginal bool) string {
	label := ""
	if !e.IsCompleteSeason {
		label += codeStyle.Render(fmt.Sprintf("%02d.%s", e.SeasonNumber, e.EpisodeNumber)) + " "
	}
	label += titleStyle.Render(e.SeriesTitle) + " / " + e.EpisodeTitle
	if showOriginal && e.OriginalTitle != "" {
		label += " / " + e.OriginalTitle
	}
	return label
}

// SeriesLabel renders the series title with its original title when asked.
func SeriesLabel(s *media.Series, showOriginal bool) string {
	label := titleStyle.Render(s.Title)
	if showOriginal && s.OriginalTitle != "" {
		label += " " + mutedStyle.Render("("+s.OriginalTitle+")")
	}
	return label
}

// FileLabel renders a torrent file entry with its size.
func FileLabel(f media.TorrentFile) string {
	return f.Path + " " + mutedStyle.Render("["+units.HumanSize(f.Length)+"]")
}

// ErrorLabel renders an error line.
func ErrorLabel(s string) string {
	return errorStyle.Render(s)
}
