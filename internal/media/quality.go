package media

import (
	"fmt"
	"strings"
)

// Quality is a release resolution tier. Larger values are better.
type Quality int

const (
	QualitySD Quality = iota + 1
	QualityHD
	QualityFullHD
)

// Qualities returns every tier in ascending order.
func Qualities() []Quality {
	return []Quality{QualitySD, QualityHD, QualityFullHD}
}

// Valid reports whether q is a known tier.
func (q Quality) Valid() bool {
	return q >= QualitySD && q <= QualityFullHD
}

// Label returns the display name of the tier.
func (q Quality) Label() string {
	switch q {
	case QualitySD:
		return "SD"
	case QualityHD:
		return "720p"
	case QualityFullHD:
		return "1080p"
	default:
		return "unknown"
	}
}

func (q Quality) String() string {
	return q.Label()
}

// ParseQuality maps a quality label as printed by the site (or a config value)
// to a tier.
func ParseQuality(label string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "sd", "avi", "480", "480p":
		return QualitySD, nil
	case "hd", "mp4", "720", "720p", "hd 720":
		return QualityHD, nil
	case "1080", "1080p", "fullhd", "full hd", "hd 1080":
		return QualityFullHD, nil
	}
	return 0, fmt.Errorf("unknown quality %q", label)
}
