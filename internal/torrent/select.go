package torrent

import (
	"fmt"

	"lostfilm/internal/media"
	"lostfilm/internal/units"
)

// Chooser asks the user to pick one of options and returns its index, or a
// negative index when the user cancels.
type Chooser func(prompt string, options []string) (int, error)

// OrderLinks returns one candidate per quality tier, in tier order, with nil
// where the tier is missing. The first link of a tier wins.
func OrderLinks(links []media.TorrentLink) []*media.TorrentLink {
	qualities := media.Qualities()
	ordered := make([]*media.TorrentLink, len(qualities))
	for i, q := range qualities {
		for j := range links {
			if links[j].Quality == q {
				ordered[i] = &links[j]
				break
			}
		}
	}
	return ordered
}

// AvailableLinks returns the non-nil candidates of OrderLinks.
func AvailableLinks(links []media.TorrentLink) []*media.TorrentLink {
	var out []*media.TorrentLink
	for _, l := range OrderLinks(links) {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

// LinkLabel formats a link for interactive choice.
func LinkLabel(l *media.TorrentLink) string {
	return fmt.Sprintf("%s / %s", l.Quality.Label(), units.HumanSize(l.Size))
}

// SelectLink picks the link to retrieve. With a valid preferred tier that is
// present and force unset it returns that link without asking. Otherwise the
// available tiers are offered to choose in quality order. A nil link with a
// nil error means there was nothing to offer or the user cancelled.
func SelectLink(links []media.TorrentLink, preferred media.Quality, force bool, choose Chooser) (*media.TorrentLink, error) {
	ordered := OrderLinks(links)
	if preferred.Valid() && !force {
		if l := ordered[int(preferred)-1]; l != nil {
			return l, nil
		}
	}

	available := AvailableLinks(links)
	if len(available) == 0 {
		return nil, nil
	}

	options := make([]string, len(available))
	for i, l := range available {
		options[i] = LinkLabel(l)
	}

	idx, err := choose("Select quality", options)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, nil
	}
	if idx >= len(available) {
		return nil, fmt.Errorf("selection %d out of range", idx)
	}
	return available[idx], nil
}
