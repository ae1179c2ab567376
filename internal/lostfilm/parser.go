package lostfilm

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lostfilm/internal/httputil"
	"lostfilm/internal/media"
	"lostfilm/internal/units"
)

// SeriesRef is an entry of the series catalogue.
type SeriesRef struct {
	ID            int
	Title         string
	OriginalTitle string
}

var (
	catPattern      = regexp.MustCompile(`cat=(\d+)`)
	datePattern     = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})`)
	yearPattern     = regexp.MustCompile(`\b(\d{4})\b`)
	sizePattern     = regexp.MustCompile(`Размер:\s*([\d.,]+\s*\pL{2})`)
	durationPattern = regexp.MustCompile(`Длительность:\s*([\d:]+)`)
)

// parseSeries extracts series metadata from a browse.php?cat=ID page.
// It returns nil when the page carries no series block.
func parseSeries(doc *goquery.Document, id int, base string) *media.Series {
	block := doc.Find(".series-block").First()
	if block.Length() == 0 {
		return nil
	}

	s := &media.Series{
		ID:            id,
		Code:          block.AttrOr("data-code", ""),
		Title:         cleanText(block.Find(".title-ru").First().Text()),
		OriginalTitle: cleanText(block.Find(".title-en").First().Text()),
		Plot:          cleanText(block.Find(".plot").First().Text()),
		About:         cleanText(block.Find(".about").First().Text()),
	}
	if s.Title == "" {
		return nil
	}

	if src, ok := block.Find("img.main_poster").Attr("src"); ok {
		s.Poster = httputil.ResolveURL(base, src)
	}
	images := block.Find(".image-block")
	if img := images.AttrOr("data-image", ""); img != "" {
		s.Image = httputil.ResolveURL(base, img)
	}
	if icon := images.AttrOr("data-icon", ""); icon != "" {
		s.Icon = httputil.ResolveURL(base, icon)
	}

	block.Find(".details-pane .info-row").Each(func(_ int, row *goquery.Selection) {
		label := strings.TrimSuffix(cleanText(row.Find(".label").Text()), ":")
		value := row.Find(".value")

		switch strings.ToLower(label) {
		case "год выхода", "премьера":
			if m := yearPattern.FindStringSubmatch(value.Text()); m != nil {
				s.Year, _ = strconv.Atoi(m[1])
			}
		case "жанр":
			s.Genres = listValues(value)
		case "актеры":
			s.Actors = listValues(value)
		case "сценаристы":
			s.Writers = listValues(value)
		case "продюсеры", "режиссеры":
			s.Producers = append(s.Producers, listValues(value)...)
		case "эпизодов":
			s.EpisodesCount, _ = strconv.Atoi(cleanText(value.Text()))
		}
	})

	return s
}

// parseEpisodes extracts the episode table of a series page. Rows carry a
// data-code of the form "<series>-<season>-<episode>".
func parseEpisodes(doc *goquery.Document, series *media.Series, base string) []media.Episode {
	var episodes []media.Episode

	doc.Find("table.movie-parts-list tr[data-code]").Each(func(_ int, row *goquery.Selection) {
		seriesID, season, episode, ok := parseCode(row.AttrOr("data-code", ""))
		if !ok {
			slog.Debug("skipping episode row with bad code", "code", row.AttrOr("data-code", ""))
			return
		}

		e := media.NewEpisode(seriesID, season, episode)
		e.SeriesTitle = series.Title
		e.Poster = series.Poster

		title := row.Find("td.gamma > div").First()
		e.OriginalTitle = cleanText(title.Find(".gray-color2").Text())
		title.Find(".gray-color2").Remove()
		e.EpisodeTitle = cleanText(title.Text())
		if e.EpisodeTitle == "" {
			e.EpisodeTitle = cleanText(row.Find("td.alpha").Text())
		}

		e.ReleaseDate = parseDate(row.Find("td.delta").Text())
		if src, ok := row.Find("img.thumb").Attr("src"); ok {
			e.Poster = httputil.ResolveURL(base, src)
		}
		episodes = append(episodes, e)
	})

	return episodes
}

// parseNewEpisodes extracts the rows of the latest releases listing.
func parseNewEpisodes(doc *goquery.Document, base string) []media.Episode {
	var episodes []media.Episode

	doc.Find(".new-movies .row[data-code]").Each(func(_ int, row *goquery.Selection) {
		seriesID, season, episode, ok := parseCode(row.AttrOr("data-code", ""))
		if !ok {
			return
		}

		e := media.NewEpisode(seriesID, season, episode)
		e.SeriesTitle = cleanText(row.Find(".name-ru").Text())
		e.EpisodeTitle = cleanText(row.Find(".episode-title").Text())
		e.OriginalTitle = cleanText(row.Find(".original-title").Text())
		e.ReleaseDate = parseDate(row.Find(".date").Text())
		if src, ok := row.Find("img.thumb").Attr("src"); ok {
			e.Poster = httputil.ResolveURL(base, src)
		}
		episodes = append(episodes, e)
	})

	return episodes
}

// parseSeriesList extracts the series catalogue.
func parseSeriesList(doc *goquery.Document) []SeriesRef {
	var refs []SeriesRef
	seen := make(map[int]bool)

	doc.Find(".serials-list .serial-box").Each(func(_ int, box *goquery.Selection) {
		href, _ := box.Find("a[href]").First().Attr("href")
		m := catPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || seen[id] {
			return
		}
		seen[id] = true

		refs = append(refs, SeriesRef{
			ID:            id,
			Title:         cleanText(box.Find(".title-ru").Text()),
			OriginalTitle: cleanText(box.Find(".title-en").Text()),
		})
	})

	return refs
}

// parseTorrentLinks extracts every quality variant from a nrdr.php page.
func parseTorrentLinks(doc *goquery.Document, base string) []media.TorrentLink {
	var links []media.TorrentLink

	doc.Find(".inner-box--item").Each(func(_ int, item *goquery.Selection) {
		label := cleanText(item.Find(".inner-box--label").Text())
		quality, err := media.ParseQuality(label)
		if err != nil {
			slog.Debug("skipping torrent link", "label", label, "err", err)
			return
		}

		href, ok := item.Find(".inner-box--link a[href]").First().Attr("href")
		if !ok {
			return
		}

		link := media.TorrentLink{
			Quality: quality,
			URL:     httputil.ResolveURL(base, href),
		}

		desc := item.Find(".inner-box--desc").Text()
		if m := sizePattern.FindStringSubmatch(desc); m != nil {
			if size, err := units.ParseSize(m[1]); err == nil {
				link.Size = size
			} else {
				slog.Debug("unparsable torrent size", "size", m[1], "err", err)
			}
		}
		if m := durationPattern.FindStringSubmatch(desc); m != nil {
			if d, err := units.ParseDuration(m[1]); err == nil {
				link.Duration = d
			}
		}

		links = append(links, link)
	})

	return links
}

// parseCode splits "<series>-<season>-<episode>". The episode part may itself
// contain a dash ("1-2").
func parseCode(code string) (series, season int, episode string, ok bool) {
	parts := strings.SplitN(code, "-", 3)
	if len(parts) != 3 {
		return 0, 0, "", false
	}
	var err error
	if series, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, "", false
	}
	if season, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, "", false
	}
	return series, season, parts[2], true
}

func parseDate(text string) time.Time {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}
	}
	t, err := time.Parse("02.01.2006", m[1])
	if err != nil {
		return time.Time{}
	}
	return t
}

// listValues returns the link texts of a value cell, or its comma separated
// text when it has no links.
func listValues(s *goquery.Selection) []string {
	var out []string
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		if v := cleanText(a.Text()); v != "" {
			out = append(out, v)
		}
	})
	if len(out) > 0 {
		return out
	}
	for _, v := range strings.Split(s.Text(), ",") {
		if v = cleanText(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// cleanText collapses whitespace, including non-breaking spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
