package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lostfilm/internal/media"
	"lostfilm/internal/ui"
)

var seriesCmd = &cobra.Command{
	Use:   "series [id...]",
	Short: "Show series details, or browse the catalogue when no id is given",
	RunE:  seriesRun,
}

var episodesCmd = &cobra.Command{
	Use:   "episodes <series-id>",
	Short: "Browse the episodes of a series",
	Args:  cobra.ExactArgs(1),
	RunE:  episodesRun,
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Browse the latest releases",
	Args:  cobra.NoArgs,
	RunE:  newRun,
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid series id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seriesRun(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if len(ids) == 0 {
			return browseCatalogue(ctx, a)
		}

		found := a.site.SeriesBulk(ctx, ids)
		var ordered []*media.Series
		for _, id := range ids {
			if s, ok := found[id]; ok {
				ordered = append(ordered, s)
			} else {
				fmt.Fprintf(os.Stderr, "series %d: not available\n", id)
			}
		}

		if flagJSON {
			return printJSON(ordered)
		}
		for _, s := range ordered {
			printSeries(s)
		}
		return nil
	})
}

func printSeries(s *media.Series) {
	fmt.Printf("%s [%d]\n", ui.SeriesLabel(s, cfg.ShowOriginalTitle), s.ID)
	if s.Year > 0 {
		fmt.Printf("  Year:     %d\n", s.Year)
	}
	if len(s.Genres) > 0 {
		fmt.Printf("  Genres:   %s\n", strings.Join(s.Genres, ", "))
	}
	if s.EpisodesCount > 0 {
		fmt.Printf("  Episodes: %d\n", s.EpisodesCount)
	}
	if d := s.Description(); d != "" {
		fmt.Printf("  %s\n", d)
	}
}

func browseCatalogue(ctx context.Context, a *app) error {
	refs, err := a.site.SeriesList(ctx)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		fmt.Println("No series found.")
		return nil
	}

	items := make([]string, len(refs))
	for i, r := range refs {
		items[i] = ui.SeriesLabel(&media.Series{Title: r.Title, OriginalTitle: r.OriginalTitle}, cfg.ShowOriginalTitle)
	}
	idx, err := ui.Select("Series", items)
	if err != nil {
		return err
	}
	return browseEpisodes(ctx, a, refs[idx].ID)
}

func episodesRun(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		return browseEpisodes(ctx, a, ids[0])
	})
}

func browseEpisodes(ctx context.Context, a *app, seriesID int) error {
	episodes, err := a.site.SeriesEpisodes(ctx, seriesID)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(episodes)
	}
	return selectAndPlay(ctx, a, "Episode", episodes)
}

// newRun walks batch_episodes_count pages of the latest releases.
func newRun(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		var episodes []media.Episode
		for page := 1; page <= cfg.BatchEpisodesCount; page++ {
			batch, err := a.site.NewEpisodes(ctx, page)
			if err != nil {
				if len(episodes) > 0 {
					debugf("stopping at page %d: %v", page, err)
					break
				}
				return err
			}
			if len(batch) == 0 {
				break
			}
			episodes = append(episodes, batch...)
		}

		if flagJSON {
			return printJSON(withSeries(ctx, a, episodes))
		}
		return selectAndPlay(ctx, a, "New", episodes)
	})
}

type episodeWithSeries struct {
	media.Episode
	Series *media.Series `json:",omitempty"`
}

// withSeries attaches series metadata to every episode, fetched in bulk.
func withSeries(ctx context.Context, a *app, episodes []media.Episode) []episodeWithSeries {
	seen := make(map[int]bool)
	var ids []int
	for _, e := range episodes {
		if !seen[e.SeriesID] {
			seen[e.SeriesID] = true
			ids = append(ids, e.SeriesID)
		}
	}
	series := a.site.SeriesBulk(ctx, ids)

	out := make([]episodeWithSeries, len(episodes))
	for i, e := range episodes {
		out[i] = episodeWithSeries{Episode: e, Series: series[e.SeriesID]}
	}
	return out
}

func selectAndPlay(ctx context.Context, a *app, prompt string, episodes []media.Episode) error {
	if len(episodes) == 0 {
		fmt.Println("No episodes found.")
		return nil
	}

	items := make([]string, len(episodes))
	for i, e := range episodes {
		items[i] = ui.EpisodeLabel(e, cfg.ShowOriginalTitle)
	}
	idx, err := ui.Select(prompt, items)
	if err != nil {
		return err
	}
	return playEpisode(ctx, a, episodes[idx])
}
