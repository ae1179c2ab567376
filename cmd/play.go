package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"lostfilm/internal/config"
	"lostfilm/internal/download"
	"lostfilm/internal/media"
	"lostfilm/internal/player"
	"lostfilm/internal/torrent"
	"lostfilm/internal/ui"
	"lostfilm/internal/units"
)

var flagOutput string

var linksCmd = &cobra.Command{
	Use:   "links <series-id> <season> [episode]",
	Short: "List the torrent links of a release",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  linksRun,
}

var playCmd = &cobra.Command{
	Use:   "play <series-id> <season> [episode]",
	Short: "Stream a release; omit the episode for the complete season",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  playRun,
}

var downloadCmd = &cobra.Command{
	Use:   "download <series-id> <season> [episode]",
	Short: "Save the .torrent file of a release",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  downloadRun,
}

func init() {
	downloadCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Directory for the .torrent file (default: data dir)")
}

// parseEpisodeArgs reads "<series-id> <season> [episode]".
func parseEpisodeArgs(args []string) (media.Episode, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return media.Episode{}, fmt.Errorf("invalid series id %q", args[0])
	}
	season, err := strconv.Atoi(args[1])
	if err != nil || season < 0 {
		return media.Episode{}, fmt.Errorf("invalid season %q", args[1])
	}
	episode := ""
	if len(args) > 2 {
		episode = args[2]
	}
	return media.NewEpisode(id, season, episode), nil
}

// resolveEpisode fills the series title of ep from the (cached) series page.
func resolveEpisode(ctx context.Context, a *app, ep media.Episode) media.Episode {
	if ep.SeriesTitle != "" {
		return ep
	}
	s, err := a.site.Series(ctx, ep.SeriesID)
	if err != nil {
		debugf("series %d lookup failed: %v", ep.SeriesID, err)
		ep.SeriesTitle = fmt.Sprintf("Series %d", ep.SeriesID)
		return ep
	}
	ep.SeriesTitle = s.Title
	return ep
}

func linksRun(cmd *cobra.Command, args []string) error {
	ep, err := parseEpisodeArgs(args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		links, err := a.site.TorrentLinks(ctx, ep.SeriesID, ep.SeasonNumber, ep.Code())
		if err != nil {
			return err
		}
		available := torrent.AvailableLinks(links)

		if flagJSON {
			return printJSON(available)
		}

		if len(available) == 0 {
			fmt.Println("No torrent links found.")
			return nil
		}
		for _, l := range available {
			fmt.Printf("%s\t%s\n", torrent.LinkLabel(l), l.URL)
		}
		return nil
	})
}

// selectTorrent applies the quality policy and downloads the chosen torrent.
// A nil torrent with a nil error means the user cancelled.
func selectTorrent(ctx context.Context, a *app, ep media.Episode) (*torrent.Torrent, error) {
	links, err := a.site.TorrentLinks(ctx, ep.SeriesID, ep.SeasonNumber, ep.Code())
	if err != nil {
		return nil, err
	}
	if len(torrent.AvailableLinks(links)) == 0 {
		return nil, fmt.Errorf("no torrent links for %s", ep.Label())
	}

	link, err := torrent.SelectLink(links, media.Quality(cfg.Quality), flagForce, ui.Choose)
	if err != nil || link == nil {
		return nil, err
	}
	debugf("selected %s link: %s", link.Quality, link.URL)

	return torrent.Fetch(ctx, a.gateway, link.URL)
}

func downloadRun(cmd *cobra.Command, args []string) error {
	ep, err := parseEpisodeArgs(args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		t, err := selectTorrent(ctx, a, ep)
		if err != nil || t == nil {
			return err
		}

		dir := flagOutput
		if dir == "" {
			if dir, err = config.TorrentsDir(); err != nil {
				return err
			}
		}
		path, err := t.DownloadLocally(dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved: %s (%d files, %s)\n", path, len(t.Files()), units.HumanSize(t.Size()))
		return nil
	})
}

func playRun(cmd *cobra.Command, args []string) error {
	ep, err := parseEpisodeArgs(args)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		return playEpisode(ctx, a, ep)
	})
}

// playEpisode runs the full links -> quality -> torrent -> stream flow and
// records the result in the watch history.
func playEpisode(ctx context.Context, a *app, ep media.Episode) error {
	ep = resolveEpisode(ctx, a, ep)

	p, err := player.New(cfg.Player)
	if err != nil {
		return err
	}
	if !p.Available() {
		return fmt.Errorf("player %q not found in PATH", p.Name())
	}

	tempDir, err := config.TempDir()
	if err != nil {
		return err
	}
	streamer := &torrent.WebtorrentStreamer{TempDir: tempDir}
	if !streamer.Available() {
		return fmt.Errorf("webtorrent not found in PATH")
	}

	t, err := selectTorrent(ctx, a, ep)
	if err != nil || t == nil {
		return err
	}

	torrentsDir, err := config.TorrentsDir()
	if err != nil {
		return err
	}
	if _, err := t.DownloadLocally(torrentsDir); err != nil {
		return err
	}

	opts := torrent.PlayOptions{Title: fmt.Sprintf("%s %s", ep.SeriesTitle, ep.Label())}

	// A complete season holds many files; the stream needs one of them.
	if ep.IsCompleteSeason && len(t.Files()) > 1 {
		files := t.Files()
		items := make([]string, len(files))
		for i, f := range files {
			items[i] = ui.FileLabel(f)
		}
		prompt := fmt.Sprintf("Select file (%d files, %s)", len(files), units.HumanSize(t.Size()))
		idx, err := ui.Select(prompt, items)
		if err != nil {
			return err
		}
		opts.FileID = &files[idx].Index
		opts.Title = fmt.Sprintf("%s %s", ep.SeriesTitle, files[idx].Path)
	}

	if flagContinue && cfg.History {
		entry, err := a.history.Find(ctx, ep.SeriesID, ep.SeasonNumber, ep.EpisodeNumber)
		if err != nil {
			debugf("history lookup failed: %v", err)
		} else if entry != nil {
			opts.StartPos = entry.Position
			debugf("resuming from position: %.0fs", opts.StartPos)
		}
	}

	downloadDir, err := cfg.ExpandDownloadDir()
	if err != nil {
		return fmt.Errorf("resolving download dir: %w", err)
	}
	lib := &download.Library{Dir: downloadDir, TempDir: tempDir}

	pb, err := torrent.Play(ctx, streamer, p, t, opts, lib)
	if err != nil {
		return err
	}

	if cfg.History {
		entry := media.HistoryEntry{
			SeriesID: ep.SeriesID,
			Title:    ep.SeriesTitle,
			Season:   ep.SeasonNumber,
			Episode:  ep.EpisodeNumber,
			Position: pb.Position,
			Duration: pb.Duration,
		}
		if err := a.history.Save(ctx, entry); err != nil {
			debugf("saving history failed: %v", err)
		}
	}
	return nil
}
