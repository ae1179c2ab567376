// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"lostfilm/internal/cache"
	"lostfilm/internal/config"
	"lostfilm/internal/history"
	"lostfilm/internal/logger"
	"lostfilm/internal/lostfilm"
	"lostfilm/internal/media"
	"lostfilm/internal/proxy"
	"lostfilm/internal/scraper"
	"lostfilm/internal/session"
	"lostfilm/internal/store"
	"lostfilm/internal/ui"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagQuality  string
	flagPlayer   string
	flagForce    bool
	flagContinue bool
	flagNoProxy  bool
	flagJSON     bool
	flagDebug    bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lostfilm",
	Short: "Browse LostFilm releases and stream their torrents from the terminal",
	Long: `lostfilm scrapes the LostFilm tracker for series, new episodes and torrent
links, and streams the selected release through webtorrent into mpv/vlc.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              newRun,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		printError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Torrent quality: ask | SD | 720 | 1080")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().BoolVarP(&flagForce, "force-quality", "f", false, "Always show the quality menu")
	rootCmd.PersistentFlags().BoolVarP(&flagContinue, "continue", "c", false, "Auto-resume from history")
	rootCmd.PersistentFlags().BoolVar(&flagNoProxy, "no-proxy", false, "Ignore use_proxy for this run")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(episodesCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(linksCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagQuality != "" {
		q, err := parseQualityFlag(flagQuality)
		if err != nil {
			return err
		}
		cfg.Quality = q
	}
	if flagNoProxy {
		cfg.UseProxy = false
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Debug)
	return nil
}

func parseQualityFlag(v string) (int, error) {
	if strings.EqualFold(v, "ask") || v == "0" {
		return 0, nil
	}
	q, err := media.ParseQuality(v)
	if err != nil {
		return 0, fmt.Errorf("invalid --quality: %w", err)
	}
	return int(q), nil
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...))
}

// printError reports err on stderr, with the stable code for scraper errors.
func printError(err error) {
	if errors.Is(err, ui.ErrCancelled) {
		return
	}
	var se *scraper.Error
	if errors.As(err, &se) {
		fmt.Fprintln(os.Stderr, ui.ErrorLabel(fmt.Sprintf("error [%d]:", se.Code)), err)
		return
	}
	fmt.Fprintln(os.Stderr, ui.ErrorLabel("error:"), err)
}

// app holds the collaborators a command needs, built from cfg.
type app struct {
	db      *sql.DB
	session *session.Session
	gateway *scraper.Gateway
	site    *lostfilm.Scraper
	cache   *cache.SeriesCache
	history *history.Store
	proxies *proxy.Pool
}

func newApp() (*app, error) {
	dbPath, err := config.DatabasePath()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	jarPath, err := config.CookieJarPath()
	if err != nil {
		db.Close()
		return nil, err
	}

	var pool *proxy.Pool
	if cfg.UseProxy {
		pool = proxy.NewPool(proxy.Options{
			Source:       proxy.NewHTTPSource(cfg.ProxyListURL, cfg.Timeout()),
			CheckURL:     cfg.ProxyCheckURL,
			CheckTimeout: cfg.Timeout(),
		})
	}

	sess, err := session.New(session.Options{
		JarPath: jarPath,
		Timeout: cfg.Timeout(),
		Proxies: pool,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session: %w", err)
	}
	debugf("proxy mode: %v", sess.ProxyEnabled())

	gw, err := scraper.NewGateway(sess, scraper.GatewayOptions{
		Timeout:            cfg.Timeout(),
		OnProxyListFailure: disableProxy,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	seriesCache := cache.New(cache.Options{TTL: cfg.SeriesCacheTTL(), DB: db})

	return &app{
		db:      db,
		session: sess,
		gateway: gw,
		cache:   seriesCache,
		history: history.New(db),
		proxies: pool,
		site: lostfilm.New(gw, lostfilm.Options{
			BaseURL:    cfg.BaseURL,
			Login:      cfg.Login,
			Password:   cfg.Password,
			MaxWorkers: cfg.BatchSeriesCount,
			Cache:      seriesCache,
			Cookies:    sess,
		}),
	}, nil
}

func (a *app) Close() error {
	if a.proxies != nil {
		if addr := a.proxies.Current(); addr != "" {
			debugf("last proxy in use: %s", addr)
		}
	}
	return a.db.Close()
}

// withApp runs fn with a freshly built app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

var disableProxyOnce sync.Once

// disableProxy is the settings write-back for an unloadable proxy list. It
// runs at most once per process however many fetches hit the failure.
func disableProxy(err error) {
	disableProxyOnce.Do(func() {
		slog.Warn("proxy list unavailable, disabling proxy mode", "err", err)
		if err := config.DisableProxy(); err != nil {
			slog.Warn("saving config", "err", err)
		}
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lostfilm %s\n", Version)
	},
}
