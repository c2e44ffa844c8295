package command

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/amankumarsingh77/go-webtoon-crawler/config"
	"github.com/amankumarsingh77/go-webtoon-crawler/crawler"
	"github.com/amankumarsingh77/go-webtoon-crawler/db"
	"github.com/amankumarsingh77/go-webtoon-crawler/db/repository"
	"github.com/amankumarsingh77/go-webtoon-crawler/pkg/browser"
	"github.com/amankumarsingh77/go-webtoon-crawler/scraper/platform"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var crawlFlags struct {
	platform    string
	engine      string
	browserPath string
	headless    bool
	maxCards    int
	urls        []string
	outputDir   string
	output      string
	interval    time.Duration
	mongo       bool
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl every listing page of a platform and export the result",
	Example: `  webtoon crawl --platform naver
  webtoon crawl --platform kakao --max-cards 10 --output-dir out
  webtoon crawl --platform naver --engine static --url https://comic.naver.com/webtoon?tab=mon`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCrawlFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		_, err := RunCrawl(ctx, cfg, logger)
		return err
	},
}

func init() {
	f := crawlCmd.Flags()
	f.StringVarP(&crawlFlags.platform, "platform", "p", "", "platform to crawl (naver, kakao)")
	f.StringVar(&crawlFlags.engine, "engine", "", "browser engine (rod, playwright, static)")
	f.StringVar(&crawlFlags.browserPath, "browser-path", "", "path to the browser executable")
	f.BoolVar(&crawlFlags.headless, "headless", true, "run the browser without a window")
	f.IntVar(&crawlFlags.maxCards, "max-cards", crawler.DefaultMaxCards, "cards processed per listing page, 0 for all")
	f.StringSliceVar(&crawlFlags.urls, "url", nil, "listing URL to crawl, repeatable (default: all weekday tabs)")
	f.StringVarP(&crawlFlags.outputDir, "output-dir", "o", "", "directory for the exported JSON")
	f.StringVar(&crawlFlags.output, "output", "", "export file name without extension (default <platform>_webtoon_list)")
	f.DurationVar(&crawlFlags.interval, "interval", 0, "minimum time between two cards")
	f.BoolVar(&crawlFlags.mongo, "mongo", false, "also upsert the result into MongoDB (needs MONGO_URI)")

	rootCmd.AddCommand(crawlCmd)
}

// applyCrawlFlags overrides cfg with the flags that were set explicitly.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("platform") {
		cfg.Platform = crawlFlags.platform
	}
	if f.Changed("engine") {
		cfg.Engine = crawlFlags.engine
	}
	if f.Changed("browser-path") {
		cfg.ExecutablePath = crawlFlags.browserPath
	}
	if f.Changed("headless") {
		cfg.Headless = crawlFlags.headless
	}
	if f.Changed("max-cards") {
		cfg.MaxCards = crawlFlags.maxCards
	}
	if f.Changed("url") {
		cfg.URLs = crawlFlags.urls
	}
	if f.Changed("output-dir") {
		cfg.OutputDir = crawlFlags.outputDir
	}
	if f.Changed("output") {
		cfg.OutputName = crawlFlags.output
	}
	if f.Changed("interval") {
		cfg.ScrapeInterval = crawlFlags.interval
	}
	switch {
	case !crawlFlags.mongo:
		cfg.MongoURI = ""
	case cfg.MongoURI == "":
		logger.Warn("--mongo given but MONGO_URI is not set, skipping database upsert")
	}
}

// RunCrawl launches a browser session, crawls cfg.Platform and exports the
// collected webtoons. The export is written even when the crawl fails half way,
// so that records gathered before the failure are kept.
func RunCrawl(ctx context.Context, cfg *config.Config, logger *zap.Logger) (crawler.Stats, error) {
	session, err := browser.NewSession(ctx, cfg.BrowserOptions())
	if err != nil {
		logger.Error("failed to start browser", zap.String("engine", cfg.Engine), zap.Error(err))
		return crawler.Stats{}, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser session", zap.Error(err))
		}
	}()

	opts := cfg.ScraperOptions()
	opts.Logger = logger
	s, err := platform.New(cfg.Platform, session, opts)
	if err != nil {
		return crawler.Stats{}, err
	}

	repo := repository.NewJSONRepo(cfg.OutputDir, logger)

	copts := cfg.CrawlerOptions()
	copts.Logger = logger
	c := crawler.New(s, repo, copts)

	crawlErr := c.Run(ctx)
	if crawlErr != nil {
		logger.Error("crawl stopped", zap.Error(crawlErr), zap.Int("collected", repo.Len()))
	}

	exportErr := repo.Export(cfg.OutputFile())
	if exportErr != nil {
		logger.Error("failed to export webtoons", zap.Error(exportErr))
	}

	var mongoErr error
	if cfg.MongoURI != "" {
		mongoErr = upsertMongo(context.WithoutCancel(ctx), cfg, repo, logger)
	}

	if errors.Is(crawlErr, context.Canceled) {
		logger.Info("crawl interrupted", zap.Int("collected", repo.Len()))
		crawlErr = nil
	}
	return c.Stats(), errors.Join(crawlErr, exportErr, mongoErr)
}

func upsertMongo(ctx context.Context, cfg *config.Config, repo *repository.JSONRepo, logger *zap.Logger) error {
	client, err := db.NewMongoConn(ctx, cfg.MongoURI, cfg.DBName, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			logger.Warn("failed to disconnect from MongoDB", zap.Error(err))
		}
	}()

	mongoRepo := repository.NewMongoRepo(client.Database(cfg.DBName).Collection(db.WebtoonCollection))
	n, err := mongoRepo.UpsertWebtoons(ctx, repo.Webtoons())
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", cfg.DBName, err)
	}
	logger.Info("upserted webtoons into MongoDB", zap.Int("count", n))
	return nil
}
