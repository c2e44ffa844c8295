package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amankumarsingh77/go-webtoon-crawler/crawler"
	"github.com/amankumarsingh77/go-webtoon-crawler/pkg/browser"
	"github.com/amankumarsingh77/go-webtoon-crawler/scraper"
	"github.com/amankumarsingh77/go-webtoon-crawler/scraper/platform"
	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Platform string   `env:"WEBTOON_PLATFORM" default:"kakao"`
	URLs     []string `env:"TARGET_URLS"`
	MaxCards int      `env:"MAX_CARDS" default:"40"`

	Engine         string        `env:"BROWSER_ENGINE" default:"rod"`
	ExecutablePath string        `env:"BROWSER_PATH"`
	Headless       bool          `env:"BROWSER_HEADLESS" default:"true"`
	UserAgent      string        `env:"USER_AGENT"`
	ActionTimeout  time.Duration `env:"ACTION_TIMEOUT" default:"10s"`

	PageLoadTimeout time.Duration `env:"PAGE_LOAD_TIMEOUT" default:"3s"`
	ElementTimeout  time.Duration `env:"ELEMENT_TIMEOUT" default:"1s"`
	SettleDelay     time.Duration `env:"SETTLE_DELAY" default:"500ms"`
	ScrapeInterval  time.Duration `env:"SCRAPE_INTERVAL" default:"0s"`

	OutputDir  string `env:"OUTPUT_DIR" default:"."`
	OutputName string `env:"OUTPUT_NAME"`

	MongoURI string `env:"MONGO_URI"`
	DBName   string `env:"DB_NAME" default:"webtoon"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"console"`

	Port string `env:"PORT" default:"8080"`
}

func DefaultConfig() *Config {
	b := browser.DefaultOptions()
	s := scraper.DefaultOptions()
	return &Config{
		Platform:        "kakao",
		MaxCards:        crawler.DefaultMaxCards,
		Engine:          b.Engine,
		Headless:        b.Headless,
		UserAgent:       b.UserAgent,
		ActionTimeout:   b.ActionTimeout,
		PageLoadTimeout: s.PageLoadTimeout,
		ElementTimeout:  s.ElementTimeout,
		SettleDelay:     s.SettleDelay,
		OutputDir:       ".",
		DBName:          "webtoon",
		LogLevel:        "info",
		LogFormat:       "console",
		Port:            "8080",
	}
}

// Load reads .env when present and overlays environment variables on DefaultConfig.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	loadString(&cfg.Platform, "WEBTOON_PLATFORM")
	loadList(&cfg.URLs, "TARGET_URLS")
	loadString(&cfg.Engine, "BROWSER_ENGINE")
	loadString(&cfg.ExecutablePath, "BROWSER_PATH")
	loadString(&cfg.UserAgent, "USER_AGENT")
	loadString(&cfg.OutputDir, "OUTPUT_DIR")
	loadString(&cfg.OutputName, "OUTPUT_NAME")
	loadString(&cfg.MongoURI, "MONGO_URI")
	loadString(&cfg.DBName, "DB_NAME")
	loadString(&cfg.LogLevel, "LOG_LEVEL")
	loadString(&cfg.LogFormat, "LOG_FORMAT")
	loadString(&cfg.Port, "PORT")

	if err := loadInt(&cfg.MaxCards, "MAX_CARDS"); err != nil {
		return nil, err
	}
	if err := loadBool(&cfg.Headless, "BROWSER_HEADLESS"); err != nil {
		return nil, err
	}
	for key, dst := range map[string]*time.Duration{
		"PAGE_LOAD_TIMEOUT": &cfg.PageLoadTimeout,
		"ELEMENT_TIMEOUT":   &cfg.ElementTimeout,
		"SETTLE_DELAY":      &cfg.SettleDelay,
		"SCRAPE_INTERVAL":   &cfg.ScrapeInterval,
		"ACTION_TIMEOUT":    &cfg.ActionTimeout,
	} {
		if err := loadDuration(dst, key); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if !platform.Known(c.Platform) {
		return fmt.Errorf("%w: unknown platform %q (known: %v)", ErrInvalidConfig, c.Platform, platform.Names())
	}
	switch c.Engine {
	case browser.EngineRod, browser.EnginePlaywright, browser.EngineStatic:
	default:
		return fmt.Errorf("%w: unknown browser engine %q", ErrInvalidConfig, c.Engine)
	}
	if c.MaxCards < 0 {
		return fmt.Errorf("%w: MAX_CARDS must not be negative", ErrInvalidConfig)
	}
	if c.PageLoadTimeout <= 0 || c.ElementTimeout <= 0 || c.ActionTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.SettleDelay < 0 || c.ScrapeInterval < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	}
	return nil
}

// OutputFile is the export name without extension, "<platform>_webtoon_list" unless overridden.
func (c *Config) OutputFile() string {
	if c.OutputName != "" {
		return c.OutputName
	}
	return c.Platform + "_webtoon_list"
}

func (c *Config) BrowserOptions() browser.Options {
	opts := browser.DefaultOptions()
	opts.Engine = c.Engine
	opts.ExecutablePath = c.ExecutablePath
	opts.Headless = c.Headless
	opts.ActionTimeout = c.ActionTimeout
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	return opts
}

func (c *Config) ScraperOptions() scraper.Options {
	return scraper.Options{
		URLs:            c.URLs,
		PageLoadTimeout: c.PageLoadTimeout,
		ElementTimeout:  c.ElementTimeout,
		SettleDelay:     c.SettleDelay,
	}
}

func (c *Config) CrawlerOptions() crawler.Options {
	return crawler.Options{
		MaxCards: c.MaxCards,
		Interval: c.ScrapeInterval,
	}
}

func loadString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func loadList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func loadInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
	}
	*dst = n
	return nil
}

func loadBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, v)
	}
	*dst = b
	return nil
}

func loadDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, key, v)
	}
	*dst = d
	return nil
}
