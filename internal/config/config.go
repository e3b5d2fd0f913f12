// Load envs from .env
// Load YAML config
// Apply env overrides and defaults
// Validate config

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a configuration that cannot be used for a run.
var ErrInvalid = errors.New("invalid configuration")

const DefaultPath = "configs/config.yaml"

type Config struct {
	LogMode     string `yaml:"log_mode" env:"LOG_MODE"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`

	//File store used when no database is configured
	StorePath string `yaml:"store_path"`

	//Paths
	CookiesPath   string `yaml:"cookies_path"`
	ScreenshotDir string `yaml:"screenshot_dir"`

	Telegram   TelegramConfig   `yaml:"telegram"`
	Browser    BrowserConfig    `yaml:"browser"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Indexing   IndexingConfig   `yaml:"indexing"`
	IndexNow   IndexNowConfig   `yaml:"indexnow"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Bing       BingConfig       `yaml:"bing"`
	Server     ServerConfig     `yaml:"server"`

	Employers []Employer `yaml:"employers"`
}

type TelegramConfig struct {
	Token  string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

type BrowserConfig struct {
	Headless          bool          `yaml:"headless"`
	SlowMo            float64       `yaml:"slow_mo"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `yaml:"action_timeout"`
}

type ScraperConfig struct {
	InterEmployerDelay  time.Duration `yaml:"inter_employer_delay"`
	MaxIterations       int           `yaml:"max_iterations"`
	MaxStableIterations int           `yaml:"max_stable_iterations"`
	MaxScrollAttempts   int           `yaml:"max_scroll_attempts"`

	//0 means no limit
	MaxPages int `yaml:"max_pages"`

	//random pause after each navigation
	SettleMin time.Duration `yaml:"settle_min"`
	SettleMax time.Duration `yaml:"settle_max"`
}

type IndexingConfig struct {
	CredentialsFile string        `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	PublicBaseURL   string        `yaml:"public_base_url"`
	DailyQuota      int           `yaml:"daily_quota"`
	BatchSize       int           `yaml:"batch_size"`
	RequestDelay    time.Duration `yaml:"request_delay"`
	BatchPause      time.Duration `yaml:"batch_pause"`
	Schedule        string        `yaml:"schedule"`
}

type IndexNowConfig struct {
	Key         string        `yaml:"key" env:"INDEXNOW_KEY"`
	KeyLocation string        `yaml:"key_location"`
	Host        string        `yaml:"host"`
	Endpoint    string        `yaml:"endpoint"`
	QueueKey    string        `yaml:"queue_key"`
	MinInterval time.Duration `yaml:"min_interval"`
	MaxAttempts int           `yaml:"max_attempts"`
	BackOff     time.Duration `yaml:"back_off"`
}

type ClassifierConfig struct {
	APIKey    string `yaml:"api_key" env:"GROQ_API_KEY"`
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

type BingConfig struct {
	APIKey   string `yaml:"api_key" env:"BING_API_KEY"`
	SiteURL  string `yaml:"site_url"`
	Endpoint string `yaml:"endpoint"`
	Schedule string `yaml:"schedule"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Employer is one career site to scrape.
type Employer struct {
	Name          string    `yaml:"name"`
	Slug          string    `yaml:"slug"`
	ATS           string    `yaml:"ats"`
	BaseURL       string    `yaml:"base_url"`
	SearchURL     string    `yaml:"search_url"`
	CareerPageURL string    `yaml:"career_page_url"`
	Formatter     string    `yaml:"formatter"`
	MaxPages      int       `yaml:"max_pages"`
	Selectors     Selectors `yaml:"selectors"`
}

// Load reads .env, the YAML file at CONFIG_PATH (or DefaultPath) and the
// environment, in that order of increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

// LoadFile is Load without the .env step. A missing file is not an error;
// the defaults and environment still apply.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.LogMode, "LOG_MODE")
	override(&c.DatabaseURL, "DATABASE_URL")
	override(&c.RedisURL, "REDIS_URL")
	override(&c.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	override(&c.Classifier.APIKey, "GROQ_API_KEY")
	override(&c.Indexing.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	override(&c.IndexNow.Key, "INDEXNOW_KEY")
	override(&c.Bing.APIKey, "BING_API_KEY")

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TELEGRAM_CHAT_ID: %v", ErrInvalid, err)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

func (c *Config) applyDefaults() {
	setString(&c.LogMode, "dev")
	setString(&c.RedisURL, "redis://localhost:6379/0")
	setString(&c.StorePath, ".cache/jobs.json")
	setString(&c.CookiesPath, ".cookies")
	setString(&c.ScreenshotDir, "screenshots")

	setDuration(&c.Browser.NavigationTimeout, 45*time.Second)
	setDuration(&c.Browser.ActionTimeout, 10*time.Second)

	setDuration(&c.Scraper.InterEmployerDelay, 30*time.Second)
	setInt(&c.Scraper.MaxIterations, 200)
	setInt(&c.Scraper.MaxStableIterations, 3)
	setInt(&c.Scraper.MaxScrollAttempts, 3)
	setDuration(&c.Scraper.SettleMin, time.Second)
	setDuration(&c.Scraper.SettleMax, 3*time.Second)

	setInt(&c.Indexing.DailyQuota, 195)
	setInt(&c.Indexing.BatchSize, 10)
	setDuration(&c.Indexing.RequestDelay, 2*time.Second)
	setDuration(&c.Indexing.BatchPause, 30*time.Second)
	setString(&c.Indexing.Schedule, "0 6 * * *")

	setString(&c.IndexNow.Endpoint, "https://api.indexnow.org/indexnow")
	setString(&c.IndexNow.QueueKey, "indexnow:queue")
	setDuration(&c.IndexNow.MinInterval, 6*time.Second)
	setInt(&c.IndexNow.MaxAttempts, 3)
	setDuration(&c.IndexNow.BackOff, 60*time.Second)

	setString(&c.Classifier.Endpoint, "https://api.groq.com/openai/v1/chat/completions")
	setString(&c.Classifier.Model, "llama-3.3-70b-versatile")
	setInt(&c.Classifier.BatchSize, 20)

	setString(&c.Bing.Endpoint, "https://ssl.bing.com/webmaster/api.svc/json")
	setString(&c.Bing.Schedule, "30 7 * * *")

	setString(&c.Server.Addr, ":8080")

	for i := range c.Employers {
		e := &c.Employers[i]
		setString(&e.ATS, "workday")
		setString(&e.CareerPageURL, e.BaseURL)
	}
}

// Validate checks the settings every run needs. It does not require optional
// integrations such as Telegram.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Employers) == 0 {
		errs = append(errs, fmt.Errorf("%w: no employers configured", ErrInvalid))
	}
	seen := make(map[string]bool, len(c.Employers))
	for i, e := range c.Employers {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("employers[%d]: %w", i, err))
		}
		if seen[e.Slug] {
			errs = append(errs, fmt.Errorf("%w: duplicate employer slug %q", ErrInvalid, e.Slug))
		}
		seen[e.Slug] = true
	}
	if c.Indexing.DailyQuota > 200 {
		errs = append(errs, fmt.Errorf("%w: indexing.daily_quota %d exceeds the 200/day API limit", ErrInvalid, c.Indexing.DailyQuota))
	}
	return errors.Join(errs...)
}

// Validate reports missing required employer fields.
func (e Employer) Validate() error {
	var missing []string
	if e.Name == "" {
		missing = append(missing, "name")
	}
	if e.Slug == "" {
		missing = append(missing, "slug")
	}
	if e.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if e.SearchURL == "" {
		missing = append(missing, "search_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: employer %q missing %v", ErrInvalid, e.Slug, missing)
	}
	return nil
}

// Employer returns the employer with the given slug.
func (c *Config) Employer(slug string) (Employer, bool) {
	for _, e := range c.Employers {
		if e.Slug == slug {
			return e, true
		}
	}
	return Employer{}, false
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}
