package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the monitor
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Server     ServerConfig     `mapstructure:"server"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Resolution ResolutionConfig `mapstructure:"resolution"`
	Report     ReportConfig     `mapstructure:"report"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and scheduler settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ScheduleCron string `mapstructure:"schedule_cron"`
}

// SourcesConfig contains the external collaborator endpoints
type SourcesConfig struct {
	CourtListener CourtListenerConfig `mapstructure:"courtlistener"`
	NewsFeed      NewsFeedConfig      `mapstructure:"news_feed"`
}

// CourtListenerConfig contains legal-records index settings
type CourtListenerConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	PageSize   int           `mapstructure:"page_size"`
}

func (c CourtListenerConfig) Normalize() CourtListenerConfig {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = "https://www.courtlistener.com"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 25 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	return c
}

// NewsFeedConfig contains RSS feed settings
type NewsFeedConfig struct {
	FeedURL      string        `mapstructure:"feed_url"`
	Queries      []string      `mapstructure:"queries"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FetchArticle bool          `mapstructure:"fetch_article"` // pull page text to sniff docket numbers
}

func (n NewsFeedConfig) Normalize() NewsFeedConfig {
	if strings.TrimSpace(n.FeedURL) == "" {
		n.FeedURL = "https://news.google.com/rss/search"
	}
	if n.Timeout <= 0 {
		n.Timeout = 15 * time.Second
	}
	return n
}

// ResolutionConfig tunes the case resolution engine
type ResolutionConfig struct {
	LookbackDays    int      `mapstructure:"lookback_days"`
	RetainRunnerUps bool     `mapstructure:"retain_runner_ups"`
	AmbiguityDelta  float64  `mapstructure:"ambiguity_delta"`
	SnippetMaxChars int      `mapstructure:"snippet_max_chars"`
	SnippetPages    int      `mapstructure:"snippet_pages"`
	SnippetMaxBytes int64    `mapstructure:"snippet_max_bytes"`
	Queries         []string `mapstructure:"queries"`
}

// Normalize clamps resolution settings into their valid ranges.
func (r ResolutionConfig) Normalize() ResolutionConfig {
	if r.LookbackDays <= 0 {
		r.LookbackDays = 3
	}
	if r.AmbiguityDelta <= 0 || r.AmbiguityDelta >= 1 {
		r.AmbiguityDelta = 0.1
	}
	if r.SnippetMaxChars <= 0 {
		r.SnippetMaxChars = 1000
	}
	if r.SnippetPages <= 0 {
		r.SnippetPages = 3
	}
	if r.SnippetMaxBytes <= 0 {
		r.SnippetMaxBytes = 20 << 20
	}
	return r
}

func (r ResolutionConfig) Validate() error {
	if r.LookbackDays < 0 {
		return fmt.Errorf("resolution.lookback_days cannot be negative")
	}
	if r.SnippetMaxChars < 0 {
		return fmt.Errorf("resolution.snippet_max_chars cannot be negative")
	}
	return nil
}

// ReportConfig controls report identity and outbound publishing
type ReportConfig struct {
	TimeZone      string `mapstructure:"time_zone"`
	TitleBase     string `mapstructure:"title_base"`
	IssueLabel    string `mapstructure:"issue_label"`
	GitHubOwner   string `mapstructure:"github_owner"`
	GitHubRepo    string `mapstructure:"github_repo"`
	GitHubToken   string `mapstructure:"github_token"`
	SlackWebhook  string `mapstructure:"slack_webhook"`
	ShowRunnerUps bool   `mapstructure:"show_runner_ups"`
	MaxTableRows  int    `mapstructure:"max_table_rows"`
}

func (r ReportConfig) Normalize() ReportConfig {
	if strings.TrimSpace(r.TimeZone) == "" {
		r.TimeZone = "Asia/Seoul"
	}
	if strings.TrimSpace(r.TitleBase) == "" {
		r.TitleBase = "AI training-data lawsuit monitor"
	}
	if strings.TrimSpace(r.IssueLabel) == "" {
		r.IssueLabel = "ai-lawsuit-monitor"
	}
	if r.MaxTableRows <= 0 {
		r.MaxTableRows = 25
	}
	return r
}

func (r ReportConfig) Validate() error {
	if _, err := time.LoadLocation(r.TimeZone); err != nil {
		return fmt.Errorf("report.time_zone: %w", err)
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if r.Host != "" && r.Port == "" {
		return fmt.Errorf("storage.redis.port is required when host is set")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if p.Host != "" && p.DBName == "" {
		return fmt.Errorf("storage.postgres.dbname is required when host is set")
	}
	return nil
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPort int    `mapstructure:"metrics_port"`
	LogFile     string `mapstructure:"log_file"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// LoadConfig reads configuration from file and environment.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name
	viper.SetDefault("general.default_timeout", "30s")
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("server.schedule_cron", "0 * * * *")
	viper.SetDefault("resolution.lookback_days", 3)
	viper.SetDefault("resolution.retain_runner_ups", true)
	viper.SetDefault("sources.courtlistener.max_retries", 2)

	if path == "" {
		viper.AddConfigPath("./config") // path to look for the config file in
		viper.AddConfigPath(".")        // optionally look for config in the working directory
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)                                // bin/
		viper.AddConfigPath(filepath.Join(exeDir, ".."))           // repo root
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("DOCKETWATCH")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (DOCKETWATCH_*)

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	// unmarshal config
	var config Config

	if err = viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Resolution = config.Resolution.Normalize()
	config.Report = config.Report.Normalize()
	config.Sources.CourtListener = config.Sources.CourtListener.Normalize()
	config.Sources.NewsFeed = config.Sources.NewsFeed.Normalize()

	if err := config.Resolution.Validate(); err != nil {
		panic(err)
	}
	if err := config.Report.Validate(); err != nil {
		panic(err)
	}
	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	return &config
}
