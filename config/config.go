package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "IMMO"

// DefaultSearchURL is the immowelt search the tracker was built for: houses and
// apartments for sale within the Trier area polygon.
const DefaultSearchURL = "https://www.immowelt.de/classified-search?distributionTypes=Buy,Buy_Auction,Compulsory_Auction&estateTypes=House,Apartment&locations=eyJwbGFjZUlkIjoiQUQwOERFNDA0OCIsInJhZGl1cyI6MSwicG9seWxpbmUiOiJxZnVuSG9ncmdAYkB-T2RCZk9kRGBOfEViTHBHeEl0SGBHbkl8Q35JdEB8SXVAbkl9Q3ZIYUduR3lJfkVjTGREYU5kQmlPYEB9T2FAfU9lQmlPZURfTl9GZUxvR3lJd0hfR29JfUN9SXVAX0p0QG9JfEN1SH5GcUd4SX1FZExlRH5NZUJoT2NAfE8ifQ"

// Store drivers.
const (
	DriverCSV      = "csv"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration. It is built once at startup
// and passed to the components that need it.
type Config struct {
	BaseSearchURL string
	SiteBaseURL   string
	UserAgent     string

	RequestDelay   time.Duration
	RetryAttempts  int
	RequestTimeout time.Duration
	MaxConcurrency int

	DataDir       string
	BackupDir     string
	CheckpointDir string

	StoreDriver string
	StorePath   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	BackupEnabled       bool
	CheckpointEnabled   bool
	CloseOnPartialCrawl bool

	Schedule string

	LogLevel string
	LogFile  string
}

// SetDefaults registers every recognised key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_search_url", DefaultSearchURL)
	v.SetDefault("site_base_url", "https://www.immowelt.de")
	v.SetDefault("user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36")

	v.SetDefault("request_delay_seconds", 0.1)
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("request_timeout_seconds", 10)
	v.SetDefault("max_concurrency", 3)

	v.SetDefault("data_dir", "./data")
	v.SetDefault("backup_dir", "")
	v.SetDefault("checkpoint_dir", "")

	v.SetDefault("store_driver", DriverCSV)
	v.SetDefault("store_path", "listings.csv")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "scraper")
	v.SetDefault("postgres_password", "scraper123")
	v.SetDefault("postgres_db", "immo")
	v.SetDefault("postgres_sslmode", "disable")

	v.SetDefault("backup_enabled", false)
	v.SetDefault("checkpoint_enabled", false)
	v.SetDefault("close_on_partial_crawl", false)

	v.SetDefault("schedule", "0 6 * * *")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// NewViper returns a viper instance with defaults set and IMMO_* environment
// variables bound. A .env file in the working directory is loaded first when
// present.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		BaseSearchURL: v.GetString("base_search_url"),
		SiteBaseURL:   strings.TrimRight(v.GetString("site_base_url"), "/"),
		UserAgent:     v.GetString("user_agent"),

		RequestDelay:   seconds(v.GetFloat64("request_delay_seconds")),
		RetryAttempts:  v.GetInt("retry_attempts"),
		RequestTimeout: seconds(v.GetFloat64("request_timeout_seconds")),
		MaxConcurrency: v.GetInt("max_concurrency"),

		DataDir:       v.GetString("data_dir"),
		BackupDir:     v.GetString("backup_dir"),
		CheckpointDir: v.GetString("checkpoint_dir"),

		StoreDriver: strings.ToLower(v.GetString("store_driver")),
		StorePath:   v.GetString("store_path"),

		PostgresHost:     v.GetString("postgres_host"),
		PostgresPort:     v.GetString("postgres_port"),
		PostgresUser:     v.GetString("postgres_user"),
		PostgresPassword: v.GetString("postgres_password"),
		PostgresDB:       v.GetString("postgres_db"),
		PostgresSSLMode:  v.GetString("postgres_sslmode"),

		BackupEnabled:       v.GetBool("backup_enabled"),
		CheckpointEnabled:   v.GetBool("checkpoint_enabled"),
		CloseOnPartialCrawl: v.GetBool("close_on_partial_crawl"),

		Schedule: v.GetString("schedule"),

		LogLevel: v.GetString("log_level"),
		LogFile:  v.GetString("log_file"),
	}

	if cfg.BackupDir == "" {
		cfg.BackupDir = filepath.Join(cfg.DataDir, "backups")
	}
	if cfg.CheckpointDir == "" {
		cfg.CheckpointDir = filepath.Join(cfg.DataDir, "checkpoints")
	}
	if cfg.StorePath != "" && !filepath.IsAbs(cfg.StorePath) && cfg.StoreDriver != DriverPostgres {
		cfg.StorePath = filepath.Join(cfg.DataDir, cfg.StorePath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverCSV, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.StoreDriver)
	}
	if c.BaseSearchURL == "" {
		return fmt.Errorf("config: base_search_url is required")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("config: retry_attempts must be at least 1, got %d", c.RetryAttempts)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: request_timeout_seconds must be positive")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("config: request_delay_seconds must not be negative")
	}
	if c.MaxConcurrency < 1 {
		c.MaxConcurrency = 1
	}
	return nil
}

// EnsureDirectories creates the data, backup, checkpoint and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, c.BackupDir, c.CheckpointDir}
	if c.LogFile != "" {
		dirs = append(dirs, filepath.Dir(c.LogFile))
	}
	if c.StoreDriver != DriverPostgres && c.StorePath != "" {
		dirs = append(dirs, filepath.Dir(c.StorePath))
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
