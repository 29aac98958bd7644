package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "LOCALNEWSMAPPER_CONFIG"
	logLevelEnv      = "LOG_LEVEL"
	dataDirEnv       = "LOCALNEWSMAPPER_DATA_DIR"
	geocodeAPIKeyEnv = "GOOGLE_GEOCODE_API_KEY"
	civicAPIKeyEnv   = "GOOGLE_CIVIC_API_KEY"

	cutoffLayout = "2006-01-02"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Crawl   CrawlConfig   `yaml:"crawl"`
	Paths   PathsConfig   `yaml:"paths"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Google  GoogleConfig  `yaml:"google"`
	Export  ExportConfig  `yaml:"export"`

	Run RunConfig `yaml:"-"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CrawlConfig describes the directory page and the per-site filters.
type CrawlConfig struct {
	DirectoryURL    string   `yaml:"directoryUrl"`
	BrokenLinks     []string `yaml:"brokenLinks"`
	ExcludedAuthors []string `yaml:"excludedAuthors"`
	Cutoff          string   `yaml:"cutoff"`
	GradeSites      int      `yaml:"gradeSites"`
	LocaleAttempts  int      `yaml:"localeAttempts"`
}

// PathsConfig locates the cache, reference data and snapshots.
type PathsConfig struct {
	CacheDir      string `yaml:"cacheDir"`
	DirectoryFile string `yaml:"directoryFile"`
	StatesFile    string `yaml:"statesFile"`
	Snapshot      string `yaml:"snapshot"`
	GradeSnapshot string `yaml:"gradeSnapshot"`
}

// FetchConfig tunes page downloads.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
	RetryWait time.Duration `yaml:"retryWait"`
}

// GoogleConfig wires the geocoding and civic information APIs.
type GoogleConfig struct {
	GeocodeURL        string  `yaml:"geocodeUrl"`
	GeocodeAPIKey     string  `yaml:"geocodeApiKey"`
	CivicURL          string  `yaml:"civicUrl"`
	CivicAPIKey       string  `yaml:"civicApiKey"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// ExportConfig enables the optional SQLite copy of the registry.
type ExportConfig struct {
	SQLitePath string `yaml:"sqlitePath"`
}

// RunConfig is derived from the command line and never read from YAML.
type RunConfig struct {
	Grade       bool
	PreferLocal bool
	SiteLimit   int
	Cutoff      time.Time
}

// SnapshotPath returns the snapshot file for the current mode.
func (c Config) SnapshotPath() string {
	if c.Run.Grade {
		return c.Paths.GradeSnapshot
	}
	return c.Paths.Snapshot
}

// Load builds the configuration: defaults, then the YAML file, then the
// environment (including a .env file), then command-line options.
func Load(opts Options) (Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()

	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("config: merge %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyOptions(opts)

	if err := cfg.bindCutoff(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config: load env file %s: %w", path, err)
	}
	return nil
}

func readFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("config: cannot parse %s: %w", path, err)
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(dataDirEnv); v != "" {
		c.Paths = pathsUnder(v)
	}

	if v := os.Getenv(geocodeAPIKeyEnv); v != "" {
		c.Google.GeocodeAPIKey = v
	}

	if v := os.Getenv(civicAPIKeyEnv); v != "" {
		c.Google.CivicAPIKey = v
	}
}

func (c *Config) applyOptions(opts Options) {
	if opts.LogLevel != "" {
		c.Logging.Level = opts.LogLevel
	}
	if opts.ExportSQLite != "" {
		c.Export.SQLitePath = opts.ExportSQLite
	}

	c.Run.PreferLocal = opts.Source != SourceRemote
	if opts.Grade {
		c.Run.Grade = true
		c.Run.PreferLocal = false
		c.Run.SiteLimit = c.Crawl.GradeSites
	}
}

func (c *Config) bindCutoff() error {
	cutoff, err := time.Parse(cutoffLayout, c.Crawl.Cutoff)
	if err != nil {
		return fmt.Errorf("config: invalid cutoff %q: %w", c.Crawl.Cutoff, err)
	}
	c.Run.Cutoff = cutoff
	return nil
}

func pathsUnder(dir string) PathsConfig {
	return PathsConfig{
		CacheDir:      filepath.Join(dir, "sites"),
		DirectoryFile: filepath.Join(dir, "metricmedianews.txt"),
		StatesFile:    filepath.Join(dir, "states.csv"),
		Snapshot:      filepath.Join(dir, "g.snapshot.json"),
		GradeSnapshot: filepath.Join(dir, "grade.snapshot.json"),
	}
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Crawl: CrawlConfig{
			DirectoryURL: "https://metricmedianews.com",
			BrokenLinks: []string{
				"https://forsmithtimes.com", "https://northsacramentotoday.com",
				"https://southsacramentotoday.com", "https://vincennestoday.com",
				"https://midcoastimes.com", "https://kentcountytimes.com",
				"https://segeorgianew.com", "https://fonddulacnews.com",
			},
			ExcludedAuthors: []string{"Metric Media News Service", "Press release submission"},
			Cutoff:          "2020-09-01",
			GradeSites:      3,
			LocaleAttempts:  4,
		},
		Paths: pathsUnder("data"),
		Fetch: FetchConfig{
			Timeout:   3050 * time.Millisecond,
			UserAgent: "Mozilla/5.0",
			RetryWait: 100 * time.Millisecond,
		},
		Google: GoogleConfig{
			GeocodeURL:        "https://maps.googleapis.com/maps/api/geocode/json",
			CivicURL:          "https://www.googleapis.com/civicinfo/v2/representatives",
			RequestsPerSecond: 1,
		},
	}
}
