package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(geocodeAPIKeyEnv, "")
	t.Setenv(civicAPIKeyEnv, "")
	t.Setenv(configPathEnv, "")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "https://metricmedianews.com", cfg.Crawl.DirectoryURL)
	assert.Len(t, cfg.Crawl.BrokenLinks, 8)
	assert.Equal(t, 3050*time.Millisecond, cfg.Fetch.Timeout)
	assert.Equal(t, filepath.Join("data", "sites"), cfg.Paths.CacheDir)
	assert.Equal(t, time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC), cfg.Run.Cutoff)
	assert.True(t, cfg.Run.PreferLocal)
	assert.False(t, cfg.Run.Grade)
	assert.Zero(t, cfg.Run.SiteLimit)
	assert.Equal(t, filepath.Join("data", "g.snapshot.json"), cfg.SnapshotPath())
}

func TestLoadMergesYAMLOverDefaults(t *testing.T) {
	t.Setenv(geocodeAPIKeyEnv, "")
	t.Setenv(civicAPIKeyEnv, "")

	path := writeFile(t, "config.yaml", `
logging:
  level: warn
crawl:
  excludedAuthors: ["Staff"]
  cutoff: "2021-01-15"
fetch:
  timeout: 5s
google:
  geocodeApiKey: from-file
`)

	cfg, err := Load(Options{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format, "unset keys keep their defaults")
	assert.Equal(t, []string{"Staff"}, cfg.Crawl.ExcludedAuthors)
	assert.Len(t, cfg.Crawl.BrokenLinks, 8)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "Mozilla/5.0", cfg.Fetch.UserAgent)
	assert.Equal(t, "from-file", cfg.Google.GeocodeAPIKey)
	assert.Equal(t, time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC), cfg.Run.Cutoff)
}

func TestLoadEnvironmentAndDotEnv(t *testing.T) {
	// godotenv never replaces variables that already exist, even when empty
	t.Setenv(civicAPIKeyEnv, "")
	require.NoError(t, os.Unsetenv(civicAPIKeyEnv))
	t.Setenv(geocodeAPIKeyEnv, "from-env")
	t.Setenv(dataDirEnv, "")

	envFile := writeFile(t, ".env", "GOOGLE_CIVIC_API_KEY=from-dotenv\nGOOGLE_GEOCODE_API_KEY=ignored\n")
	cfg, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Google.GeocodeAPIKey)
	assert.Equal(t, "from-dotenv", cfg.Google.CivicAPIKey)
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "absent.env")})
	assert.NoError(t, err)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := Load(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "cannot read")

	_, err = Load(Options{ConfigPath: writeFile(t, "bad.yaml", "crawl: [")})
	assert.ErrorContains(t, err, "cannot parse")

	_, err = Load(Options{ConfigPath: writeFile(t, "cutoff.yaml", "crawl:\n  cutoff: yesterday\n")})
	assert.ErrorContains(t, err, "invalid cutoff")
}

func TestGradeModeForcesRemote(t *testing.T) {
	cfg, err := Load(Options{Grade: true, Source: SourceLocal})
	require.NoError(t, err)

	assert.True(t, cfg.Run.Grade)
	assert.False(t, cfg.Run.PreferLocal)
	assert.Equal(t, 3, cfg.Run.SiteLimit)
	assert.Equal(t, filepath.Join("data", "grade.snapshot.json"), cfg.SnapshotPath())
}

func TestParseFlags(t *testing.T) {
	t.Setenv(configPathEnv, "")

	opts, err := ParseFlags([]string{"--source", "remote", "--log-level", "debug", "--export-sqlite", "out.db"})
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, opts.Source)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, "out.db", opts.ExportSQLite)
	assert.Equal(t, ".env", opts.EnvFile)

	cfg, err := Load(Options{Source: opts.Source})
	require.NoError(t, err)
	assert.False(t, cfg.Run.PreferLocal)

	_, err = ParseFlags([]string{"--source", "ftp"})
	assert.Error(t, err)

	_, err = ParseFlags([]string{"--help"})
	assert.ErrorIs(t, err, ErrHelp)
}
