package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/raddo/internal/common"
	"github.com/dmitrijs2005/raddo/internal/logging"
	"github.com/dmitrijs2005/raddo/internal/timex"
)

const (
	DefaultPrimaryURL  = "https://opendata.dwd.de/climate_environment/CDC/grids_germany/hourly/radolan/recent/asc/"
	DefaultFallbackURL = "https://opendata.dwd.de/climate_environment/CDC/grids_germany/hourly/radolan/historical/asc/"

	// DefaultHistoryFile is created inside the local directory.
	DefaultHistoryFile = ".raddo_history.db"

	// HistoryDisabled as history_db turns run history off.
	HistoryDisabled = "-"

	maxErrorsAllowed = 20
	defaultLookback  = 14
)

// S3Config selects an optional S3-compatible bucket that new archives are
// mirrored to. Mirroring is off while Bucket is empty.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Enabled reports whether mirroring is configured.
func (s S3Config) Enabled() bool { return s.Bucket != "" }

// Config holds runtime settings for a raddo run.
type Config struct {
	PrimaryURL  string
	FallbackURL string
	Directory   string

	// Start and End are date expressions; see timex.ParseDate. Empty means
	// two weeks ago and yesterday respectively.
	Start string
	End   string

	ErrorsAllowed   int
	ForceRescan     bool
	ForceRedownload bool
	Yes             bool

	Sort             bool
	Extract          bool
	Complete         bool
	NoTimeCorrection bool

	FetchTimeout time.Duration
	RetryDelay   time.Duration

	HistoryDB   string
	LogLevel    string
	LogFile     string
	MetricsFile string

	S3 S3Config
}

// LoadDefaults populates c with defaults. The directory defaults to the
// working directory.
func (c *Config) LoadDefaults() {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	c.PrimaryURL = DefaultPrimaryURL
	c.FallbackURL = DefaultFallbackURL
	c.Directory = wd
	c.Start = ""
	c.End = ""
	c.ErrorsAllowed = 5
	c.FetchTimeout = 60 * time.Second
	c.RetryDelay = time.Second
	c.LogLevel = "info"
	c.S3.Region = "us-east-1"
}

// Load builds a Config from defaults and the JSON file named by args, if
// any. Flags are applied later by binding them with BindFlags.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.LoadJSON(jsonPath(args)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that do not depend on the current time.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.PrimaryURL) == "":
		return fmt.Errorf("%w: radolan server url is empty", common.ErrInvalidConfig)
	case strings.TrimSpace(c.FallbackURL) == "":
		return fmt.Errorf("%w: historical url is empty", common.ErrInvalidConfig)
	case strings.TrimSpace(c.Directory) == "":
		return fmt.Errorf("%w: directory is empty", common.ErrInvalidConfig)
	case c.ErrorsAllowed < 0:
		return fmt.Errorf("%w: errors allowed must not be negative", common.ErrInvalidConfig)
	case c.ErrorsAllowed > maxErrorsAllowed:
		return fmt.Errorf("%w: %d errors allowed is above the limit of %d, please be respectful with the data provider",
			common.ErrInvalidConfig, c.ErrorsAllowed, maxErrorsAllowed)
	case c.FetchTimeout < 0:
		return fmt.Errorf("%w: fetch timeout must not be negative", common.ErrInvalidConfig)
	case c.RetryDelay < 0:
		return fmt.Errorf("%w: retry delay must not be negative", common.ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	return nil
}

// Dates resolves Start and End against now.
func (c *Config) Dates(now time.Time) (start, end time.Time, err error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	start = today.AddDate(0, 0, -defaultLookback)
	if c.Start != "" {
		if start, err = timex.ParseDate(c.Start, now); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start: %v", common.ErrInvalidConfig, err)
		}
	}

	end = today.AddDate(0, 0, -1)
	if c.End != "" {
		if end, err = timex.ParseDate(c.End, now); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end: %v", common.ErrInvalidConfig, err)
		}
	}
	return start, end, nil
}

// ApplyComplete expands --complete into the steps it implies.
func (c *Config) ApplyComplete() {
	if c.Complete {
		c.Sort = true
		c.Extract = true
	}
}

// HistoryPath returns the run history database path, or "" when history is
// disabled.
func (c *Config) HistoryPath() string {
	switch c.HistoryDB {
	case HistoryDisabled:
		return ""
	case "":
		return filepath.Join(c.Directory, DefaultHistoryFile)
	default:
		return c.HistoryDB
	}
}

// LogOptions maps the logging fields to logging.Options. Progress is
// printed to the terminal separately, so the console only shows warnings
// unless debug output was asked for.
func (c *Config) LogOptions() logging.Options {
	opts := logging.Options{Level: c.LogLevel, File: c.LogFile, ConsoleLevel: "warn"}
	if strings.EqualFold(c.LogLevel, "debug") {
		opts.ConsoleLevel = "debug"
	}
	return opts
}
