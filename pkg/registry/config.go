package registry

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/plugindex/plugindex/pkg/errors"
)

// Config is the file-level configuration for the registry builder. Every
// value has a default; a config file and command-line flags override it.
// Components receive these values explicitly at construction — nothing in
// the build reads configuration globally.
type Config struct {
	// APIBaseURL overrides the GitHub API endpoint.
	APIBaseURL string `toml:"api_base_url"`

	// Listing is the curated listing file path.
	Listing string `toml:"listing"`

	// OutputDir receives the rendered artifacts.
	OutputDir string `toml:"output_dir"`

	// Concurrency bounds parallel fetches.
	Concurrency int `toml:"concurrency"`

	// Timeout is the whole-run deadline. Zero means no deadline.
	Timeout duration `toml:"timeout"`

	// RetryAttempts and RetryDelay control transient-failure retries.
	RetryAttempts int      `toml:"retry_attempts"`
	RetryDelay    duration `toml:"retry_delay"`

	// CacheTTL bounds response cache reuse.
	CacheTTL duration `toml:"cache_ttl"`

	// AgingYears and UnmaintainedYears are the staleness boundaries.
	AgingYears        int `toml:"aging_years"`
	UnmaintainedYears int `toml:"unmaintained_years"`
}

// duration decodes TOML durations given as strings ("30s", "2h").
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Listing:           "listing.json",
		OutputDir:         ".",
		Concurrency:       defaultConcurrency,
		RetryAttempts:     3,
		RetryDelay:        duration(time.Second),
		CacheTTL:          duration(time.Hour),
		AgingYears:        2,
		UnmaintainedYears: 5,
	}
}

// LoadConfig reads a TOML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "concurrency cannot be negative")
	}
	if c.AgingYears <= 0 || c.UnmaintainedYears <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "staleness boundaries must be positive")
	}
	if c.AgingYears >= c.UnmaintainedYears {
		return errors.New(errors.ErrCodeInvalidConfig,
			"aging boundary (%dy) must be below unmaintained boundary (%dy)", c.AgingYears, c.UnmaintainedYears)
	}
	return nil
}

// StalenessThresholds converts the configured year boundaries.
func (c Config) StalenessThresholds() Thresholds {
	return Thresholds{
		Aging:        time.Duration(c.AgingYears) * year,
		Unmaintained: time.Duration(c.UnmaintainedYears) * year,
	}
}

// TimeoutDuration returns the run deadline as a time.Duration.
func (c Config) TimeoutDuration() time.Duration { return time.Duration(c.Timeout) }

// RetryDelayDuration returns the retry base delay as a time.Duration.
func (c Config) RetryDelayDuration() time.Duration { return time.Duration(c.RetryDelay) }

// CacheTTLDuration returns the cache TTL as a time.Duration.
func (c Config) CacheTTLDuration() time.Duration { return time.Duration(c.CacheTTL) }
