// Package config provides configuration management for dwcheck.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Tables: required columns for event, occurrence and emof tables
//   - Authority: url, timeout_sec, max_attempts, backoff_ms, rate_limit,
//     fuzzy, marine_only
//   - Cache: size, persistent
//   - Log: level, format, destination
//   - General: jobs_number
//
// Runtime-only fields (CLI flags only):
//   - SkipNames, Format (per-command)
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use DWCHECK_ prefix with underscores for nesting:
//
//	DWCHECK_AUTHORITY_URL=https://www.marinespecies.org/rest
//	DWCHECK_AUTHORITY_MAX_ATTEMPTS=3
//	DWCHECK_CACHE_SIZE=10000
//	DWCHECK_LOG_LEVEL=info
//	DWCHECK_JOBS_NUMBER=4
package config

// Config represents the complete dwcheck configuration.
type Config struct {
	// Tables contains per-table settings of the Event-Core dataset.
	Tables TablesConfig `mapstructure:"tables" yaml:"tables"`

	// Authority contains settings of the taxonomic name authority (WoRMS).
	Authority AuthorityConfig `mapstructure:"authority" yaml:"authority"`

	// Cache contains settings of the name resolution cache.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of names resolved concurrently. The name
	// authority is a rate-limited third party, keep this number small.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// SkipNames disables taxonomic lookups (offline mode).
	SkipNames bool `mapstructure:"-" yaml:"-"`

	// Format of the report: 'text', 'json' or 'yaml'.
	Format string `mapstructure:"-" yaml:"-"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string `mapstructure:"-" yaml:"-"`
}

// TablesConfig groups settings of the three linked tables.
type TablesConfig struct {
	Event      TableConfig `mapstructure:"event"      yaml:"event"`
	Occurrence TableConfig `mapstructure:"occurrence" yaml:"occurrence"`
	EMOF       TableConfig `mapstructure:"emof"       yaml:"emof"`
}

// TableConfig contains settings of one table.
type TableConfig struct {
	// RequiredColumns are Darwin Core terms that must be present in the
	// table. They also determine which columns are checked for nulls.
	RequiredColumns []string `mapstructure:"required_columns" yaml:"required_columns"`
}

// AuthorityConfig contains settings for the nomenclature authority service.
type AuthorityConfig struct {
	// URL is the base URL of the WoRMS REST service.
	URL string `mapstructure:"url" yaml:"url"`

	// TimeoutSec is the timeout of one request in seconds.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxAttempts is the total number of attempts for one name, including
	// the first one. Retries of the same name are sequential.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`

	// BackoffMs is the delay before the first retry in milliseconds.
	// Every next retry doubles the delay.
	BackoffMs int `mapstructure:"backoff_ms" yaml:"backoff_ms"`

	// RateLimit is the maximum number of requests per second.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`

	// Fuzzy allows the authority to return near matches.
	Fuzzy *bool `mapstructure:"fuzzy" yaml:"fuzzy"`

	// MarineOnly limits matches to marine taxa.
	MarineOnly *bool `mapstructure:"marine_only" yaml:"marine_only"`
}

// CacheConfig contains settings of the name resolution cache.
type CacheConfig struct {
	// Size is the maximum number of names kept in memory.
	// Zero means unbounded.
	Size int `mapstructure:"size" yaml:"size"`

	// Persistent keeps resolved names in a SQLite file in the cache
	// directory, so the next runs do not query the authority again.
	Persistent bool `mapstructure:"persistent" yaml:"persistent"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json' or 'text'.
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// Default required columns of the three tables.
var (
	EventColumns = []string{
		"eventID",
		"eventDate",
		"decimalLatitude",
		"decimalLongitude",
		"countryCode",
		"geodeticDatum",
	}

	OccurrenceColumns = []string{
		"occurrenceID",
		"scientificName",
		"eventDate",
		"decimalLatitude",
		"decimalLongitude",
		"basisOfRecord",
		"occurrenceStatus",
	}

	EMOFColumns = []string{
		"eventID",
		"occurrenceID",
		"measurementValue",
		"measurementType",
		"measurementUnit",
	}
)

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	yes := true
	marine := true
	res := &Config{
		Tables: TablesConfig{
			Event:      TableConfig{RequiredColumns: clone(EventColumns)},
			Occurrence: TableConfig{RequiredColumns: clone(OccurrenceColumns)},
			EMOF:       TableConfig{RequiredColumns: clone(EMOFColumns)},
		},
		Authority: AuthorityConfig{
			URL:         "https://www.marinespecies.org/rest",
			TimeoutSec:  60,
			MaxAttempts: 3,
			BackoffMs:   500,
			RateLimit:   5,
			Fuzzy:       &yes,
			MarineOnly:  &marine,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: 4,
		Format:     "text",
	}

	return res
}

// IsFuzzy returns true if the authority is asked for near matches.
func (a AuthorityConfig) IsFuzzy() bool {
	return a.Fuzzy == nil || *a.Fuzzy
}

// IsMarineOnly returns true if the authority is limited to marine taxa.
func (a AuthorityConfig) IsMarineOnly() bool {
	return a.MarineOnly == nil || *a.MarineOnly
}

func clone(ss []string) []string {
	res := make([]string, len(ss))
	copy(res, ss)
	return res
}
