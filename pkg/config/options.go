package config

import (
	"strings"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptEventColumns sets required columns of the event table.
func OptEventColumns(ss []string) Option {
	ss = cleanColumns(ss)
	return func(c *Config) {
		if isValidList("Event Required Columns", ss) {
			c.Tables.Event.RequiredColumns = ss
		}
	}
}

// OptOccurrenceColumns sets required columns of the occurrence table.
func OptOccurrenceColumns(ss []string) Option {
	ss = cleanColumns(ss)
	return func(c *Config) {
		if isValidList("Occurrence Required Columns", ss) {
			c.Tables.Occurrence.RequiredColumns = ss
		}
	}
}

// OptEMOFColumns sets required columns of the extended
// measurement-or-fact table.
func OptEMOFColumns(ss []string) Option {
	ss = cleanColumns(ss)
	return func(c *Config) {
		if isValidList("EMOF Required Columns", ss) {
			c.Tables.EMOF.RequiredColumns = ss
		}
	}
}

// OptAuthorityURL sets the base URL of the name authority.
func OptAuthorityURL(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "/")
	return func(c *Config) {
		if isValidURL("Authority URL", s) {
			c.Authority.URL = s
		}
	}
}

// OptAuthorityTimeoutSec sets the timeout of one authority request.
func OptAuthorityTimeoutSec(i int) Option {
	return func(c *Config) {
		if isValidInt("Authority Timeout", i) {
			c.Authority.TimeoutSec = i
		}
	}
}

// OptAuthorityMaxAttempts sets the total number of attempts per name.
func OptAuthorityMaxAttempts(i int) Option {
	return func(c *Config) {
		if isValidInt("Authority Max Attempts", i) {
			c.Authority.MaxAttempts = i
		}
	}
}

// OptAuthorityBackoffMs sets the delay before the first retry.
func OptAuthorityBackoffMs(i int) Option {
	return func(c *Config) {
		if isValidInt("Authority Backoff", i) {
			c.Authority.BackoffMs = i
		}
	}
}

// OptAuthorityRateLimit sets the maximum number of requests per second.
func OptAuthorityRateLimit(f float64) Option {
	return func(c *Config) {
		if isValidFloat("Authority Rate Limit", f) {
			c.Authority.RateLimit = f
		}
	}
}

// OptAuthorityFuzzy sets whether near matches are requested.
// Uses pointer to distinguish between unset (nil) and false.
func OptAuthorityFuzzy(b *bool) Option {
	return func(c *Config) {
		if b != nil {
			c.Authority.Fuzzy = b
		}
	}
}

// OptAuthorityMarineOnly sets whether matches are limited to marine taxa.
// Uses pointer to distinguish between unset (nil) and false.
func OptAuthorityMarineOnly(b *bool) Option {
	return func(c *Config) {
		if b != nil {
			c.Authority.MarineOnly = b
		}
	}
}

// OptCacheSize sets the maximum number of names kept in memory.
// Zero means unbounded.
func OptCacheSize(i int) Option {
	return func(c *Config) {
		if isValidNonNegative("Cache Size", i) {
			c.Cache.Size = i
		}
	}
}

// OptCachePersistent enables the on-disk name cache.
func OptCachePersistent(b bool) Option {
	return func(c *Config) {
		c.Cache.Persistent = b
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of names resolved concurrently.
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptSkipNames disables taxonomic lookups.
// Runtime-only field - not in ToOptions().
func OptSkipNames(b bool) Option {
	return func(c *Config) {
		c.SkipNames = b
	}
}

// OptFormat sets the report format.
// Valid values: "text", "json", "yaml".
// Runtime-only field - not in ToOptions().
func OptFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Format", s) {
			c.Format = s
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}

func cleanColumns(ss []string) []string {
	var res []string
	for _, v := range ss {
		v = strings.TrimSpace(v)
		if v != "" {
			res = append(res, v)
		}
	}
	return res
}
