package config

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/gnames/gn"
)

// Update applies a slice of Option functions to the Config.
// This is the only way to modify a Config after creation.
// Invalid options are rejected with warnings - config remains in valid state.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the Config to a slice of Option functions.
// Only includes persistent fields appropriate for config.yaml.
// Excludes runtime-only fields (HomeDir, SkipNames, Format).
// Used for round-tripping config.yaml ↔ Config conversions.
func (c *Config) ToOptions() []Option {
	var res []Option
	var s string
	var i int
	var ss []string

	ss = c.Tables.Event.RequiredColumns
	if len(ss) > 0 {
		res = append(res, OptEventColumns(ss))
	}
	ss = c.Tables.Occurrence.RequiredColumns
	if len(ss) > 0 {
		res = append(res, OptOccurrenceColumns(ss))
	}
	ss = c.Tables.EMOF.RequiredColumns
	if len(ss) > 0 {
		res = append(res, OptEMOFColumns(ss))
	}

	s = c.Authority.URL
	if s != "" {
		res = append(res, OptAuthorityURL(s))
	}
	i = c.Authority.TimeoutSec
	if i > 0 {
		res = append(res, OptAuthorityTimeoutSec(i))
	}
	i = c.Authority.MaxAttempts
	if i > 0 {
		res = append(res, OptAuthorityMaxAttempts(i))
	}
	i = c.Authority.BackoffMs
	if i > 0 {
		res = append(res, OptAuthorityBackoffMs(i))
	}
	if c.Authority.RateLimit > 0 {
		res = append(res, OptAuthorityRateLimit(c.Authority.RateLimit))
	}
	if c.Authority.Fuzzy != nil {
		res = append(res, OptAuthorityFuzzy(c.Authority.Fuzzy))
	}
	if c.Authority.MarineOnly != nil {
		res = append(res, OptAuthorityMarineOnly(c.Authority.MarineOnly))
	}

	i = c.Cache.Size
	if i > 0 {
		res = append(res, OptCacheSize(i))
	}
	if c.Cache.Persistent {
		res = append(res, OptCachePersistent(true))
	}

	s = c.Log.Format
	if s != "" {
		res = append(res, OptLogFormat(s))
	}
	s = c.Log.Level
	if s != "" {
		res = append(res, OptLogLevel(s))
	}
	s = c.Log.Destination
	if s != "" {
		res = append(res, OptLogDestination(s))
	}

	i = c.JobsNumber
	if i > 0 {
		res = append(res, OptJobsNumber(i))
	}
	return res
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidList(name string, ss []string) bool {
	res := len(ss) > 0
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidURL(name, s string) bool {
	u, err := url.Parse(s)
	res := err == nil && (u.Scheme == "http" || u.Scheme == "https") &&
		u.Host != ""
	if !res {
		gn.Warn("<em>%s</em> is not a valid http(s) URL, ignoring '%s'", name, s)
	}
	return res
}

func isValidInt(name string, i int) bool {
	res := i > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %d", name, i)
	}
	return res
}

func isValidNonNegative(name string, i int) bool {
	res := i >= 0
	if !res {
		gn.Warn("<em>%s</em> cannot be negative, ignoring %d", name, i)
	}
	return res
}

func isValidFloat(name string, f float64) bool {
	res := f > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %v", name, f)
	}
	return res
}

func isValidEnum(name, val string) bool {
	s := struct{}{}
	data := map[string]map[string]struct{}{
		"Log.Level":       {"debug": s, "info": s, "warn": s, "error": s},
		"Log.Format":      {"json": s, "text": s},
		"Log.Destination": {"file": s, "stderr": s, "stdout": s},
		"Format":          {"text": s, "json": s, "yaml": s},
	}
	vals := slices.Sorted(maps.Keys(data[name]))
	var lines []string
	for _, v := range vals {
		line := fmt.Sprintf("  * %s", v)
		lines = append(lines, line)
	}
	if _, ok := data[name][val]; ok {
		return true
	} else {
		gn.Warn(
			"<em>%s</em> does not support '%s' as a value. "+
				"Valid values are: \n%s\nIgnoring...",
			name, val, strings.Join(lines, "\n"),
		)
		return false
	}
}
