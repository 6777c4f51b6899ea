// Package taxon resolves scientific names against a taxonomic authority.
//
// The authority is reached through a Fetcher, so the package itself does no
// I/O. Lookups are retried according to a RetryPolicy and remembered in a
// Cache that the caller owns.
package taxon

import (
	"fmt"
	"strings"

	"github.com/gnames/dwcheck/pkg/finding"
)

// CheckName is the name of the taxonomic check.
const CheckName = "taxonomic_status"

// Status is the outcome of resolving one name.
type Status int

const (
	// Accepted means the authority has one accepted record for the name.
	Accepted Status = iota

	// Synonym is a name accepted by the authority under another name.
	Synonym

	// Unaccepted covers all non-accepted statuses of the authority.
	Unaccepted

	// NotFound means the authority has no records for the name.
	NotFound

	// AmbiguousMultipleMatches means the authority returned several records.
	AmbiguousMultipleMatches

	// LookupFailed means the authority could not be reached.
	LookupFailed
)

var statusNames = []string{
	"accepted",
	"synonym",
	"unaccepted",
	"not_found",
	"ambiguous_multiple_matches",
	"lookup_failed",
}

// String returns a snake_case name of the status.
func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for i, v := range statusNames {
		if v == name {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown taxonomic status %q", string(b))
}

// TaxonName is the resolution outcome of a scientific name.
type TaxonName struct {
	// Name is the name as it was given, the cache key.
	Name string `json:"name"`

	// Status of the name.
	Status Status `json:"status"`

	// AuthorityStatus is the status string reported by the authority,
	// for example "accepted", "unaccepted" or "synonym".
	AuthorityStatus string `json:"authorityStatus,omitempty"`

	// ValidName is the currently valid name according to the authority.
	ValidName string `json:"validName,omitempty"`

	// URL is the authority page of the record.
	URL string `json:"url,omitempty"`

	// AphiaID is the authority identifier of the record.
	AphiaID int `json:"aphiaId,omitempty"`

	// Matches is the number of records returned by the authority.
	Matches int `json:"matches,omitempty"`

	// Err describes the last failure for LookupFailed.
	Err string `json:"error,omitempty"`
}

// Severity of the resolution outcome. Only accepted names pass.
func (tn TaxonName) Severity() finding.Severity {
	if tn.Status == Accepted {
		return finding.Pass
	}
	return finding.Warning
}

// IsDefinitive is true for outcomes that depend only on the authority data.
// LookupFailed is the only transient outcome.
func (tn TaxonName) IsDefinitive() bool {
	return tn.Status != LookupFailed
}

// Finding renders the outcome as a taxonomic finding for a table.
func (tn TaxonName) Finding(table string) finding.Finding {
	var msg string
	switch tn.Status {
	case Accepted:
		msg = fmt.Sprintf("%q is accepted", tn.Name)
	case Synonym, Unaccepted:
		status := tn.AuthorityStatus
		if status == "" {
			status = tn.Status.String()
		}
		msg = fmt.Sprintf("%q is %s, valid name is %q", tn.Name, status, tn.ValidName)
	case NotFound:
		msg = fmt.Sprintf("%q is not found in the taxonomic authority", tn.Name)
	case AmbiguousMultipleMatches:
		msg = fmt.Sprintf(
			"%q has %d matches in the taxonomic authority, the first one is %s",
			tn.Name, tn.Matches, tn.AuthorityStatus,
		)
		if tn.ValidName != "" && tn.ValidName != tn.Name {
			msg += fmt.Sprintf(", valid name is %q", tn.ValidName)
		}
	case LookupFailed:
		msg = fmt.Sprintf("could not look up %q: %s", tn.Name, tn.Err)
	default:
		msg = fmt.Sprintf("%q has status %s", tn.Name, tn.Status)
	}
	if tn.URL != "" && tn.Status != Accepted {
		msg += " (" + tn.URL + ")"
	}
	return finding.New(tn.Severity(), finding.Taxonomic, CheckName, table, msg)
}

// Summary returns a short record of the outcome for reports.
func (tn TaxonName) Summary() finding.NameSummary {
	return finding.NameSummary{
		Name:      tn.Name,
		Status:    tn.Status.String(),
		ValidName: tn.ValidName,
		URL:       tn.URL,
	}
}
