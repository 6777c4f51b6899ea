// Package fieldcheck contains stateless checks of a single table.
//
// Every check is a pure function of a RecordSet (and, for some checks, a
// list of required columns). Checks never fail: problems are returned as
// findings, and a clean table produces a Pass finding.
package fieldcheck

import (
	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/dwcheck/pkg/recordset"
)

// Darwin Core terms used by the checks.
const (
	DecimalLatitude      = "decimalLatitude"
	DecimalLongitude     = "decimalLongitude"
	MinimumDepthInMeters = "minimumDepthInMeters"
	MaximumDepthInMeters = "maximumDepthInMeters"
)

// Names of the checks as they appear in findings.
const (
	CheckRequiredColumns  = "required_columns"
	CheckNullCompleteness = "null_completeness"
	CheckCoordinateBounds = "coordinate_bounds"
	CheckDepthConsistency = "depth_consistency"
)

// Validator is the common signature of checks. Checks that do not need
// required columns ignore the second argument.
type Validator func(rs *recordset.RecordSet, required []string) []finding.Finding

// maxListed limits how many values are quoted in a message.
const maxListed = 10

func newFinding(
	sev finding.Severity,
	cat finding.Category,
	check string,
	rs *recordset.RecordSet,
	msg string,
) finding.Finding {
	return finding.New(sev, cat, check, rs.Name(), msg)
}
