// Package finding defines the outcome of validation checks.
//
// A Finding is one reportable result of a check: its severity, category,
// the pipeline stage that produced it, a message for curators and optional
// row and column locators. A Report owns the ordered list of findings of
// one pipeline run.
package finding

import (
	"fmt"
	"strings"
)

// Severity of a Finding. Severities are ordered, Critical is the highest.
type Severity int

const (
	Pass Severity = iota
	Warning
	Critical
)

var severityNames = map[Severity]string{
	Pass:     "pass",
	Warning:  "warning",
	Critical: "critical",
}

// String returns a lowercase name of the severity.
func (s Severity) String() string {
	if res, ok := severityNames[s]; ok {
		return res
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for k, v := range severityNames {
		if v == name {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", string(b))
}

// Max returns the highest of the given severities, Pass for none.
func Max(ss ...Severity) Severity {
	res := Pass
	for _, v := range ss {
		if v > res {
			res = v
		}
	}
	return res
}

// Category groups findings by the kind of rule they check.
type Category string

const (
	Structural   Category = "structural"
	Completeness Category = "completeness"
	Geographic   Category = "geographic"
	Depth        Category = "depth"
	Taxonomic    Category = "taxonomic"
	Referential  Category = "referential"
)

// Stage of the validation pipeline.
type Stage int

const (
	Ingested Stage = iota
	StructuralChecked
	CompletenessChecked
	GeographicChecked
	DepthChecked
	Merged
	TaxonomicChecked
	Reported
)

var stageNames = []string{
	"ingested",
	"structural_checked",
	"completeness_checked",
	"geographic_checked",
	"depth_checked",
	"merged",
	"taxonomic_checked",
	"reported",
}

// String returns a snake_case name of the stage.
func (s Stage) String() string {
	if int(s) >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for i, v := range stageNames {
		if v == name {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", string(b))
}

// Finding is one reportable outcome of a validation check.
type Finding struct {
	// Severity tells if the check passed, found something suspicious or
	// found invalid data.
	Severity Severity `json:"severity" yaml:"severity"`

	// Category of the rule.
	Category Category `json:"category" yaml:"category"`

	// Stage of the pipeline that created the finding.
	Stage Stage `json:"stage" yaml:"stage"`

	// Check is a short name of the check, for example "coordinate_bounds".
	Check string `json:"check" yaml:"check"`

	// Table is the name of the table the locators refer to.
	Table string `json:"table,omitempty" yaml:"table,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message" yaml:"message"`

	// Rows are 0-based indices of offending records.
	Rows []int `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Columns are names of offending columns.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// String returns a one-line representation of the finding.
func (f Finding) String() string {
	var sb strings.Builder
	sb.WriteString("[" + f.Severity.String() + "] ")
	if f.Table != "" {
		sb.WriteString(f.Table + ": ")
	}
	sb.WriteString(f.Message)
	return sb.String()
}

// New creates a finding with the given severity.
func New(
	sev Severity,
	cat Category,
	check, table, msg string,
) Finding {
	return Finding{
		Severity: sev,
		Category: cat,
		Check:    check,
		Table:    table,
		Message:  msg,
	}
}

// WithRows returns a copy of the finding with row locators.
func (f Finding) WithRows(rows []int) Finding {
	f.Rows = append([]int(nil), rows...)
	return f
}

// WithColumns returns a copy of the finding with column locators.
func (f Finding) WithColumns(cols []string) Finding {
	f.Columns = append([]string(nil), cols...)
	return f
}
