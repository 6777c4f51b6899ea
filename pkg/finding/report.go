package finding

import (
	"time"
)

// NameSummary is a short record of a resolved scientific name.
type NameSummary struct {
	Name      string `json:"name"                yaml:"name"`
	Status    string `json:"status"              yaml:"status"`
	ValidName string `json:"validName,omitempty" yaml:"validName,omitempty"`
	URL       string `json:"url,omitempty"       yaml:"url,omitempty"`
}

// Report is the result of one pipeline run. Findings are only appended,
// the order of the list is the order in which checks ran.
type Report struct {
	// RunID identifies the run in logs and saved reports.
	RunID string `json:"runId" yaml:"runId"`

	// Severity is the maximum severity of all findings.
	Severity Severity `json:"severity" yaml:"severity"`

	// Stages are the pipeline stages the run went through.
	Stages []Stage `json:"stages" yaml:"stages"`

	// Tables maps table names to their number of records.
	Tables map[string]int `json:"tables" yaml:"tables"`

	// MergedRows is the number of rows in the event-occurrence-emof join,
	// -1 if the join could not be built.
	MergedRows int `json:"mergedRows" yaml:"mergedRows"`

	// Names are outcomes of taxonomic resolution.
	Names []NameSummary `json:"names,omitempty" yaml:"names,omitempty"`

	// Findings of all checks in the order they ran.
	Findings []Finding `json:"findings" yaml:"findings"`

	// Duration of the run.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// NewReport creates an empty report.
func NewReport(runID string) *Report {
	return &Report{
		RunID:      runID,
		Tables:     make(map[string]int),
		MergedRows: -1,
	}
}

// Add appends findings stamped with the current stage and updates
// the overall severity.
func (r *Report) Add(ff ...Finding) {
	stage := r.Stage()
	for _, v := range ff {
		v.Stage = stage
		r.Findings = append(r.Findings, v)
		r.Severity = Max(r.Severity, v.Severity)
	}
}

// Enter records that the run reached a stage.
func (r *Report) Enter(s Stage) {
	r.Stages = append(r.Stages, s)
}

// Stage returns the last stage reached, Ingested for a new report.
func (r *Report) Stage() Stage {
	if len(r.Stages) == 0 {
		return Ingested
	}
	return r.Stages[len(r.Stages)-1]
}

// Count returns the number of findings with the given severity.
func (r *Report) Count(s Severity) int {
	var res int
	for _, v := range r.Findings {
		if v.Severity == s {
			res++
		}
	}
	return res
}

// Filter returns findings of the given category.
func (r *Report) Filter(c Category) []Finding {
	var res []Finding
	for _, v := range r.Findings {
		if v.Category == c {
			res = append(res, v)
		}
	}
	return res
}
