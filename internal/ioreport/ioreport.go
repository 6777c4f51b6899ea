// Package ioreport renders validation reports as text, JSON or YAML.
package ioreport

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/gnfmt"
	"gopkg.in/yaml.v3"
)

// MaxRows is the number of row locators shown per finding in text reports.
const MaxRows = 10

// Formats of reports.
const (
	Text = "text"
	JSON = "json"
	YAML = "yaml"
)

var marks = map[finding.Severity]string{
	finding.Pass:     "✅",
	finding.Warning:  "⚠️",
	finding.Critical: "❌",
}

// Write renders the report to w in the given format.
func Write(w io.Writer, r *finding.Report, format string) error {
	var data []byte
	var err error

	switch strings.ToLower(format) {
	case "", Text:
		data = textReport(r)
	case JSON:
		enc := gnfmt.GNjson{Pretty: true}
		data, err = enc.Encode(r)
		data = append(data, '\n')
	case YAML:
		data, err = yaml.Marshal(r)
	default:
		return FormatError(format)
	}
	if err != nil {
		return WriteError(format, err)
	}

	if _, err = w.Write(data); err != nil {
		return WriteError(format, err)
	}
	return nil
}

func textReport(r *finding.Report) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Validation run %s\n\n", r.RunID)

	for _, k := range slices.Sorted(maps.Keys(r.Tables)) {
		fmt.Fprintf(&buf, "%-12s %s records\n", k+":",
			humanize.Comma(int64(r.Tables[k])))
	}
	if r.MergedRows >= 0 {
		fmt.Fprintf(&buf, "%-12s %s rows\n", "merged:",
			humanize.Comma(int64(r.MergedRows)))
	}
	buf.WriteString("\n")

	for _, v := range r.Findings {
		buf.WriteString(Line(v))
		buf.WriteString("\n")
	}

	fmt.Fprintf(&buf, "\nPassed: %s, warnings: %s, critical: %s\n",
		humanize.Comma(int64(r.Count(finding.Pass))),
		humanize.Comma(int64(r.Count(finding.Warning))),
		humanize.Comma(int64(r.Count(finding.Critical))),
	)
	fmt.Fprintf(&buf, "Result: %s %s\n",
		marks[r.Severity], strings.ToUpper(r.Severity.String()))
	fmt.Fprintf(&buf, "Duration: %s\n", gnfmt.TimeString(r.Duration.Seconds()))
	return buf.Bytes()
}

// Line renders one finding with its severity mark and locators.
func Line(f finding.Finding) string {
	var sb strings.Builder
	sb.WriteString(marks[f.Severity])
	sb.WriteString(" [" + string(f.Category) + "] ")
	if f.Table != "" {
		sb.WriteString(f.Table + ": ")
	}
	sb.WriteString(f.Message)
	if len(f.Columns) > 0 {
		sb.WriteString(" (columns: " + strings.Join(f.Columns, ", ") + ")")
	}
	if len(f.Rows) > 0 {
		sb.WriteString(" (rows: " + rows(f.Rows) + ")")
	}
	return sb.String()
}

func rows(rr []int) string {
	n := min(len(rr), MaxRows)
	ss := make([]string, n)
	for i := range n {
		ss[i] = strconv.Itoa(rr[i])
	}
	res := strings.Join(ss, ", ")
	if len(rr) > n {
		res += fmt.Sprintf(" and %s more", humanize.Comma(int64(len(rr)-n)))
	}
	return res
}
