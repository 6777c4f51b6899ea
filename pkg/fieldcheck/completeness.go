package fieldcheck

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/dwcheck/pkg/recordset"
)

// RequiredColumns fails with Critical if any of the required columns is
// absent from the table, otherwise it returns Pass.
func RequiredColumns(
	rs *recordset.RecordSet,
	required []string,
) []finding.Finding {
	missing := rs.MissingColumns(required)
	if len(missing) == 0 {
		f := newFinding(finding.Pass, finding.Structural,
			CheckRequiredColumns, rs, "Passed required columns")
		return []finding.Finding{f}
	}

	msg := fmt.Sprintf("Missing required Darwin Core columns: %s",
		strings.Join(missing, ", "))
	f := newFinding(finding.Critical, finding.Structural,
		CheckRequiredColumns, rs, msg).WithColumns(missing)
	return []finding.Finding{f}
}

// NullCompleteness flags with Warning the required columns that are
// present in the table but contain absent values. Rows of the finding
// are the records that have at least one such value.
func NullCompleteness(
	rs *recordset.RecordSet,
	required []string,
) []finding.Finding {
	var cols []string
	seen := make(map[int]struct{})
	for _, col := range required {
		vals, ok := rs.Column(col)
		if !ok || slices.Contains(cols, col) {
			continue
		}
		var hasNull bool
		for i, v := range vals {
			if v.IsNull() {
				hasNull = true
				seen[i] = struct{}{}
			}
		}
		if hasNull {
			cols = append(cols, col)
		}
	}

	if len(cols) == 0 {
		f := newFinding(finding.Pass, finding.Completeness,
			CheckNullCompleteness, rs, "Passed null values check")
		return []finding.Finding{f}
	}

	rows := sortedRows(seen)
	msg := fmt.Sprintf("Columns %s have missing values in %d records",
		strings.Join(cols, ", "), len(rows))
	f := newFinding(finding.Warning, finding.Completeness,
		CheckNullCompleteness, rs, msg).
		WithColumns(cols).
		WithRows(rows)
	return []finding.Finding{f}
}

func sortedRows(m map[int]struct{}) []int {
	res := make([]int, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}

func listRows(rows []int) string {
	if len(rows) <= maxListed {
		return fmt.Sprint(rows)
	}
	return fmt.Sprintf("%v and %d more", rows[:maxListed], len(rows)-maxListed)
}
