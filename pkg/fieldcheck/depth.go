package fieldcheck

import (
	"fmt"

	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/dwcheck/pkg/recordset"
)

// DepthConsistency checks minimumDepthInMeters and maximumDepthInMeters.
//
// Without both columns the check cannot run and a Warning is returned.
// Otherwise every column with non-numeric values gets a Warning, and a
// Critical finding lists every record where the minimum depth is greater
// than the maximum depth. Absent values are neither non-numeric nor
// inconsistent, NullCompleteness reports them.
func DepthConsistency(
	rs *recordset.RecordSet,
	_ []string,
) []finding.Finding {
	depthCols := []string{MinimumDepthInMeters, MaximumDepthInMeters}
	if missing := rs.MissingColumns(depthCols); len(missing) > 0 {
		msg := fmt.Sprintf(
			"No depth information found, check skipped: missing columns %v",
			missing,
		)
		f := newFinding(finding.Warning, finding.Depth,
			CheckDepthConsistency, rs, msg).WithColumns(missing)
		return []finding.Finding{f}
	}

	minVals, _ := rs.Column(MinimumDepthInMeters)
	maxVals, _ := rs.Column(MaximumDepthInMeters)

	var res []finding.Finding
	for _, col := range depthCols {
		vals := minVals
		if col == MaximumDepthInMeters {
			vals = maxVals
		}
		if rows := nonNumeric(vals); len(rows) > 0 {
			msg := fmt.Sprintf("Non-numeric values in %s in records %s",
				col, listRows(rows))
			f := newFinding(finding.Warning, finding.Depth,
				CheckDepthConsistency, rs, msg).
				WithColumns([]string{col}).
				WithRows(rows)
			res = append(res, f)
		}
	}

	var rows []int
	for i := range minVals {
		lo, okLo := minVals[i].Float()
		hi, okHi := maxVals[i].Float()
		if okLo && okHi && lo > hi {
			rows = append(rows, i)
		}
	}
	if len(rows) > 0 {
		msg := fmt.Sprintf("%s is greater than %s in records %s",
			MinimumDepthInMeters, MaximumDepthInMeters, listRows(rows))
		f := newFinding(finding.Critical, finding.Depth,
			CheckDepthConsistency, rs, msg).
			WithColumns(depthCols).
			WithRows(rows)
		res = append(res, f)
	}

	if len(res) == 0 {
		f := newFinding(finding.Pass, finding.Depth,
			CheckDepthConsistency, rs, "Passed depth consistency check")
		res = append(res, f)
	}
	return res
}

func nonNumeric(vals []recordset.Value) []int {
	var res []int
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		if _, ok := v.Float(); !ok {
			res = append(res, i)
		}
	}
	return res
}
