package fieldcheck

import (
	"fmt"

	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/dwcheck/pkg/recordset"
)

// CoordinateBounds checks decimalLatitude and decimalLongitude
// independently and returns one finding per column. A column is Critical
// if it is absent, or if any value is not numeric, or lies on or beyond
// the poles (±90) or the antimeridian (±180). Bounds are exclusive.
func CoordinateBounds(
	rs *recordset.RecordSet,
	_ []string,
) []finding.Finding {
	return []finding.Finding{
		checkBounds(rs, DecimalLatitude, 90),
		checkBounds(rs, DecimalLongitude, 180),
	}
}

func checkBounds(
	rs *recordset.RecordSet,
	col string,
	limit float64,
) finding.Finding {
	vals, ok := rs.Column(col)
	if !ok {
		msg := fmt.Sprintf("Cannot find %s column", col)
		return newFinding(finding.Critical, finding.Geographic,
			CheckCoordinateBounds, rs, msg).WithColumns([]string{col})
	}

	var rows []int
	for i, v := range vals {
		if !inBounds(v, limit) {
			rows = append(rows, i)
		}
	}

	if len(rows) == 0 {
		msg := fmt.Sprintf("Passed %s bounds", col)
		return newFinding(finding.Pass, finding.Geographic,
			CheckCoordinateBounds, rs, msg)
	}

	msg := fmt.Sprintf(
		"Invalid %s values (non-numeric or outside (-%v, %v)) in records %s",
		col, limit, limit, listRows(rows),
	)
	return newFinding(finding.Critical, finding.Geographic,
		CheckCoordinateBounds, rs, msg).
		WithColumns([]string{col}).
		WithRows(rows)
}

func inBounds(v recordset.Value, limit float64) bool {
	f, ok := v.Float()
	if !ok {
		return false
	}
	return f > -limit && f < limit
}
