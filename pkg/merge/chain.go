package merge

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/dwcheck/pkg/recordset"
)

// CheckReconcile is the name of the row count reconciliation check.
const CheckReconcile = "row_count_reconciliation"

// Chain joins the whole Event-Core hierarchy:
// Join(Join(event, occurrence, eventID), emof, occurrenceID).
//
// It returns the event-occurrence result, and the final result if the first
// join succeeded. The error is the first join error.
func Chain(
	event, occurrence, emof *recordset.RecordSet,
) (*Result, *Result, error) {
	eventOcc, err := Join(event, occurrence, EventID,
		OptSuffix("_occurrence"),
		OptName("event+occurrence"),
	)
	if err != nil {
		return nil, nil, err
	}

	final, err := Join(eventOcc.Set, emof, OccurrenceID,
		OptSuffix("_emof"),
		OptName("event+occurrence+emof"),
	)
	if err != nil {
		return eventOcc, nil, err
	}
	return eventOcc, final, nil
}

// Reconcile compares the number of rows of the fully merged table with
// the number of emof records. Every emof record must have exactly one
// occurrence and event ancestor, so the numbers must be equal.
func Reconcile(final *Result, emof *recordset.RecordSet) finding.Finding {
	got, want := final.Rows, emof.Len()
	if got == want {
		msg := fmt.Sprintf(
			"Merge tables passed: %s merged rows match %s emof records",
			humanize.Comma(int64(got)), humanize.Comma(int64(want)),
		)
		return finding.New(finding.Pass, finding.Referential,
			CheckReconcile, final.Set.Name(), msg)
	}

	msg := fmt.Sprintf(
		"Merged table has %s rows, but emof has %s records: "+
			"some emof records lack an occurrence or event, "+
			"or keys are duplicated",
		humanize.Comma(int64(got)), humanize.Comma(int64(want)),
	)
	return finding.New(finding.Critical, finding.Referential,
		CheckReconcile, final.Set.Name(), msg)
}
