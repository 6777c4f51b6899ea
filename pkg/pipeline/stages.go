package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gnames/dwcheck/pkg/fieldcheck"
	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/dwcheck/pkg/merge"
	"github.com/gnames/dwcheck/pkg/nameparse"
	"github.com/gnames/dwcheck/pkg/recordset"
	"github.com/gnames/dwcheck/pkg/taxon"
	"github.com/gnames/gnlib/ent/nomcode"
)

// Darwin Core terms used by the pipeline.
const (
	ScientificName    = "scientificName"
	NomenclaturalCode = "nomenclaturalCode"
)

// Names of checks done by the pipeline itself.
const (
	CheckMergeTables    = "merge_tables"
	CheckOrphanRecords  = "orphan_records"
	CheckEventAgreement = "emof_event_agreement"
)

// maxListed limits how many keys are quoted in a message.
const maxListed = 10

func (r *run) structural() {
	r.enter(finding.StructuralChecked)
	for _, v := range r.tables() {
		r.add(fieldcheck.RequiredColumns(v.rs, v.required)...)
	}
}

func (r *run) completeness() {
	r.enter(finding.CompletenessChecked)
	for _, v := range r.tables() {
		r.add(fieldcheck.NullCompleteness(v.rs, v.required)...)
	}
}

// geographic checks coordinates of events and occurrences, emof records
// have no coordinates.
func (r *run) geographic() {
	r.enter(finding.GeographicChecked)
	r.add(fieldcheck.CoordinateBounds(r.ds.Event, nil)...)
	r.add(fieldcheck.CoordinateBounds(r.ds.Occurrence, nil)...)
}

// depth checks the event table, and the occurrence table only if it
// carries depth columns.
func (r *run) depth() {
	r.enter(finding.DepthChecked)
	r.add(fieldcheck.DepthConsistency(r.ds.Event, nil)...)

	occ := r.ds.Occurrence
	if occ.HasColumn(fieldcheck.MinimumDepthInMeters) ||
		occ.HasColumn(fieldcheck.MaximumDepthInMeters) {
		r.add(fieldcheck.DepthConsistency(occ, nil)...)
	}
}

func (r *run) mergeTables() {
	r.enter(finding.Merged)

	var missing []string
	keys := []struct {
		rs  *recordset.RecordSet
		key string
	}{
		{r.ds.Event, merge.EventID},
		{r.ds.Occurrence, merge.EventID},
		{r.ds.Occurrence, merge.OccurrenceID},
		{r.ds.EMOF, merge.OccurrenceID},
	}
	for _, v := range keys {
		if !v.rs.HasColumn(v.key) {
			missing = append(missing, v.rs.Name()+"."+v.key)
		}
	}
	if len(missing) > 0 {
		msg := fmt.Sprintf(
			"Merge tables check skipped: missing columns %s",
			strings.Join(missing, ", "),
		)
		f := finding.New(finding.Warning, finding.Referential,
			CheckMergeTables, "", msg)
		r.add(f.WithColumns(missing))
		return
	}

	eventOcc, final, err := merge.Chain(r.ds.Event, r.ds.Occurrence, r.ds.EMOF)
	if eventOcc != nil {
		r.orphans(eventOcc, r.ds.Occurrence, r.ds.Event)
	}
	if err != nil {
		slog.Warn("Cannot merge tables", "error", err)
		r.add(r.mergeErrorFinding(err))
		return
	}
	r.orphans(final, r.ds.EMOF, r.ds.Occurrence)
	r.eventAgreement(final)

	r.rep.MergedRows = final.Rows
	slog.Info("Tables merged", "rows", final.Rows)
	r.add(merge.Reconcile(final, r.ds.EMOF))
}

// mergeErrorFinding converts a merge error to a critical finding. Duplicated
// keys are reported against the dataset table that defines the key, even if
// the join failed on an intermediate merged table.
func (r *run) mergeErrorFinding(err error) finding.Finding {
	var table string
	var nuErr *merge.NonUniqueKeyError
	var noErr *merge.NoOverlapError
	var mkErr *merge.MissingKeyError
	msg := "Merge tables failed: " + err.Error()
	switch {
	case errors.As(err, &nuErr):
		owner := r.keyOwner(nuErr.Key)
		rows := keyRows(owner, nuErr.Key, nuErr.Values)
		f := finding.New(finding.Critical, finding.Referential,
			CheckMergeTables, owner.Name(), msg)
		return f.WithColumns([]string{nuErr.Key}).WithRows(rows)
	case errors.As(err, &noErr):
		table = noErr.Right
	case errors.As(err, &mkErr):
		table = mkErr.Table
	}
	return finding.New(finding.Critical, finding.Referential,
		CheckMergeTables, table, msg)
}

// keyOwner returns the table where values of a join key identify records.
func (r *run) keyOwner(key string) *recordset.RecordSet {
	if key == merge.OccurrenceID {
		return r.ds.Occurrence
	}
	return r.ds.Event
}

// orphans reports child records whose key has no parent record. Keys that
// exist in the parent table, but were dropped by an earlier join, are
// reported separately. Parents without children are only logged.
func (r *run) orphans(
	res *merge.Result,
	child, parent *recordset.RecordSet,
) {
	if len(res.UnmatchedLeft) > 0 {
		slog.Info("Records without children",
			"key", res.Key,
			"count", len(res.UnmatchedLeft),
		)
	}

	if res.NullKeyRows > 0 {
		msg := fmt.Sprintf("%d records have no %s and cannot be linked to %s",
			res.NullKeyRows, res.Key, parent.Name())
		f := finding.New(finding.Warning, finding.Referential,
			CheckOrphanRecords, child.Name(), msg)
		r.add(f.WithColumns([]string{res.Key}))
	}

	if len(res.UnmatchedRight) == 0 {
		return
	}

	known := make(map[string]struct{})
	if vals, ok := parent.Column(res.Key); ok {
		for _, v := range vals {
			if !v.IsNull() {
				known[v.String()] = struct{}{}
			}
		}
	}
	var missing, unlinked []string
	for _, v := range res.UnmatchedRight {
		if _, ok := known[v]; ok {
			unlinked = append(unlinked, v)
			continue
		}
		missing = append(missing, v)
	}

	if len(missing) > 0 {
		rows := keyRows(child, res.Key, missing)
		msg := fmt.Sprintf("%d records reference %d %s values missing from %s: %s",
			len(rows), len(missing), res.Key, parent.Name(), quoteList(missing))
		f := finding.New(finding.Warning, finding.Referential,
			CheckOrphanRecords, child.Name(), msg)
		r.add(f.WithColumns([]string{res.Key}).WithRows(rows))
	}

	if len(unlinked) > 0 {
		rows := keyRows(child, res.Key, unlinked)
		msg := fmt.Sprintf(
			"%d records reference %d %s values of %s records "+
				"not linked to any event: %s",
			len(rows), len(unlinked), res.Key, parent.Name(), quoteList(unlinked))
		f := finding.New(finding.Warning, finding.Referential,
			CheckOrphanRecords, child.Name(), msg)
		r.add(f.WithColumns([]string{res.Key}).WithRows(rows))
	}
}

// keyRows returns indices of records with a key among the values.
func keyRows(rs *recordset.RecordSet, key string, values []string) []int {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	vals, _ := rs.Column(key)
	var res []int
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		if _, ok := set[v.String()]; ok {
			res = append(res, i)
		}
	}
	return res
}

// eventAgreement compares eventID of emof records with eventID of their
// occurrences. Rows of the finding refer to the merged table.
func (r *run) eventAgreement(final *merge.Result) {
	emofEvent := merge.EventID + "_emof"
	parent, ok := final.Set.Column(merge.EventID)
	if !ok {
		return
	}
	child, ok := final.Set.Column(emofEvent)
	if !ok {
		return
	}

	var rows []int
	for i := range parent {
		if parent[i].IsNull() || child[i].IsNull() {
			continue
		}
		if parent[i].String() != child[i].String() {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return
	}
	msg := fmt.Sprintf(
		"%d emof records have eventID different from eventID of their occurrence",
		len(rows),
	)
	f := finding.New(finding.Warning, finding.Referential,
		CheckEventAgreement, final.Set.Name(), msg)
	r.add(f.WithColumns([]string{merge.EventID, emofEvent}).WithRows(rows))
}

// taxonomic resolves distinct scientific names of the occurrence table.
func (r *run) taxonomic(ctx context.Context) {
	r.enter(finding.TaxonomicChecked)
	occ := r.ds.Occurrence

	if !occ.HasColumn(ScientificName) {
		msg := fmt.Sprintf(
			"Taxonomic check skipped: missing columns [%s]", ScientificName)
		f := finding.New(finding.Warning, finding.Taxonomic,
			taxon.CheckName, occ.Name(), msg)
		r.add(f.WithColumns([]string{ScientificName}))
		return
	}

	names, rows, codes := distinctNames(occ)
	if len(names) == 0 {
		msg := "Taxonomic check skipped: no scientific names"
		r.add(finding.New(finding.Warning, finding.Taxonomic,
			taxon.CheckName, occ.Name(), msg))
		return
	}

	if r.parser != nil {
		ncs := make([]nameparse.NameCode, len(names))
		for i, v := range names {
			ncs[i] = nameparse.NameCode{Name: v, Code: codes[v]}
		}
		r.add(nameparse.Check(r.parser, occ.Name(), ncs)...)
	}

	if r.resolver == nil {
		msg := fmt.Sprintf(
			"Taxonomic lookup skipped for %d names", len(names))
		r.add(finding.New(finding.Warning, finding.Taxonomic,
			taxon.CheckName, occ.Name(), msg))
		return
	}

	tns := r.resolver.ResolveAll(ctx, names)
	var accepted int
	for _, v := range tns {
		r.rep.Names = append(r.rep.Names, v.Summary())
		if v.Status == taxon.Accepted {
			accepted++
			continue
		}
		r.add(v.Finding(occ.Name()).
			WithColumns([]string{ScientificName}).
			WithRows(rows[v.Name]))
	}

	msg := fmt.Sprintf("Taxonomic check: %d of %d names accepted",
		accepted, len(tns))
	r.add(finding.New(finding.Pass, finding.Taxonomic,
		taxon.CheckName, occ.Name(), msg))
}

// distinctNames returns names in the order of their first appearance,
// records of every name, and the nomenclatural code of the first record
// of every name.
func distinctNames(
	occ *recordset.RecordSet,
) ([]string, map[string][]int, map[string]nomcode.Code) {
	vals, _ := occ.Column(ScientificName)
	codeVals, hasCodes := occ.Column(NomenclaturalCode)

	var names []string
	rows := make(map[string][]int)
	codes := make(map[string]nomcode.Code)
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		name := v.String()
		if _, ok := rows[name]; !ok {
			names = append(names, name)
			var code string
			if hasCodes {
				code = codeVals[i].String()
			}
			codes[name] = nameparse.Code(code)
		}
		rows[name] = append(rows[name], i)
	}
	return names, rows, codes
}

func quoteList(ss []string) string {
	var parts []string
	for i, v := range ss {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("... (%d more)", len(ss)-maxListed))
			break
		}
		parts = append(parts, fmt.Sprintf("%q", v))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
