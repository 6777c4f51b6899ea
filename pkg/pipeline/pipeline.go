// Package pipeline runs all checks of an Event-Core dataset in order and
// collects their findings into a report.
//
// The run goes through fixed stages. A stage never stops the run: checks
// that cannot proceed report a Warning and the next stage starts.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/gnames/dwcheck/pkg/config"
	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/dwcheck/pkg/nameparse"
	"github.com/gnames/dwcheck/pkg/recordset"
	"github.com/gnames/dwcheck/pkg/taxon"
	"github.com/google/uuid"
)

// Table names of the dataset.
const (
	EventTable      = "event"
	OccurrenceTable = "occurrence"
	EMOFTable       = "emof"
)

// Dataset contains the three linked tables of an Event-Core dataset.
type Dataset struct {
	Event      *recordset.RecordSet
	Occurrence *recordset.RecordSet
	EMOF       *recordset.RecordSet
}

// NameResolver resolves distinct scientific names. It never fails,
// unreachable authority is reported as LookupFailed outcome.
type NameResolver interface {
	ResolveAll(ctx context.Context, names []string) []taxon.TaxonName
}

// Pipeline validates datasets.
type Pipeline struct {
	cfg      *config.Config
	resolver NameResolver
	parser   nameparse.Pool
}

// Option configures collaborators of the Pipeline.
type Option func(*Pipeline)

// OptResolver sets the name resolver. Without it taxonomic lookups are
// skipped.
func OptResolver(r NameResolver) Option {
	return func(p *Pipeline) {
		p.resolver = r
	}
}

// OptParser sets the name parser for the name well-formedness check.
func OptParser(np nameparse.Pool) Option {
	return func(p *Pipeline) {
		p.parser = np
	}
}

// New creates a Pipeline.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.New()
	}
	res := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Run validates the dataset. It returns an error only if one of the tables
// is not loaded, every problem of the data is a finding in the report.
func (p *Pipeline) Run(ctx context.Context, ds Dataset) (*finding.Report, error) {
	tables := []struct {
		name string
		rs   *recordset.RecordSet
	}{
		{EventTable, ds.Event},
		{OccurrenceTable, ds.Occurrence},
		{EMOFTable, ds.EMOF},
	}
	for _, v := range tables {
		if v.rs == nil {
			return nil, TableMissingError(v.name)
		}
	}

	start := time.Now()
	r := run{
		Pipeline: p,
		ds:       ds,
		rep:      finding.NewReport(uuid.New().String()),
	}
	slog.Info("Starting validation", "run-id", r.rep.RunID)

	r.ingest()
	r.structural()
	r.completeness()
	r.geographic()
	r.depth()
	r.mergeTables()
	r.taxonomic(ctx)

	r.rep.Enter(finding.Reported)
	r.rep.Duration = time.Since(start)
	slog.Info("Validation finished",
		"run-id", r.rep.RunID,
		"severity", r.rep.Severity,
		"critical", r.rep.Count(finding.Critical),
		"warnings", r.rep.Count(finding.Warning),
		"duration", r.rep.Duration.Round(time.Millisecond),
	)
	return r.rep, nil
}

// run keeps the state of one Run call.
type run struct {
	*Pipeline
	ds  Dataset
	rep *finding.Report
}

func (r *run) enter(s finding.Stage) {
	r.rep.Enter(s)
	slog.Debug("Entering stage", "run-id", r.rep.RunID, "stage", s)
}

func (r *run) add(ff ...finding.Finding) {
	r.rep.Add(ff...)
}

type table struct {
	rs       *recordset.RecordSet
	required []string
}

func (r *run) tables() []table {
	return []table{
		{r.ds.Event, r.cfg.Tables.Event.RequiredColumns},
		{r.ds.Occurrence, r.cfg.Tables.Occurrence.RequiredColumns},
		{r.ds.EMOF, r.cfg.Tables.EMOF.RequiredColumns},
	}
}

func (r *run) ingest() {
	r.enter(finding.Ingested)
	for _, v := range r.tables() {
		r.rep.Tables[v.rs.Name()] = v.rs.Len()
		slog.Info("Table ingested",
			"table", v.rs.Name(),
			"records", v.rs.Len(),
			"columns", len(v.rs.Columns()),
		)
	}
}
