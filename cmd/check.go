/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/gnames/dwcheck/internal/iocsv"
	"github.com/gnames/dwcheck/internal/ionamecache"
	"github.com/gnames/dwcheck/internal/ioreport"
	"github.com/gnames/dwcheck/internal/ioworms"
	"github.com/gnames/dwcheck/pkg/config"
	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/dwcheck/pkg/nameparse"
	"github.com/gnames/dwcheck/pkg/pipeline"
	"github.com/gnames/dwcheck/pkg/taxon"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getCheckCmd returns the check command.
func getCheckCmd() *cobra.Command {
	var flags checkFlags

	checkCmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Validate an Event-Core dataset",
		Long: `Validate event, occurrence and extended measurement or fact tables.

Tables are found in the given directory by file name: files starting with
'event', 'occurrence' and 'emof', 'extendedmeasurementorfact' or
'measurementorfact', with .csv, .tsv, .txt or .tab extension.
Flags --event, --occurrence and --emof override found files.
Files with .tsv, .txt or .tab extension are tab-separated.

The report goes to STDOUT. The command fails if any finding is critical.

Examples:
  # Validate tables in the current directory
  dwcheck check

  # Validate tables in a directory, report as JSON
  dwcheck check ~/data/cruise-2021 -f json

  # Validate files with custom names, without name lookups
  dwcheck check -e ev.csv -o occ.csv -m mof.csv -n`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runCheck(cmd, args, &flags)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	flags.register(checkCmd)
	return checkCmd
}

func runCheck(cmd *cobra.Command, args []string, flags *checkFlags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg.Update(flags.options(cmd))

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	files, err := tableFiles(dir, flags)
	if err != nil {
		return err
	}

	ds, err := loadDataset(files)
	if err != nil {
		return err
	}

	parser := nameparse.NewPool(cfg.JobsNumber)
	defer parser.Close()
	popts := []pipeline.Option{pipeline.OptParser(parser)}

	if !cfg.SkipNames {
		resolver, closeCache := newResolver(cfg)
		defer closeCache()
		popts = append(popts, pipeline.OptResolver(resolver))
	}

	rep, err := pipeline.New(cfg, popts...).Run(ctx, ds)
	if err != nil {
		return err
	}

	if err = ioreport.Write(cmd.OutOrStdout(), rep, cfg.Format); err != nil {
		return err
	}

	if rep.Severity == finding.Critical {
		return ValidationFailedError(rep.Count(finding.Critical))
	}
	return nil
}

// tableFiles finds tables in dir, unless all paths are given by flags.
func tableFiles(dir string, flags *checkFlags) (iocsv.Files, error) {
	res := iocsv.Files{
		Event:      flags.event,
		Occurrence: flags.occurrence,
		EMOF:       flags.emof,
	}
	if res.Event != "" && res.Occurrence != "" && res.EMOF != "" {
		return res, nil
	}

	found, err := iocsv.Find(dir)
	if err != nil {
		return res, err
	}
	if res.Event == "" {
		res.Event = found.Event
	}
	if res.Occurrence == "" {
		res.Occurrence = found.Occurrence
	}
	if res.EMOF == "" {
		res.EMOF = found.EMOF
	}
	return res, nil
}

func loadDataset(files iocsv.Files) (pipeline.Dataset, error) {
	var res pipeline.Dataset
	var err error

	if res.Event, err = iocsv.Load(files.Event, pipeline.EventTable); err != nil {
		return res, err
	}
	if res.Occurrence, err = iocsv.Load(
		files.Occurrence, pipeline.OccurrenceTable,
	); err != nil {
		return res, err
	}
	if res.EMOF, err = iocsv.Load(files.EMOF, pipeline.EMOFTable); err != nil {
		return res, err
	}
	return res, nil
}

// newResolver creates a WoRMS resolver with a memory cache, backed by
// the persistent cache if it is enabled. The returned function closes the
// persistent cache and the progress bar.
func newResolver(cfg *config.Config) (*taxon.Resolver, func()) {
	var cache taxon.Cache = taxon.NewCache(cfg.Cache.Size)
	var db *ionamecache.Cache
	if cfg.Cache.Persistent {
		var err error
		db, err = ionamecache.Open(config.NameCachePath(cfg.HomeDir), cache)
		if err != nil {
			slog.Warn("Name cache is not available", "error", err)
			gn.Warn("Cannot open name cache, using memory only")
		} else {
			cache = db
		}
	}

	var bar *pb.ProgressBar
	var finished bool
	progress := func(done, total int) {
		if bar == nil {
			bar = pb.Full.Start(total)
			bar.Set("prefix", "Names: ")
			bar.Set(pb.CleanOnFinish, true)
		}
		bar.SetCurrent(int64(done))
		if done == total {
			bar.Finish()
			finished = true
		}
	}

	res := taxon.NewResolver(
		ioworms.New(cfg.Authority),
		cache,
		taxon.OptRetryPolicy(retryPolicy(cfg.Authority)),
		taxon.OptConcurrency(cfg.JobsNumber),
		taxon.OptProgress(progress),
	)

	closeFn := func() {
		if bar != nil && !finished {
			bar.Finish()
		}
		if db != nil {
			if err := db.Close(); err != nil {
				slog.Warn("Cannot close name cache", "error", err)
			}
		}
	}
	return res, closeFn
}

func retryPolicy(cfg config.AuthorityConfig) taxon.RetryPolicy {
	res := taxon.DefaultRetryPolicy()
	res.MaxAttempts = cfg.MaxAttempts
	res.BaseDelay = time.Duration(cfg.BackoffMs) * time.Millisecond
	res.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
	return res
}
