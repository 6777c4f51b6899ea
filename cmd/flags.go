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
	"github.com/gnames/dwcheck/pkg/config"
	"github.com/spf13/cobra"
)

// checkFlags keeps values of the check command flags.
type checkFlags struct {
	event      string
	occurrence string
	emof       string
	format     string
	skipNames  bool
	jobs       int
}

func (f *checkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(
		&f.event, "event", "e", "",
		"path to the event table",
	)
	cmd.Flags().StringVarP(
		&f.occurrence, "occurrence", "o", "",
		"path to the occurrence table",
	)
	cmd.Flags().StringVarP(
		&f.emof, "emof", "m", "",
		"path to the extended measurement or fact table",
	)
	cmd.Flags().StringVarP(
		&f.format, "format", "f", "text",
		"report format: text, json or yaml",
	)
	cmd.Flags().BoolVarP(
		&f.skipNames, "skip-names", "n", false,
		"do not look up scientific names in WoRMS",
	)
	cmd.Flags().IntVarP(
		&f.jobs, "jobs", "j", 0,
		"number of names resolved concurrently",
	)
}

// options converts explicitly set flags to config options.
func (f *checkFlags) options(cmd *cobra.Command) []config.Option {
	var res []config.Option
	if cmd.Flags().Changed("format") {
		res = append(res, config.OptFormat(f.format))
	}
	if cmd.Flags().Changed("skip-names") {
		res = append(res, config.OptSkipNames(f.skipNames))
	}
	if cmd.Flags().Changed("jobs") {
		res = append(res, config.OptJobsNumber(f.jobs))
	}
	return res
}
