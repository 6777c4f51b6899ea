package nameparse

import (
	"fmt"
	"strings"

	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/gnlib/ent/nomcode"
)

// CheckName is the name of the well-formedness check.
const CheckName = "name_wellformedness"

// maxListed limits names quoted in one message.
const maxListed = 10

// NameCode is a scientific name with its nomenclatural code.
type NameCode struct {
	Name string
	Code nomcode.Code
}

// Check parses names and reports the ones gnparser cannot parse, or parses
// with a quality worse than 1. It returns a Pass finding if every name is
// well-formed.
func Check(p Pool, table string, names []NameCode) []finding.Finding {
	var unparsed, doubtful []string
	for _, v := range names {
		prs, err := p.Parse(v.Name, v.Code)
		if err != nil || !prs.Parsed {
			unparsed = append(unparsed, v.Name)
			continue
		}
		if prs.ParseQuality > 1 {
			var ws []string
			for _, w := range prs.QualityWarnings {
				ws = append(ws, fmt.Sprint(w.Warning))
			}
			doubtful = append(doubtful,
				fmt.Sprintf("%q (%s)", v.Name, strings.Join(ws, "; ")))
		}
	}

	if len(unparsed) == 0 && len(doubtful) == 0 {
		msg := fmt.Sprintf("Passed name well-formedness: %d names", len(names))
		return []finding.Finding{
			finding.New(finding.Pass, finding.Taxonomic, CheckName, table, msg),
		}
	}

	var res []finding.Finding
	if len(unparsed) > 0 {
		quoted := make([]string, len(unparsed))
		for i, v := range unparsed {
			quoted[i] = fmt.Sprintf("%q", v)
		}
		msg := fmt.Sprintf("%d names cannot be parsed: %s",
			len(unparsed), list(quoted))
		f := finding.New(finding.Warning, finding.Taxonomic, CheckName, table, msg)
		res = append(res, f.WithColumns([]string{"scientificName"}))
	}
	if len(doubtful) > 0 {
		msg := fmt.Sprintf("%d names have doubtful formatting: %s",
			len(doubtful), list(doubtful))
		f := finding.New(finding.Warning, finding.Taxonomic, CheckName, table, msg)
		res = append(res, f.WithColumns([]string{"scientificName"}))
	}
	return res
}

func list(ss []string) string {
	if len(ss) <= maxListed {
		return strings.Join(ss, ", ")
	}
	return strings.Join(ss[:maxListed], ", ") +
		fmt.Sprintf(" and %d more", len(ss)-maxListed)
}
