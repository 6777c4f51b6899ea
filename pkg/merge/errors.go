package merge

import (
	"fmt"
	"strings"
)

// MissingKeyError is returned when a join key column is absent
// from one of the tables.
type MissingKeyError struct {
	Key   string
	Table string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("join key %q is missing from table %s", e.Key, e.Table)
}

// NonUniqueKeyError is returned when the "one" side of a one-to-many join
// has repeated key values.
type NonUniqueKeyError struct {
	Key   string
	Table string
	// Values are the duplicated key values, sorted.
	Values []string
}

func (e *NonUniqueKeyError) Error() string {
	return fmt.Sprintf(
		"merge keys are not unique in table %s: %s has duplicated values %s",
		e.Table, e.Key, quoteList(e.Values),
	)
}

// NoOverlapError is returned when no record of the left table matches any
// record of the right table. It usually means the tables are misaligned
// (wrong file, different key spelling), not that some data is missing.
type NoOverlapError struct {
	Key        string
	Left       string
	Right      string
	LeftKeys   []string
	RightKeys  []string
	LeftCount  int
	RightCount int
}

func (e *NoOverlapError) Error() string {
	return fmt.Sprintf(
		"could not merge %s (%d records) with %s (%d records) on %s: "+
			"no shared keys, %s keys %s, %s keys %s",
		e.Left, e.LeftCount, e.Right, e.RightCount, e.Key,
		e.Left, quoteList(e.LeftKeys), e.Right, quoteList(e.RightKeys),
	)
}

const maxQuoted = 10

func quoteList(ss []string) string {
	var parts []string
	for i, v := range ss {
		if i == maxQuoted {
			parts = append(parts, fmt.Sprintf("... (%d more)", len(ss)-maxQuoted))
			break
		}
		parts = append(parts, fmt.Sprintf("%q", v))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
