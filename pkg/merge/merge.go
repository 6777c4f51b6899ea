// Package merge joins the tables of an Event-Core dataset.
//
// Joins are one-to-many inner joins on a key column. The key has to be
// unique in the left ("one") table. Records without counterparts are
// excluded from the result, but their keys are kept in the Result, so
// referential gaps can be reported.
package merge

import (
	"maps"
	"slices"

	"github.com/gnames/dwcheck/pkg/recordset"
)

// Join keys of the Event-Core hierarchy.
const (
	EventID      = "eventID"
	OccurrenceID = "occurrenceID"
)

// Result of a join.
type Result struct {
	// Set is the joined table.
	Set *recordset.RecordSet

	// Key is the join column.
	Key string

	// Rows is the number of matched rows, the same as Set.Len().
	Rows int

	// UnmatchedLeft are distinct left keys without right records.
	UnmatchedLeft []string

	// UnmatchedRight are distinct right keys without a left record.
	UnmatchedRight []string

	// NullKeyRows is the number of right records with an absent key.
	NullKeyRows int
}

type options struct {
	suffix string
	name   string
}

// Option changes how Join builds its result.
type Option func(*options)

// OptSuffix sets the suffix added to right columns whose names collide
// with left columns. Default is "_r".
func OptSuffix(s string) Option {
	return func(o *options) {
		if s != "" {
			o.suffix = s
		}
	}
}

// OptName sets the table name of the result. Default is
// "<left>+<right>".
func OptName(s string) Option {
	return func(o *options) {
		if s != "" {
			o.name = s
		}
	}
}

// Join performs a one-to-many inner join of left and right on the key.
//
// The result has left columns followed by right columns without the key.
// Rows follow the order of left records, and for every left record the
// order of its right records. Null keys never match.
func Join(
	left, right *recordset.RecordSet,
	key string,
	opts ...Option,
) (*Result, error) {
	o := options{suffix: "_r", name: left.Name() + "+" + right.Name()}
	for _, opt := range opts {
		opt(&o)
	}

	leftKeys, ok := left.Column(key)
	if !ok {
		return nil, &MissingKeyError{Key: key, Table: left.Name()}
	}
	rightKeys, ok := right.Column(key)
	if !ok {
		return nil, &MissingKeyError{Key: key, Table: right.Name()}
	}

	if dups := duplicates(leftKeys); len(dups) > 0 {
		return nil, &NonUniqueKeyError{
			Key:    key,
			Table:  left.Name(),
			Values: dups,
		}
	}

	res := Result{Key: key}

	// right key -> right record indices, in record order
	byKey := make(map[string][]int)
	for i, v := range rightKeys {
		if v.IsNull() {
			res.NullKeyRows++
			continue
		}
		byKey[v.String()] = append(byKey[v.String()], i)
	}

	columns, rightCols := joinColumns(left.Columns(), right.Columns(), key, o.suffix)

	var rows [][]recordset.Value
	matched := make(map[string]struct{})
	unmatchedLeft := make(map[string]struct{})
	for i, v := range leftKeys {
		if v.IsNull() {
			continue
		}
		k := v.String()
		idx, ok := byKey[k]
		if !ok {
			unmatchedLeft[k] = struct{}{}
			continue
		}
		matched[k] = struct{}{}
		lvals, _ := left.Values(i)
		for _, j := range idx {
			rvals, _ := right.Values(j)
			row := make([]recordset.Value, 0, len(columns))
			row = append(row, lvals...)
			for _, c := range rightCols {
				row = append(row, rvals[c])
			}
			rows = append(rows, row)
		}
	}

	unmatchedRight := make(map[string]struct{})
	for k := range byKey {
		if _, ok := matched[k]; !ok {
			unmatchedRight[k] = struct{}{}
		}
	}
	res.UnmatchedLeft = slices.Sorted(maps.Keys(unmatchedLeft))
	res.UnmatchedRight = slices.Sorted(maps.Keys(unmatchedRight))

	if len(rows) == 0 {
		return nil, &NoOverlapError{
			Key:        key,
			Left:       left.Name(),
			Right:      right.Name(),
			LeftKeys:   distinct(leftKeys),
			RightKeys:  distinct(rightKeys),
			LeftCount:  left.Len(),
			RightCount: right.Len(),
		}
	}

	set, err := recordset.New(o.name, columns, rows)
	if err != nil {
		return nil, err
	}
	res.Set = set
	res.Rows = set.Len()
	return &res, nil
}

// joinColumns returns the result header and the indices of right columns
// that go into the result. Colliding right names get the suffix, repeated
// until the name is unique.
func joinColumns(left, right []string, key, suffix string) ([]string, []int) {
	taken := make(map[string]struct{}, len(left)+len(right))
	for _, v := range left {
		taken[v] = struct{}{}
	}

	res := slices.Clone(left)
	var idx []int
	for i, v := range right {
		if v == key {
			continue
		}
		name := v
		for {
			if _, ok := taken[name]; !ok {
				break
			}
			name += suffix
		}
		taken[name] = struct{}{}
		res = append(res, name)
		idx = append(idx, i)
	}
	return res, idx
}

func duplicates(vals []recordset.Value) []string {
	seen := make(map[string]int)
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		seen[v.String()]++
	}
	var res []string
	for k, v := range seen {
		if v > 1 {
			res = append(res, k)
		}
	}
	slices.Sort(res)
	return res
}

func distinct(vals []recordset.Value) []string {
	seen := make(map[string]struct{})
	for _, v := range vals {
		if !v.IsNull() {
			seen[v.String()] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
