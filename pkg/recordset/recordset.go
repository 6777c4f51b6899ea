// Package recordset provides an in-memory representation of one table of
// a Darwin Core Event-Core dataset (event, occurrence or
// extended-measurement-or-fact).
//
// A RecordSet is created once and never changes afterwards. Every record
// shares the same set of columns. Operations that combine tables, such as
// joins, create new RecordSets.
package recordset

import (
	"fmt"
	"slices"
	"strings"
)

// RecordSet is an ordered sequence of records with a fixed column set.
type RecordSet struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates a RecordSet. The name is the table name used in reports.
// Column names must be unique and not empty, every row must have
// exactly one value per column. The input slices are copied.
func New(name string, columns []string, rows [][]Value) (*RecordSet, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("table %s: column %d has empty name", name, i+1)
		}
		if _, ok := index[col]; ok {
			return nil, fmt.Errorf("table %s: duplicate column %q", name, col)
		}
		index[col] = i
	}

	data := make([][]Value, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf(
				"table %s: record %d has %d values, expected %d",
				name, i, len(row), len(columns),
			)
		}
		data[i] = slices.Clone(row)
	}

	res := RecordSet{
		name:    name,
		columns: slices.Clone(columns),
		index:   index,
		rows:    data,
	}
	return &res, nil
}

// FromStrings creates a RecordSet from text cells, converting every cell
// with Parse. Short rows are padded with Null values, rows longer than
// the header are rejected.
func FromStrings(name string, header []string, rows [][]string) (*RecordSet, error) {
	data := make([][]Value, len(rows))
	for i, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf(
				"table %s: record %d has %d values, header has %d columns",
				name, i, len(row), len(header),
			)
		}
		vals := make([]Value, len(header))
		for j, cell := range row {
			vals[j] = Parse(cell)
		}
		data[i] = vals
	}
	return New(name, header, data)
}

// Name returns the table name.
func (rs *RecordSet) Name() string {
	return rs.name
}

// Columns returns a copy of the ordered column names.
func (rs *RecordSet) Columns() []string {
	return slices.Clone(rs.columns)
}

// HasColumn returns true if the table contains the column.
func (rs *RecordSet) HasColumn(col string) bool {
	_, ok := rs.index[col]
	return ok
}

// MissingColumns returns the required columns absent from the table,
// in the order they were given.
func (rs *RecordSet) MissingColumns(required []string) []string {
	var res []string
	for _, v := range required {
		if !rs.HasColumn(v) {
			res = append(res, v)
		}
	}
	return res
}

// Len returns the number of records.
func (rs *RecordSet) Len() int {
	return len(rs.rows)
}

// Value returns the value of a column in the given record. The second
// result is false if the record or the column does not exist.
func (rs *RecordSet) Value(row int, col string) (Value, bool) {
	i, ok := rs.index[col]
	if !ok || row < 0 || row >= len(rs.rows) {
		return Value{}, false
	}
	return rs.rows[row][i], true
}

// Column returns a copy of all values of a column.
func (rs *RecordSet) Column(col string) ([]Value, bool) {
	i, ok := rs.index[col]
	if !ok {
		return nil, false
	}
	res := make([]Value, len(rs.rows))
	for j, row := range rs.rows {
		res[j] = row[i]
	}
	return res, true
}

// Row returns a record as a map from column name to value.
func (rs *RecordSet) Row(i int) (map[string]Value, bool) {
	if i < 0 || i >= len(rs.rows) {
		return nil, false
	}
	res := make(map[string]Value, len(rs.columns))
	for j, col := range rs.columns {
		res[col] = rs.rows[i][j]
	}
	return res, true
}

// Values returns a copy of the values of a record in column order.
func (rs *RecordSet) Values(i int) ([]Value, bool) {
	if i < 0 || i >= len(rs.rows) {
		return nil, false
	}
	return slices.Clone(rs.rows[i]), true
}
