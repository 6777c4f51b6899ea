// Package iocsv reads tables of an Event-Core dataset from CSV or TSV files.
package iocsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/gnames/dwcheck/pkg/recordset"
	"github.com/gnames/gn"
	"github.com/gnames/gnlib"
)

const bom = "\uFEFF"

// naValues are cell values treated as absent.
var naValues = map[string]struct{}{
	"":          {},
	"#N/A":      {},
	"#N/A N/A":  {},
	"#NA":       {},
	"-1.#IND":   {},
	"-1.#QNAN":  {},
	"-NaN":      {},
	"-nan":      {},
	"1.#IND":    {},
	"1.#QNAN":   {},
	"<NA>":      {},
	"N/A":       {},
	"NA":        {},
	"NULL":      {},
	"NaN":       {},
	"None":      {},
	"n/a":       {},
	"nan":       {},
	"null":      {},
}

// Load reads a table from a file. Files with .tsv or .txt extension are
// tab-separated, all others comma-separated.
func Load(path, table string) (*recordset.RecordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ReadFileError(path, err)
	}

	rs, err := Read(strings.NewReader(string(data)), table, Delimiter(path))
	if err != nil {
		var gnErr *gn.Error
		if errors.As(err, &gnErr) {
			return nil, err
		}
		return nil, ParseFileError(path, err)
	}

	slog.Info("Loaded table",
		"table", table,
		"path", path,
		"records", humanize.Comma(int64(rs.Len())),
	)
	return rs, nil
}

// Delimiter returns the field delimiter for a file name.
func Delimiter(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt", ".tab":
		return '\t'
	default:
		return ','
	}
}

// Read reads a table from r. Invalid UTF-8 is repaired, the byte order mark
// is dropped, column names are cleaned with CleanName, NA-like values become
// Null and blank rows are skipped.
func Read(r io.Reader, table string, delim rune) (*recordset.RecordSet, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := gnlib.FixUtf8(string(raw))
	text = strings.TrimPrefix(text, bom)

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, HeaderError(table, "file is empty")
	}

	header, err := cleanHeader(table, records[0])
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for i, row := range records[1:] {
		if isEmptyRow(row) {
			continue
		}
		if len(row) > len(header) {
			return nil, fmt.Errorf(
				"line %d has %d fields, header has %d",
				i+2, len(row), len(header),
			)
		}
		for j, v := range row {
			if _, ok := naValues[strings.TrimSpace(v)]; ok {
				row[j] = ""
			}
		}
		rows = append(rows, row)
	}

	return recordset.FromStrings(table, header, rows)
}

func cleanHeader(table string, row []string) ([]string, error) {
	res := make([]string, len(row))
	seen := make(map[string]int, len(row))
	for i, v := range row {
		name := CleanName(v)
		if name == "" {
			return nil, HeaderError(table,
				fmt.Sprintf("column %d has no name", i+1))
		}
		if j, ok := seen[name]; ok {
			return nil, HeaderError(table,
				fmt.Sprintf("columns %d and %d are both %q", j+1, i+1, name))
		}
		seen[name] = i
		res[i] = name
	}
	return res, nil
}

// CleanName normalizes a column name. Separators become underscores,
// quotes and other special characters are removed, repeated underscores
// are collapsed and leading or trailing underscores are stripped.
// The letter case is preserved.
func CleanName(s string) string {
	var sb strings.Builder
	var underscore bool
	for _, r := range strings.TrimPrefix(s, bom) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			underscore = false
		case r == '_' || unicode.IsSpace(r) || strings.ContainsRune("/:,?().-", r):
			if !underscore {
				sb.WriteRune('_')
				underscore = true
			}
		}
	}
	return strings.Trim(sb.String(), "_")
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Files are paths to the three tables of an Event-Core dataset.
type Files struct {
	Event      string
	Occurrence string
	EMOF       string
}

var prefixes = map[string][]string{
	"event":      {"event"},
	"occurrence": {"occurrence"},
	"emof": {
		"emof",
		"extendedmeasurementorfact",
		"measurementorfact",
	},
}

var extensions = []string{".csv", ".tsv", ".txt", ".tab"}

// Find looks for the tables of a dataset in dir. A file belongs to a table
// if its lowercase name starts with one of the table prefixes and has a
// known extension. If several files match, the first in lexical order wins.
func Find(dir string) (Files, error) {
	var res Files
	entries, err := os.ReadDir(dir)
	if err != nil {
		return res, ReadFileError(dir, err)
	}

	// entries are sorted by file name
	found := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		table := tableOf(e.Name())
		if table == "" {
			continue
		}
		if _, ok := found[table]; !ok {
			found[table] = filepath.Join(dir, e.Name())
		}
	}

	for _, table := range []string{"event", "occurrence", "emof"} {
		if _, ok := found[table]; !ok {
			return res, TableNotFoundError(dir, table)
		}
	}
	res.Event = found["event"]
	res.Occurrence = found["occurrence"]
	res.EMOF = found["emof"]
	return res, nil
}

func tableOf(file string) string {
	name := strings.ToLower(file)
	ext := filepath.Ext(name)
	if !slices.Contains(extensions, ext) {
		return ""
	}
	base := strings.TrimSuffix(name, ext)
	for _, table := range []string{"emof", "occurrence", "event"} {
		for _, p := range prefixes[table] {
			if strings.HasPrefix(base, p) {
				return table
			}
		}
	}
	return ""
}
