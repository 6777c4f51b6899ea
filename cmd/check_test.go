package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/dwcheck/pkg/errcode"
	"github.com/gnames/dwcheck/pkg/finding"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	eventCSV = `eventID,eventDate,decimalLatitude,decimalLongitude,countryCode,geodeticDatum
E1,2020-05-01,41.5,-70.6,US,EPSG:4326
E2,2020-05-02,42.1,-70.2,US,EPSG:4326
`
	occurrenceCSV = `occurrenceID,eventID,scientificName,eventDate,decimalLatitude,decimalLongitude,basisOfRecord,occurrenceStatus
O1,E1,Gadus morhua,2020-05-01,41.5,-70.6,HumanObservation,present
O2,E2,Abra alba,2020-05-02,42.1,-70.2,HumanObservation,present
`
	emofTSV = "eventID\toccurrenceID\tmeasurementValue\tmeasurementType\tmeasurementUnit\n" +
		"E1\tO1\t35\tlength\tcm\n" +
		"E2\tO2\t2\tlength\tcm\n"
)

func writeDataset(t *testing.T, occurrence string) string {
	dir := t.TempDir()
	files := map[string]string{
		"event.csv":                     eventCSV,
		"occurrence.csv":                occurrence,
		"extendedMeasurementOrFact.txt": emofTSV,
	}
	for k, v := range files {
		err := os.WriteFile(filepath.Join(dir, k), []byte(v), 0644)
		require.NoError(t, err)
	}
	return dir
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Setenv("HOME", t.TempDir())
	cmd := getRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// TestGetCheckCmd_Flags verifies flags of the check command.
func TestGetCheckCmd_Flags(t *testing.T) {
	cmd := getCheckCmd()
	assert.Equal(t, "check [dir]", cmd.Use)
	assert.NotNil(t, cmd.RunE)

	tests := []struct {
		name, short string
	}{
		{"event", "e"},
		{"occurrence", "o"},
		{"emof", "m"},
		{"format", "f"},
		{"skip-names", "n"},
		{"jobs", "j"},
	}
	for _, v := range tests {
		flag := cmd.Flags().Lookup(v.name)
		require.NotNil(t, flag, v.name)
		assert.Equal(t, v.short, flag.Shorthand, v.name)
	}
}

// TestCheck_Pass validates a good dataset found in a directory.
func TestCheck_Pass(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem test")
	}
	dir := writeDataset(t, occurrenceCSV)

	out, err := runCmd(t, "check", dir, "-n", "-f", "json")
	require.NoError(t, err)

	var rep finding.Report
	require.NoError(t, gnfmt.GNjson{}.Decode([]byte(out), &rep))
	assert.Equal(t, 2, rep.Tables["event"])
	assert.Equal(t, 2, rep.Tables["occurrence"])
	assert.Equal(t, 2, rep.Tables["emof"])
	assert.Equal(t, 2, rep.MergedRows)
	assert.Equal(t, 0, rep.Count(finding.Critical))
	assert.Equal(t, finding.Reported, rep.Stage())
}

// TestCheck_Critical returns ValidationFailedError for critical findings.
func TestCheck_Critical(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem test")
	}
	occ := `occurrenceID,eventID,scientificName,eventDate,decimalLatitude,decimalLongitude,basisOfRecord,occurrenceStatus
O1,E1,Gadus morhua,2020-05-01,95,-70.6,HumanObservation,present
O2,E2,Abra alba,2020-05-02,42.1,-70.2,HumanObservation,present
`
	dir := writeDataset(t, occ)

	out, err := runCmd(t, "check", dir, "--skip-names")
	require.Error(t, err)
	var gnErr *gn.Error
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, errcode.ValidationFailedError, gnErr.Code)
	assert.Contains(t, out, "❌ [geographic] occurrence")
	assert.Contains(t, out, "Result: ❌ CRITICAL")
}

// TestCheck_FileFlags overrides found tables with flags.
func TestCheck_FileFlags(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem test")
	}
	dir := writeDataset(t, occurrenceCSV)
	other := t.TempDir()
	occ := filepath.Join(other, "occ.csv")
	require.NoError(t, os.WriteFile(occ, []byte(occurrenceCSV), 0644))

	out, err := runCmd(t,
		"check", "-n", "-f", "yaml",
		"-e", filepath.Join(dir, "event.csv"),
		"-o", occ,
		"-m", filepath.Join(dir, "extendedMeasurementOrFact.txt"),
	)
	require.NoError(t, err)
	assert.Contains(t, out, "runId:")
	assert.Contains(t, out, "mergedRows: 2")
}

// TestCheck_MissingTable fails when a table cannot be found.
func TestCheck_MissingTable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem test")
	}
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "event.csv"), []byte(eventCSV), 0644)
	require.NoError(t, err)

	_, err = runCmd(t, "check", dir, "-n")
	var gnErr *gn.Error
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, errcode.InputTableMissingError, gnErr.Code)
}
