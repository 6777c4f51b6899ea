package cmd

import (
	"bytes"
	"testing"

	"github.com/gnames/dwcheck/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetRootCmd_Exists verifies getRootCmd returns
// a valid command.
func TestGetRootCmd_Exists(t *testing.T) {
	cmd := getRootCmd()
	require.NotNil(t, cmd, "Root command should exist")
	assert.Equal(t, "dwcheck", cmd.Use,
		"Command name should be dwcheck")
}

// TestGetRootCmd_Subcommands verifies check and cache
// commands are registered.
func TestGetRootCmd_Subcommands(t *testing.T) {
	cmd := getRootCmd()

	for _, v := range []string{"check", "cache"} {
		sub, _, err := cmd.Find([]string{v})
		require.NoError(t, err, v)
		assert.Equal(t, v, sub.Name(), v)
	}

	sub, _, err := cmd.Find([]string{"cache", "clear"})
	require.NoError(t, err)
	assert.Equal(t, "clear", sub.Name())
}

// TestGetRootCmd_VersionFormat verifies version
// output format.
func TestGetRootCmd_VersionFormat(t *testing.T) {
	cmd := getRootCmd()

	// Set a test version
	cmd.Version = "version: v1.2.3\nbuild:   abc123"

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "v1.2.3",
		"Version output should contain version")
	assert.Contains(t, output, "abc123",
		"Version output should contain build")
}

// TestGetRootCmd_ShortVersionFlag verifies
// -V flag works.
func TestGetRootCmd_ShortVersionFlag(t *testing.T) {
	cmd := getRootCmd()
	cmd.Version = "version: v1.2.3\nbuild:   abc123"

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"-V"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "v1.2.3",
		"Version output should work with -V flag")
}

// TestInitConfig_EnvVars verifies DWCHECK_* variables override
// the config file.
func TestInitConfig_EnvVars(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem test")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DWCHECK_AUTHORITY_MAX_ATTEMPTS", "5")
	t.Setenv("DWCHECK_JOBS_NUMBER", "2")
	t.Setenv("DWCHECK_LOG_LEVEL", "debug")
	t.Setenv("DWCHECK_TABLES_EVENT_REQUIRED_COLUMNS", "eventID, eventDate")
	t.Setenv("DWCHECK_TABLES_EMOF_REQUIRED_COLUMNS", "occurrenceID")

	cmd := getRootCmd()
	cmd.SetArgs([]string{"cache", "clear"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, cfg)
	assert.Equal(t, home, cfg.HomeDir)
	assert.Equal(t, 5, cfg.Authority.MaxAttempts)
	assert.Equal(t, 2, cfg.JobsNumber)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"eventID", "eventDate"},
		cfg.Tables.Event.RequiredColumns)
	assert.Equal(t, []string{"occurrenceID"}, cfg.Tables.EMOF.RequiredColumns)
	assert.Equal(t, config.OccurrenceColumns,
		cfg.Tables.Occurrence.RequiredColumns)
	assert.Equal(t, "https://www.marinespecies.org/rest", cfg.Authority.URL)
}
