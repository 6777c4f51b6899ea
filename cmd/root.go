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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/dwcheck/internal/iofs"
	"github.com/gnames/dwcheck/internal/iologger"
	app "github.com/gnames/dwcheck/pkg"
	"github.com/gnames/dwcheck/pkg/config"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir string
	opts    []config.Option
	cfg     *config.Config
)

// getRootCmd creates the command tree. A new tree for every call makes
// commands testable.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", app.Version, app.Build),
		Use:     "dwcheck",
		Short:   "Validates Darwin Core Event-Core datasets",
		Long: `dwcheck validates Darwin Core Event-Core datasets (event, occurrence
and extended measurement or fact tables) before they are submitted to an
aggregator such as OBIS or GBIF.

It reports missing columns, empty required values, impossible coordinates,
inconsistent depths, broken links between tables and scientific names that
are not accepted by the World Register of Marine Species (WoRMS).
Data are never modified.

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (DWCHECK_*)
  3. Config file (~/.config/dwcheck/config.yaml)
  4. Built-in defaults`,
		PersistentPreRunE: bootstrap,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	// Remove the automatic "dwcheck version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for dwcheck")

	rootCmd.AddCommand(getCheckCmd())
	rootCmd.AddCommand(getCacheCmd())

	return rootCmd
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.New().Log
	var logFile io.Writer
	if logFile, err = iologger.Init(config.LogDir(homeDir), defaultLog, false); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)

	// Set HomeDir after config is loaded
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	// The log file is already truncated by the first Init.
	if _, err = iologger.Init(config.LogDir(homeDir), cfg.Log, true); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	closeLog(logFile)

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"version", app.Version,
	)

	return nil
}

func closeLog(w io.Writer) {
	if f, ok := w.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		_ = f.Close()
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := getRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Set environment variables we want.
	// We set them manually so we can see clearly which env variables are allowed.
	// These match the fields included in config.ToOptions() - i.e., persistent
	// configuration that can be stored in config.yaml.
	v.SetEnvPrefix("DWCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Table configuration, comma-separated lists
	v.BindEnv("tables.event.required_columns",
		"DWCHECK_TABLES_EVENT_REQUIRED_COLUMNS")
	v.BindEnv("tables.occurrence.required_columns",
		"DWCHECK_TABLES_OCCURRENCE_REQUIRED_COLUMNS")
	v.BindEnv("tables.emof.required_columns",
		"DWCHECK_TABLES_EMOF_REQUIRED_COLUMNS")

	// Authority configuration
	v.BindEnv("authority.url", "DWCHECK_AUTHORITY_URL")
	v.BindEnv("authority.timeout_sec", "DWCHECK_AUTHORITY_TIMEOUT_SEC")
	v.BindEnv("authority.max_attempts", "DWCHECK_AUTHORITY_MAX_ATTEMPTS")
	v.BindEnv("authority.backoff_ms", "DWCHECK_AUTHORITY_BACKOFF_MS")
	v.BindEnv("authority.rate_limit", "DWCHECK_AUTHORITY_RATE_LIMIT")
	v.BindEnv("authority.fuzzy", "DWCHECK_AUTHORITY_FUZZY")
	v.BindEnv("authority.marine_only", "DWCHECK_AUTHORITY_MARINE_ONLY")

	// Cache configuration
	v.BindEnv("cache.size", "DWCHECK_CACHE_SIZE")
	v.BindEnv("cache.persistent", "DWCHECK_CACHE_PERSISTENT")

	// Log configuration
	v.BindEnv("log.level", "DWCHECK_LOG_LEVEL")
	v.BindEnv("log.format", "DWCHECK_LOG_FORMAT")
	v.BindEnv("log.destination", "DWCHECK_LOG_DESTINATION")

	// General configuration
	v.BindEnv("jobs_number", "DWCHECK_JOBS_NUMBER")

	v.AutomaticEnv()
}
