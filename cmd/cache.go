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
	"github.com/gnames/dwcheck/internal/iofs"
	"github.com/gnames/dwcheck/pkg/config"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getCacheCmd returns the cache command with its subcommands.
func getCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent name cache",
		Long: `Manage the persistent cache of resolved scientific names.

The cache is used when 'cache.persistent' is true in the config file,
it is located at ~/.cache/dwcheck/names.sqlite.`,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached names",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runCacheClear()
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	cacheCmd.AddCommand(clearCmd)
	return cacheCmd
}

func runCacheClear() error {
	path := config.NameCachePath(cfg.HomeDir)

	var removed bool
	// SQLite keeps the write-ahead log next to the database.
	for _, v := range []string{path, path + "-wal", path + "-shm"} {
		ok, err := iofs.RemoveFile(v)
		if err != nil {
			return err
		}
		removed = removed || ok
	}

	if removed {
		gn.Info("Removed name cache <em>%s</em>", path)
	} else {
		gn.Info("Name cache <em>%s</em> is empty", path)
	}
	return nil
}
