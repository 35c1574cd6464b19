package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/launchpad-sh/launchpad/internal/app"
	"github.com/launchpad-sh/launchpad/internal/domain/envroot"
)

var cacheClearAll bool

var cacheClearCmd = &cobra.Command{
	Use:   "cache:clear",
	Short: "Free disk space used by the download cache",
	Long: `By default, removes only the shared archive download cache. With --all,
removes every materialized project and global environment too, the way a
full reinstall from scratch would require.`,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "also remove every project and global environment")
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	var (
		freed int64
		err   error
	)

	if cacheClearAll {
		freed, err = app.ClearEverything()
	} else {
		cacheDir := filepath.Join(envroot.DataHome(), "launchpad", "cache")
		freed, err = app.ClearDownloadCache(cacheDir)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "freed %s\n", humanBytes(freed))
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
