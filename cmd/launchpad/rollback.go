package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <snapshot-id>",
	Short: "Restore a project's lockfile to the state captured before a prior install",
	Long: `Rollback undoes a single install's write to pantry.lock, restoring whatever
the lockfile looked like immediately before that run (or removing it, if it
did not exist yet). It does not touch any package directories an install may
have already materialized; re-run install afterward to bring the environment
back in line with the restored lockfile.`,
	Args: cobra.ExactArgs(1),
	RunE: runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	installer, err := buildInstaller()
	if err != nil {
		return err
	}

	if err := installer.Rollback(context.Background(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "restored lockfile from snapshot %s\n", args[0])
	return nil
}
