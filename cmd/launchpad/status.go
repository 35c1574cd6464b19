package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [dir]",
	Short: "Show readiness for a project's requirements without installing anything",
	Long: `Status sniffs the given project directory (the current directory if none is
given) and reports, per requirement, which readiness tier satisfied it, its
resolved version, and whether a newer version is available. Nothing is
resolved against the registry, fetched, or materialized.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	} else if wd, err := os.Getwd(); err == nil {
		dir = wd
	}

	installer, err := buildInstaller()
	if err != nil {
		return err
	}

	statuses, err := installer.Status(context.Background(), dir)
	if err != nil {
		return err
	}

	for _, s := range statuses {
		if !s.Readiness.Satisfied {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: not satisfied\n", s.Requirement.String())
			continue
		}
		line := fmt.Sprintf("%s: satisfied (%s, %s)", s.Requirement.Domain, s.Readiness.Scope, s.Readiness.Version.String())
		if s.Readiness.Outdated {
			line += fmt.Sprintf(" [outdated, newest %s]", s.Readiness.Newest.String())
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
