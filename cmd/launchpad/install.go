package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
	"github.com/launchpad-sh/launchpad/internal/ui"
)

var installCmd = &cobra.Command{
	Use:   "install [paths...]",
	Short: "Sniff, resolve, and materialize the environment for one or more projects",
	Long: `Install walks each given project directory (the current directory if none
are given), discovers the runtimes and tools it declares or implies, resolves
concrete versions against the lockfile and registry, and materializes them
into the project's environment.`,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	paths := args
	if len(paths) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		paths = []string{wd}
	}

	reporter := ui.NewReporter(os.Stderr)
	defer reporter.Stop()

	installer, err := buildInstallerWithProgress(reporter.Progress())
	if err != nil {
		return err
	}

	anyFailed := false
	for _, path := range paths {
		result, err := installer.Install(ctx, path)
		if err != nil {
			anyFailed = true
			printErrorTo(cmd.ErrOrStderr(), err)
			continue
		}

		for _, pkg := range result.Packages {
			if pkg.Outcome.Err != nil {
				anyFailed = true
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", pkg.Requirement.Domain, pkg.Outcome.Err)
				continue
			}
			status := "installed"
			if pkg.Readiness.Satisfied {
				status = "satisfied"
			} else if pkg.Outcome.Skipped {
				status = "already present"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", pkg.Requirement.String(), status)
		}
	}

	if anyFailed {
		return lperr.New(lperr.KindResolution, "one or more packages failed to install")
	}
	return nil
}
