package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
)

var (
	cfgFile string
	verbose bool
	mode    string
)

var rootCmd = &cobra.Command{
	Use:   "launchpad",
	Short: "A per-project runtime and package environment manager",
	Long: `Launchpad sniffs a project for the runtimes and tools it needs, resolves
concrete versions, and materializes them into a per-project environment
that your shell activates automatically on cd.`,
	SilenceErrors: true, // formatError/printError handle presentation
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ${XDG_CONFIG_HOME:-~/.config}/launchpad/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "locked", "resolution mode (intent, locked, frozen)")

	_ = rootCmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"intent\tsame as locked: use a lockfile entry when present, else the registry",
			"locked\tprefer the lockfile, fall back to the registry",
			"frozen\tfail if a requirement has no lockfile entry",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// formatError renders err for a terminal: a UserError's message and
// suggestion, plus the underlying technical error when --verbose is set.
func formatError(err error) string {
	var userErr *lperr.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

func printError(err error) {
	printErrorTo(os.Stderr, err)
}

func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}
