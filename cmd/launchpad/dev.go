package main

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/launchpad-sh/launchpad/internal/domain/shellgen"
	"github.com/launchpad-sh/launchpad/internal/domain/sniff"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

var (
	devDumpShellOutput bool
	devDumpShell       string
)

var devDumpCmd = &cobra.Command{
	Use:   "dev:dump <dir>",
	Short: "Install a project and print its shell activation script",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevDump,
}

var devFindProjectRootCmd = &cobra.Command{
	Use:   "dev:find-project-root <dir>",
	Short: "Print the nearest ancestor directory that looks like a project root",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevFindProjectRoot,
}

var devMD5Cmd = &cobra.Command{
	Use:   "dev:md5 <file|->",
	Short: "Print the MD5 digest of a file, or of stdin when given \"-\"",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevMD5,
}

func init() {
	rootCmd.AddCommand(devDumpCmd, devFindProjectRootCmd, devMD5Cmd)
	devDumpCmd.Flags().BoolVar(&devDumpShellOutput, "shell-output", true, "never fail the shell hook; print diagnostics to stderr instead")
	devDumpCmd.Flags().StringVar(&devDumpShell, "shell", "", "renderer to use: posix or zsh (default: detected from $SHELL)")
}

// renderForShell picks the zsh-flavored renderer when shell names zsh
// (explicitly via --shell, or via $SHELL when --shell is unset), and the
// POSIX/bash renderer otherwise.
func renderForShell(plan shellgen.Plan, shell string) string {
	if shell == "" {
		shell = filepath.Base(os.Getenv("SHELL"))
	}
	if strings.HasPrefix(shell, "zsh") {
		return shellgen.RenderZsh(plan)
	}
	return shellgen.Render(plan)
}

// runDevDump backs the shell hook fired on every cd (spec §6/§7): install
// failures must never break the user's shell, so in shell-output mode a
// failed install logs to stderr and still succeeds, emitting whatever
// activation code it can.
func runDevDump(cmd *cobra.Command, args []string) error {
	installer, err := buildInstaller()
	if err != nil {
		if devDumpShellOutput {
			fmt.Fprintf(cmd.ErrOrStderr(), "launchpad: %v\n", err)
			return nil
		}
		return err
	}

	result, err := installer.Install(context.Background(), args[0])
	if err != nil {
		if devDumpShellOutput {
			fmt.Fprintf(cmd.ErrOrStderr(), "launchpad: install failed: %v\n", err)
			fmt.Fprintln(cmd.OutOrStdout(), "# launchpad: install failed, environment unchanged")
			return nil
		}
		return err
	}

	for _, pkg := range result.Packages {
		if pkg.Outcome.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "launchpad: %s: %v\n", pkg.Requirement.Domain, pkg.Outcome.Err)
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), renderForShell(result.Plan, devDumpShell))
	return nil
}

func runDevFindProjectRoot(cmd *cobra.Command, args []string) error {
	fs := ports.NewRealFileSystem()
	root, ok := sniff.FindProjectRoot(fs, args[0])
	if !ok {
		return fmt.Errorf("no project root found above %s", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), root)
	return nil
}

func runDevMD5(cmd *cobra.Command, args []string) error {
	var r io.Reader
	if args[0] == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, r); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(h.Sum(nil)))
	return nil
}
