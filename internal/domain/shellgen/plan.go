// Package shellgen builds an activation Plan and renders it to POSIX
// shell text (spec.md §4.10), per the design note in §9: "treat the
// shell integration layer... as a compiler: build an activation plan
// ...and then render POSIX shell. This gives testability without
// spawning a shell."
package shellgen

// PathAddition is one directory prepended to a search-path-style
// environment variable.
type PathAddition struct {
	Variable string // e.g. "PATH", "DYLD_LIBRARY_PATH"
	Dirs     []string
}

// EnvExport is one variable assignment, either a literal value or one
// captured from the prior environment (OriginalOf != "").
type EnvExport struct {
	Name       string
	Value      string
	OriginalOf string // when set, captures $<OriginalOf> into Name before overwriting it
}

// DeactivationTrigger describes the condition under which the generated
// deactivation function fires: leaving the subtree rooted at ProjectDir.
type DeactivationTrigger struct {
	ProjectDir string
	Message    string
}

// Plan is the typed activation plan a renderer turns into shell text.
type Plan struct {
	ProjectDir       string
	ProjectHash      string
	EnvBinPath       string
	PathAdditions    []PathAddition
	Exports          []EnvExport
	Deactivation     DeactivationTrigger
	HookTimeoutSecs  int
	InstallerCommand string // invoked by the chpwd/PROMPT_COMMAND hook on a new project
}

// defaultSystemPath is the fallback used when PATH is empty when building
// a Plan (spec §4.10: "falling back to the canonical system path list if
// PATH is empty").
const defaultSystemPath = "/usr/bin:/bin:/usr/sbin:/sbin"

// Build assembles a Plan from the environment root's layout and the
// sniffer's env block, per spec §4.10's contract.
func Build(opts BuildOptions) Plan {
	originalPath := opts.CurrentPath
	if originalPath == "" {
		originalPath = defaultSystemPath
	}

	plan := Plan{
		ProjectDir:      opts.ProjectDir,
		ProjectHash:     opts.ProjectHash,
		EnvBinPath:      opts.EnvBinDir,
		HookTimeoutSecs: opts.HookTimeoutSecs,
		Deactivation: DeactivationTrigger{
			ProjectDir: opts.ProjectDir,
			Message:    "dev environment deactivated",
		},
		InstallerCommand: opts.InstallerCommand,
	}
	if plan.HookTimeoutSecs == 0 {
		plan.HookTimeoutSecs = 10
	}

	plan.Exports = append(plan.Exports, EnvExport{Name: "LAUNCHPAD_ORIGINAL_PATH", Value: originalPath, OriginalOf: "PATH"})

	pathDirs := []string{opts.EnvBinDir, opts.EnvSbinDir}
	if opts.GlobalBinDir != "" {
		pathDirs = append(pathDirs, opts.GlobalBinDir, opts.GlobalSbinDir)
	}
	plan.PathAdditions = append(plan.PathAdditions, PathAddition{Variable: "PATH", Dirs: append(pathDirs, "$LAUNCHPAD_ORIGINAL_PATH")})

	for _, libVar := range []string{"DYLD_LIBRARY_PATH", "DYLD_FALLBACK_LIBRARY_PATH", "LD_LIBRARY_PATH"} {
		plan.PathAdditions = append(plan.PathAdditions, PathAddition{Variable: libVar, Dirs: opts.LibDirs})
	}

	plan.Exports = append(plan.Exports,
		EnvExport{Name: "LAUNCHPAD_ENV_BIN_PATH", Value: opts.EnvBinDir},
		EnvExport{Name: "LAUNCHPAD_PROJECT_DIR", Value: opts.ProjectDir},
		EnvExport{Name: "LAUNCHPAD_PROJECT_HASH", Value: opts.ProjectHash},
	)
	for _, k := range sortedEnvKeys(opts.SniffedEnv) {
		plan.Exports = append(plan.Exports, EnvExport{Name: k, Value: opts.SniffedEnv[k]})
	}

	return plan
}

// BuildOptions are the inputs needed to build a Plan.
type BuildOptions struct {
	ProjectDir       string
	ProjectHash      string
	EnvBinDir        string
	EnvSbinDir       string
	GlobalBinDir     string
	GlobalSbinDir    string
	LibDirs          []string
	CurrentPath      string
	SniffedEnv       map[string]string
	HookTimeoutSecs  int
	InstallerCommand string
}
