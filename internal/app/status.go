package app

import (
	"context"

	"github.com/launchpad-sh/launchpad/internal/domain/envroot"
	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
	"github.com/launchpad-sh/launchpad/internal/domain/ready"
	"github.com/launchpad-sh/launchpad/internal/domain/sniff"
)

// RequirementStatus reports one requirement's readiness without installing
// anything — the read-only counterpart to Install, backing the
// supplemented `launchpad status` command.
type RequirementStatus struct {
	Requirement manifest.Requirement
	Readiness   ready.Status
}

// Status sniffs projectDir and checks every discovered requirement's
// readiness tier (C9), without resolving, fetching, or materializing.
func (in *Installer) Status(ctx context.Context, projectDir string) ([]RequirementStatus, error) {
	s := sniff.New(in.cfg.FS, in.cfg.Registry, in.cfg.Platform, in.cfg.Home, projectDir)
	sniffed, err := s.Sniff(projectDir)
	if err != nil {
		return nil, err
	}
	sniffed.Packages = withCompanions(ctx, in.cfg.Registry, sniffed.Packages)

	_, manifestContent, _ := s.ManifestFile(projectDir)
	identity := envroot.Identity(projectDir, manifestContent)
	envRoot := envroot.EnvPath(identity)

	grouped := groupByDomain(sniffed.Packages)
	out := make([]RequirementStatus, 0, len(grouped))
	for _, group := range grouped {
		req := group[0]
		status, err := in.oracle.Check(ctx, identity, envRoot, in.cfg.GlobalEnvRoot, len(sniffed.Packages), req)
		if err != nil {
			return nil, err
		}
		out = append(out, RequirementStatus{Requirement: req, Readiness: status})
	}
	return out, nil
}
