package orchestrator

import (
	"context"
	"fmt"

	"github.com/changeset-release/changeset/internal/changelog"
	"github.com/changeset-release/changeset/internal/changeset"
	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/release"
)

// LoadPlanInput discovers the workspace rooted at root and gathers
// everything release.Plan needs: package configs, pending/consumed
// changesets, and the persisted prerelease/graduation state. This is
// the bootstrap phase CLI commands run before handing off to Execute;
// it performs no mutation.
func LoadPlanInput(ctx context.Context, providers Providers, root string, opts Options) (*PlanInput, error) {
	ws, err := providers.Project.DiscoverWorkspace(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover workspace: %w", err)
	}
	cfg, err := providers.Project.LoadRootConfig(ctx, ws)
	if err != nil {
		return nil, fmt.Errorf("failed to load root config: %w", err)
	}
	changesetDir, err := providers.Project.EnsureChangesetDir(ctx, ws, cfg)
	if err != nil {
		return nil, err
	}

	pending, err := providers.Changesets.ListPending(ctx, changesetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending changesets: %w", err)
	}
	consumed, err := providers.Changesets.ListConsumed(ctx, changesetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumed changesets: %w", err)
	}
	changeset.SortByFilename(pending)
	changeset.SortByFilename(consumed)

	prereleaseState, err := providers.State.LoadPrereleaseState(ctx, changesetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prerelease state: %w", err)
	}
	graduationState, err := providers.State.LoadGraduationState(ctx, changesetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load graduation state: %w", err)
	}

	packageConfigs := make(map[string]domain.PackageConfig, len(ws.Packages))
	for i := range ws.Packages {
		pkg := ws.Packages[i]
		pkgCfg, err := providers.Project.LoadPackageConfig(ctx, &pkg)
		if err != nil {
			return nil, fmt.Errorf("failed to load package config for %s: %w", pkg.Name, err)
		}
		packageConfigs[pkg.Name] = *pkgCfg
	}

	repoInfo := repositoryInfo(ctx, providers)

	return &PlanInput{
		PlannerInput: release.Input{
			Packages:         ws.Packages,
			Pending:          pending,
			Consumed:         consumed,
			PrereleaseState:  prereleaseState,
			GraduationState:  graduationState,
			PackageConfigs:   packageConfigs,
			ProjectConfig:    *cfg,
			GraduateAll:      opts.GraduateAll,
			GlobalPrerelease: opts.Prerelease,
		},
		Workspace:     ws,
		ProjectConfig: cfg,
		ChangesetDir:  changesetDir,
		RepoInfo:      repoInfo,
	}, nil
}

// repositoryInfo best-effort resolves the forge comparison-link
// metadata from the origin remote. A missing remote or an
// unrecognized host just means no comparison links get rendered, not
// a fatal error.
func repositoryInfo(ctx context.Context, providers Providers) *domain.RepositoryInfo {
	remoteURL, err := providers.Git.RemoteURL(ctx, "origin")
	if err != nil || remoteURL == "" {
		return nil
	}
	info, err := changelog.DetectForge(remoteURL)
	if err != nil {
		return nil
	}
	return info
}
