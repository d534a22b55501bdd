package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/changeset-release/changeset/internal/changelog"
	"github.com/changeset-release/changeset/internal/domain"
)

// writeChangelogsStep is S4: render and insert a changelog section for
// every released package, at the root or per-package depending on the
// project's changelog policy. states is populated during Execute and
// read only by this step's own Compensate.
type writeChangelogsStep struct {
	aggregator *changelog.Aggregator
	states     []ChangelogFileState
}

func newWriteChangelogsStep() *writeChangelogsStep {
	return &writeChangelogsStep{aggregator: changelog.NewAggregator()}
}

func (*writeChangelogsStep) Name() string { return "write_changelogs" }

func (s *writeChangelogsStep) Execute(ctx context.Context, rt Runtime, in *SagaData) (*SagaData, error) {
	out := in.clone()

	repoInfo := in.RepoInfo
	if in.ProjectConfig.ComparisonLinkPolicy == domain.ComparisonLinkOff {
		repoInfo = nil
	}

	manifestByName := make(map[string]string, len(in.Workspace.Packages))
	for _, pkg := range in.Workspace.Packages {
		manifestByName[pkg.Name] = pkg.ManifestPath
	}

	if in.ProjectConfig.ChangelogPolicy == domain.ChangelogPolicyPerPackage {
		for _, entry := range in.Plan.Entries {
			manifestPath, ok := manifestByName[entry.Version.Name]
			if !ok {
				continue
			}
			path := filepath.Join(filepath.Dir(manifestPath), "CHANGELOG.md")
			release := s.aggregator.BuildPackageRelease(entry.Version.Name, entry.Version, entry.Changesets)
			state, err := s.writeOne(ctx, rt, path, release, repoInfo, entry.Version.Current)
			if err != nil {
				return nil, fmt.Errorf("write_changelogs: %w", err)
			}
			out.ChangelogStates = append(out.ChangelogStates, *state)
			s.states = append(s.states, *state)
		}
		return out, nil
	}

	releases := make(map[string]domain.PackageVersion, len(in.Plan.Plan.Releases))
	changesetsByPackage := make(map[string][]*domain.Changeset, len(in.Plan.Entries))
	for _, entry := range in.Plan.Entries {
		releases[entry.Version.Name] = entry.Version
		changesetsByPackage[entry.Version.Name] = entry.Changesets
	}
	root := s.aggregator.BuildRootRelease(releases, changesetsByPackage)
	path := filepath.Join(in.Workspace.Root, "CHANGELOG.md")
	state, err := s.writeOne(ctx, rt, path, root, repoInfo, nil)
	if err != nil {
		return nil, fmt.Errorf("write_changelogs: %w", err)
	}
	out.ChangelogStates = append(out.ChangelogStates, *state)
	s.states = append(s.states, *state)
	return out, nil
}

func (s *writeChangelogsStep) writeOne(
	ctx context.Context,
	rt Runtime,
	path string,
	release *domain.VersionRelease,
	repoInfo *domain.RepositoryInfo,
	previousVersion *semver.Version,
) (*ChangelogFileState, error) {
	existed, err := rt.Providers.Changelogs.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	previousContent := ""
	if existed {
		previousContent, err = rt.Providers.Changelogs.ReadContent(ctx, path)
		if err != nil {
			return nil, err
		}
	}
	if err := rt.Providers.Changelogs.WriteRelease(ctx, path, release, repoInfo, previousVersion); err != nil {
		return nil, err
	}
	return &ChangelogFileState{Path: path, Existed: existed, PreviousContent: previousContent}, nil
}

func (s *writeChangelogsStep) Compensate(ctx context.Context, rt Runtime, in *SagaData) error {
	var firstErr error
	for _, st := range s.states {
		var err error
		if st.Existed {
			err = rt.Providers.Changelogs.Restore(ctx, st.Path, st.PreviousContent)
		} else {
			err = rt.Providers.Changelogs.Delete(ctx, st.Path)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to restore changelog %s: %w", st.Path, err)
		}
	}
	return firstErr
}

func (*writeChangelogsStep) CompensationDescription() string {
	return "restore prior changelog content, or delete the file if it did not exist before this run"
}
