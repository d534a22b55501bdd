package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/provider"
)

// stageStep is S5: stage every manifest and changelog file touched so
// far. Staging has no compensation of its own; an aborted commit leaves
// the index in whatever state it was in, and compensate of commitStep
// resets the working copy entirely when a commit was actually created.
type stageStep struct{}

func (stageStep) Name() string { return "stage" }

func (stageStep) Execute(ctx context.Context, rt Runtime, in *SagaData) (*SagaData, error) {
	out := in.clone()
	if rt.Options.NoCommit {
		return out, nil
	}

	paths := append(releasedManifestPaths(in), releasedChangelogPaths(in)...)
	if len(paths) == 0 {
		return out, nil
	}
	if err := rt.Providers.Git.Stage(ctx, paths); err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}
	out.StagedPaths = paths
	return out, nil
}

func (stageStep) Compensate(context.Context, Runtime, *SagaData) error { return nil }

func (stageStep) CompensationDescription() string {
	return "no-op (reverted by commit rollback, or nothing was staged)"
}

// commitStep is S6: commit the staged manifest and changelog changes.
// commitCreated and commit are populated during Execute and read only by
// this step's own Compensate.
type commitStep struct {
	commitCreated bool
	commit        *provider.CommitInfo
}

func (*commitStep) Name() string { return "commit" }

func (s *commitStep) Execute(ctx context.Context, rt Runtime, in *SagaData) (*SagaData, error) {
	out := in.clone()
	if rt.Options.NoCommit || len(in.StagedPaths) == 0 {
		return out, nil
	}
	message := commitMessage(in.Plan.Plan.Releases)
	info, err := rt.Providers.Git.Commit(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	out.CommitCreated = true
	out.Commit = info
	s.commitCreated = true
	s.commit = info
	return out, nil
}

func (s *commitStep) Compensate(ctx context.Context, rt Runtime, in *SagaData) error {
	if !s.commitCreated {
		return nil
	}
	if err := rt.Providers.Git.ResetToParent(ctx); err != nil {
		return fmt.Errorf("commit compensation: %w", err)
	}
	return nil
}

func (*commitStep) CompensationDescription() string {
	return "reset the working copy to the parent commit, only if this run created the commit"
}

func commitMessage(releases []domain.PackageVersion) string {
	if len(releases) == 1 {
		r := releases[0]
		return fmt.Sprintf("chore(release): %s@%s", r.Name, r.New.String())
	}
	names := make([]string, 0, len(releases))
	for _, r := range releases {
		names = append(names, fmt.Sprintf("%s@%s", r.Name, r.New.String()))
	}
	return fmt.Sprintf("chore(release): %s", strings.Join(names, ", "))
}
