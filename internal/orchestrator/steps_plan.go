package orchestrator

import (
	"context"
	"fmt"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/errs"
	"github.com/changeset-release/changeset/internal/provider"
	"github.com/changeset-release/changeset/internal/release"
	"github.com/changeset-release/changeset/internal/saga"
	"go.uber.org/zap"
)

// PlanInput bundles everything the bootstrap phase (workspace discovery,
// config loading, changeset listing, state loading) gathers before the
// saga itself runs. It is read-only setup, not a saga step.
type PlanInput struct {
	PlannerInput  release.Input
	Workspace     *provider.Workspace
	ProjectConfig *domain.ProjectConfig
	ChangesetDir  string
	RepoInfo      *domain.RepositoryInfo
}

// planStep is S1: compute the release plan from pending changesets and
// in-flight prerelease/graduation state. Read-only, never compensated.
type planStep struct{}

func (planStep) Name() string { return "plan" }

func (planStep) Execute(_ context.Context, rt Runtime, in PlanInput) (*SagaData, error) {
	result, err := release.Plan(in.PlannerInput)
	if err != nil {
		return nil, fmt.Errorf("failed to compute release plan: %w", err)
	}
	if result.Plan.IsEmpty() {
		return nil, errs.ErrNoChangesets
	}
	rt.Logger.Info("computed release plan", zap.Int("package_count", len(result.Plan.Releases)))
	return &SagaData{
		Workspace:               in.Workspace,
		ProjectConfig:           in.ProjectConfig,
		ChangesetDir:            in.ChangesetDir,
		RepoInfo:                in.RepoInfo,
		Plan:                    result,
		PreviousPrereleaseState: in.PlannerInput.PrereleaseState,
		PreviousGraduationState: in.PlannerInput.GraduationState,
	}, nil
}

func (planStep) Compensate(context.Context, Runtime, PlanInput) error { return nil }

func (planStep) CompensationDescription() string { return saga.ReadOnlyCompensationDescription }
