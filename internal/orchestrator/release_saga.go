package orchestrator

import (
	"context"
	"fmt"

	"github.com/changeset-release/changeset/internal/errs"
	"github.com/changeset-release/changeset/internal/saga"
)

// planPhase is the S1-only saga: compute the plan and stop. Used both
// as the first half of a full release and, alone, for --dry-run.
func planPhase() *saga.Saga[Runtime, PlanInput, *SagaData] {
	b := saga.NewBuilder[Runtime, PlanInput]()
	return saga.Build[Runtime, PlanInput, *SagaData](saga.Then[Runtime, PlanInput, *SagaData](b, planStep{}))
}

// commitPhase is S2-S8: everything that mutates the repository once a
// plan is known and accepted.
func commitPhase() *saga.Saga[Runtime, *SagaData, *SagaData] {
	b := saga.NewBuilder[Runtime, *SagaData]()
	b2 := saga.Then[Runtime, *SagaData, *SagaData](b, &markOrConvertStep{})
	b3 := saga.Then[Runtime, *SagaData, *SagaData](b2, &writeManifestsStep{})
	b4 := saga.Then[Runtime, *SagaData, *SagaData](b3, newWriteChangelogsStep())
	b5 := saga.Then[Runtime, *SagaData, *SagaData](b4, stageStep{})
	b6 := saga.Then[Runtime, *SagaData, *SagaData](b5, &commitStep{})
	b7 := saga.Then[Runtime, *SagaData, *SagaData](b6, &createTagsStep{})
	b8 := saga.Then[Runtime, *SagaData, *SagaData](b7, &deleteOrClearChangesetsStep{})
	return saga.Build[Runtime, *SagaData, *SagaData](b8)
}

// Outcome is the full result of a release run: the saga data (including
// the computed plan) and the merged audit trail of every phase that ran.
type Outcome struct {
	Data  *SagaData
	Audit *saga.AuditLog
}

// Execute runs the release saga per spec §4.5: S1 (plan) always runs
// first and alone; if it succeeds and --dry-run was not requested,
// preflight checks run against its result, then S2-S8 run as a second
// saga phase. A failure in either phase returns a *saga.StepFailedError
// or *saga.CompensationFailedError; an empty plan fails S1 with
// ErrNoChangesets, which the returned *saga.StepFailedError wraps. A
// preflight failure is returned unwrapped with a nil Outcome.
func Execute(ctx context.Context, rt Runtime, in PlanInput) (*Outcome, error) {
	data, audit, err := planPhase().Run(ctx, rt, in)
	if err != nil {
		return nil, err
	}
	if rt.Options.DryRun {
		return &Outcome{Data: data, Audit: audit}, nil
	}

	if err := preflight(ctx, rt, data); err != nil {
		return nil, err
	}

	data2, audit2, err := commitPhase().Run(ctx, rt, data)
	merged := &saga.AuditLog{SessionID: audit.SessionID, Records: append(audit.Records, audit2.Records...)}
	if err != nil {
		return &Outcome{Data: data2, Audit: merged}, err
	}
	return &Outcome{Data: data2, Audit: merged}, nil
}

// preflight runs the checks spec §5 requires before any mutating step:
// a clean working tree (unless --force) and no unconverted
// inherited-version packages in the plan (unless --convert).
// Nothing has mutated the repository yet, so a failure here needs no
// rollback.
func preflight(ctx context.Context, rt Runtime, data *SagaData) error {
	if !rt.Options.Force {
		clean, err := rt.Providers.Git.IsClean(ctx)
		if err != nil {
			return fmt.Errorf("preflight: failed to check working tree: %w", err)
		}
		if !clean {
			return &errs.DomainError{Reason: "working tree is not clean; commit or stash changes, or rerun with --force"}
		}
	}

	if rt.Options.ConvertInherited {
		return nil
	}
	byName := make(map[string]string, len(data.Workspace.Packages))
	for _, pkg := range data.Workspace.Packages {
		byName[pkg.Name] = pkg.ManifestPath
	}
	for _, pv := range data.Plan.Plan.Releases {
		path, ok := byName[pv.Name]
		if !ok {
			continue
		}
		inherited, err := rt.Providers.Manifests.HasInheritedVersion(ctx, path)
		if err != nil {
			return fmt.Errorf("preflight: %w", err)
		}
		if inherited {
			return &errs.DomainError{Reason: fmt.Sprintf("package %s has an inherited version; rerun with --convert", pv.Name)}
		}
	}
	return nil
}
