package orchestrator

import (
	"context"
	"fmt"

	"github.com/changeset-release/changeset/internal/errs"
)

// markOrConvertStep is S2: inline any inherited-version package the plan
// touches (when --convert is set), and mark each package
// entering or continuing a prerelease with the new prerelease version
// string, so a later run recognizes its consumed changesets.
//
// convertedManifests and markedConsumedPaths are populated during
// Execute and read only by this same step's Compensate: compensation
// receives the value Execute was given, not the value it returned, so
// bookkeeping a step needs for its own rollback must live on the step
// itself.
type markOrConvertStep struct {
	convertedManifests  []string
	markedConsumedPaths []string
}

func (*markOrConvertStep) Name() string { return "mark_or_convert" }

func (s *markOrConvertStep) Execute(ctx context.Context, rt Runtime, in *SagaData) (*SagaData, error) {
	out := in.clone()
	byName := manifestPathsByName(in.Workspace)

	for _, pv := range in.Plan.Plan.Releases {
		path, ok := byName[pv.Name]
		if !ok {
			continue
		}
		inherited, err := rt.Providers.Manifests.HasInheritedVersion(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("mark_or_convert: %w", err)
		}
		if !inherited {
			continue
		}
		if !rt.Options.ConvertInherited {
			return nil, &errs.DomainError{Reason: fmt.Sprintf("package %s has an inherited version; rerun with --convert", pv.Name)}
		}
		if err := rt.Providers.Manifests.InlineInheritedVersion(ctx, path, pv.Current); err != nil {
			return nil, fmt.Errorf("mark_or_convert: failed to inline inherited version for %s: %w", pv.Name, err)
		}
		s.convertedManifests = append(s.convertedManifests, path)
	}

	for _, entry := range in.Plan.Entries {
		if !entry.MarkConsumed {
			continue
		}
		paths := changesetPaths(entry.Changesets)
		if len(paths) == 0 {
			continue
		}
		if err := rt.Providers.ChangesetWriter.MarkConsumed(ctx, in.ChangesetDir, paths, entry.Version.New.String()); err != nil {
			return nil, fmt.Errorf("mark_or_convert: failed to mark consumed for %s: %w", entry.Version.Name, err)
		}
		s.markedConsumedPaths = append(s.markedConsumedPaths, paths...)
	}

	if err := rt.Providers.State.SavePrereleaseState(ctx, in.ChangesetDir, in.Plan.NewPrereleaseState); err != nil {
		return nil, fmt.Errorf("mark_or_convert: failed to save prerelease state: %w", err)
	}
	if err := rt.Providers.State.SaveGraduationState(ctx, in.ChangesetDir, in.Plan.NewGraduationState); err != nil {
		return nil, fmt.Errorf("mark_or_convert: failed to save graduation state: %w", err)
	}

	return out, nil
}

func (s *markOrConvertStep) Compensate(ctx context.Context, rt Runtime, in *SagaData) error {
	var firstErr error
	if err := rt.Providers.State.SavePrereleaseState(ctx, in.ChangesetDir, in.PreviousPrereleaseState); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to restore prerelease state: %w", err)
	}
	if err := rt.Providers.State.SaveGraduationState(ctx, in.ChangesetDir, in.PreviousGraduationState); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to restore graduation state: %w", err)
	}
	for _, path := range s.convertedManifests {
		if err := rt.Providers.Manifests.RestoreInheritedVersion(ctx, path); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to restore inherited version on %s: %w", path, err)
		}
	}
	if len(s.markedConsumedPaths) > 0 {
		if err := rt.Providers.ChangesetWriter.ClearConsumed(ctx, in.ChangesetDir, s.markedConsumedPaths); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to clear consumed marks: %w", err)
		}
	}
	return firstErr
}

func (*markOrConvertStep) CompensationDescription() string {
	return "clear consumed marks and restore any inherited version declarations"
}
