package orchestrator

import (
	"context"
	"fmt"

	"github.com/changeset-release/changeset/internal/domain"
)

// deleteOrClearChangesetsStep is S8: for every package entry that is not
// itself an in-flight prerelease, retire the changesets it consumed.
// Without --keep-changesets the files are deleted outright; with it,
// only the ones carried over from a graduated prerelease have their
// consumed marker cleared, since the prerelease they referred to no
// longer exists. deletedBackups and clearedPrior are populated during
// Execute and read only by this step's own Compensate.
type deleteOrClearChangesetsStep struct {
	deletedBackups map[string]*domain.Changeset
	clearedPrior   map[string]string
}

func (*deleteOrClearChangesetsStep) Name() string { return "delete_or_clear_changesets" }

func (s *deleteOrClearChangesetsStep) Execute(ctx context.Context, rt Runtime, in *SagaData) (*SagaData, error) {
	out := in.clone()
	s.deletedBackups = make(map[string]*domain.Changeset)
	s.clearedPrior = make(map[string]string)

	for _, entry := range in.Plan.Entries {
		if entry.MarkConsumed {
			continue
		}
		if len(entry.Changesets) == 0 {
			continue
		}
		if rt.Options.KeepChangesets {
			for _, cs := range entry.Changesets {
				if !cs.IsConsumed() {
					continue
				}
				s.clearedPrior[cs.Path] = *cs.ConsumedForPrerelease
				out.ClearedConsumedPaths = append(out.ClearedConsumedPaths, cs.Path)
			}
			continue
		}
		for _, cs := range entry.Changesets {
			s.deletedBackups[cs.Path] = cs
			out.DeletedChangesetPaths = append(out.DeletedChangesetPaths, cs.Path)
		}
	}

	if len(out.ClearedConsumedPaths) > 0 {
		if err := rt.Providers.ChangesetWriter.ClearConsumed(ctx, in.ChangesetDir, out.ClearedConsumedPaths); err != nil {
			return nil, fmt.Errorf("delete_or_clear_changesets: failed to clear consumed markers: %w", err)
		}
	}
	for _, path := range out.DeletedChangesetPaths {
		if err := rt.Providers.ChangesetWriter.Delete(ctx, path); err != nil {
			return nil, fmt.Errorf("delete_or_clear_changesets: failed to delete %s: %w", path, err)
		}
	}
	return out, nil
}

func (s *deleteOrClearChangesetsStep) Compensate(ctx context.Context, rt Runtime, in *SagaData) error {
	var firstErr error
	for _, cs := range s.deletedBackups {
		if err := rt.Providers.ChangesetWriter.Restore(ctx, cs.Path, cs); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to restore deleted changeset %s: %w", cs.Path, err)
		}
	}
	for path, prior := range s.clearedPrior {
		if err := rt.Providers.ChangesetWriter.MarkConsumed(ctx, in.ChangesetDir, []string{path}, prior); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to re-mark %s consumed: %w", path, err)
		}
	}
	return firstErr
}

func (*deleteOrClearChangesetsStep) CompensationDescription() string {
	return "restore deleted changesets from their in-memory backups, and re-mark cleared ones consumed with their prior prerelease tag"
}
