package verify

import (
	"context"
	"fmt"
	"sort"
)

// CoverageRule unions every changeset's released packages into
// CoveredPackages, then computes UncoveredPackages as
// AffectedPackages \ CoveredPackages.
type CoverageRule struct{}

func (r *CoverageRule) Name() string { return "coverage" }

func (r *CoverageRule) Apply(_ context.Context, vctx *Context, result *Result) error {
	for _, cs := range vctx.Changesets {
		for _, rel := range cs.Releases {
			result.CoveredPackages[rel.Package] = true
		}
	}
	var uncovered []string
	for pkg := range result.AffectedPackages {
		if !result.CoveredPackages[pkg] {
			uncovered = append(uncovered, pkg)
		}
	}
	sort.Strings(uncovered)
	result.UncoveredPackages = uncovered
	return nil
}

// DeletedChangesetsRule fails verification when a changeset markdown
// file inside the changeset directory was deleted or renamed out,
// unless AllowDeleted is set.
type DeletedChangesetsRule struct{}

func (r *DeletedChangesetsRule) Name() string { return "deleted_changesets" }

func (r *DeletedChangesetsRule) Apply(_ context.Context, vctx *Context, result *Result) error {
	if vctx.AllowDeleted {
		return nil
	}
	for _, f := range vctx.DeletedFiles {
		result.Failures = append(result.Failures, fmt.Sprintf("changeset file %s was deleted without --allow-deleted-changesets", f))
	}
	return nil
}
