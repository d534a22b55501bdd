package orchestrator

import (
	"context"
	"fmt"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/provider"
)

// createTagsStep is S7: create one VCS tag per released package, named
// per the project's tag format. tagsCreated is populated during Execute
// and read only by this step's own Compensate.
type createTagsStep struct {
	tagsCreated []provider.TagInfo
}

func (*createTagsStep) Name() string { return "create_tags" }

func (s *createTagsStep) Execute(ctx context.Context, rt Runtime, in *SagaData) (*SagaData, error) {
	out := in.clone()
	if rt.Options.NoCommit || rt.Options.NoTags || !in.CommitCreated {
		return out, nil
	}

	isMultiPackage := in.Workspace.Kind != provider.KindSinglePackage
	for _, pv := range in.Plan.Plan.Releases {
		name := tagName(in.ProjectConfig.TagFormat, isMultiPackage, pv)
		message := fmt.Sprintf("%s %s", pv.Name, pv.New.String())
		tag, err := rt.Providers.Git.CreateTag(ctx, name, message)
		if err != nil {
			return nil, fmt.Errorf("create_tags: failed to create tag %s: %w", name, err)
		}
		out.TagsCreated = append(out.TagsCreated, *tag)
		s.tagsCreated = append(s.tagsCreated, *tag)
	}
	return out, nil
}

func (s *createTagsStep) Compensate(ctx context.Context, rt Runtime, in *SagaData) error {
	var firstErr error
	for _, tag := range s.tagsCreated {
		if err := rt.Providers.Git.DeleteTag(ctx, tag.Name); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to delete tag %s: %w", tag.Name, err)
		}
	}
	return firstErr
}

func (*createTagsStep) CompensationDescription() string {
	return "delete every tag created this run"
}

// tagName formats a release tag per the project's TagFormat. Under
// crate_prefixed, a single-package workspace still gets a bare version
// tag; only a real multi-package workspace needs the package name to
// disambiguate.
func tagName(format domain.TagFormat, isMultiPackage bool, pv domain.PackageVersion) string {
	if format == domain.TagFormatCratePrefixed && isMultiPackage {
		return fmt.Sprintf("%s-v%s", pv.Name, pv.New.String())
	}
	return "v" + pv.New.String()
}
