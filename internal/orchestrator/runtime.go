// Package orchestrator assembles the release saga (spec component C5)
// from the generic internal/saga engine and the internal/provider
// collaborators, and hosts the CLI-facing option/result types.
package orchestrator

import (
	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/provider"
	"github.com/changeset-release/changeset/internal/release"
	"go.uber.org/zap"
)

// Providers bundles every collaborator a release saga step may call.
type Providers struct {
	Project         provider.ProjectProvider
	Changesets      provider.ChangesetReader
	ChangesetWriter provider.ChangesetWriter
	Manifests       provider.ManifestWriter
	Changelogs      provider.ChangelogWriter
	Git             provider.GitProvider
	State           provider.ReleaseStateIO
}

// Options is the full set of release-time flags from spec §4.5.
type Options struct {
	DryRun           bool
	NoCommit         bool
	NoTags           bool
	KeepChangesets   bool
	Force            bool
	ConvertInherited bool
	GraduateAll      bool
	Prerelease       *string
}

// Runtime is the saga's Rt type parameter: the shared, read-mostly
// context every step receives alongside its own input/output.
type Runtime struct {
	Providers Providers
	Options   Options
	Logger    *zap.Logger
}

// ChangelogFileState records what a changelog file looked like before
// write_changelogs touched it, so compensation can restore it exactly.
type ChangelogFileState struct {
	Path            string
	Existed         bool
	PreviousContent string
}

// SagaData threads release state from S1 through S8. A step's Execute
// only ever needs fields set by an earlier step, since those are present
// in the value it receives; a step's own contributions for later steps
// (or for the caller) are added to the copy it returns. Bookkeeping a
// step needs only for its own Compensate lives on the step value itself,
// not here — compensation is invoked with the value Execute received,
// before this step's own fields existed.
type SagaData struct {
	Workspace     *provider.Workspace
	ProjectConfig *domain.ProjectConfig
	ChangesetDir  string
	RepoInfo      *domain.RepositoryInfo

	Plan *release.Result

	PreviousPrereleaseState domain.PrereleaseState
	PreviousGraduationState domain.GraduationState

	ChangelogStates []ChangelogFileState

	StagedPaths []string

	CommitCreated bool
	Commit        *provider.CommitInfo

	TagsCreated []provider.TagInfo

	DeletedChangesetPaths []string
	ClearedConsumedPaths  []string
}

// clone returns a shallow copy of d; steps mutate the copy's own fields
// rather than the value an earlier step still holds a reference to.
func (d *SagaData) clone() *SagaData {
	c := *d
	return &c
}
