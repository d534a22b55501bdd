package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/errs"
	"github.com/changeset-release/changeset/internal/provider"
	"github.com/changeset-release/changeset/internal/release"
	"github.com/changeset-release/changeset/internal/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeManifests is an in-memory provider.ManifestWriter for exercising
// the saga without touching disk.
type fakeManifests struct {
	versions  map[string]*semver.Version
	inherited map[string]bool
}

func newFakeManifests(initial map[string]*semver.Version) *fakeManifests {
	return &fakeManifests{versions: initial, inherited: map[string]bool{}}
}

func (m *fakeManifests) WriteVersion(_ context.Context, path string, v *semver.Version) error {
	m.versions[path] = v
	return nil
}

func (m *fakeManifests) VerifyVersion(_ context.Context, path string, expected *semver.Version) error {
	if m.versions[path].String() != expected.String() {
		return errors.New("version mismatch")
	}
	return nil
}

func (m *fakeManifests) RemoveWorkspaceVersion(context.Context, string) error { return nil }

func (m *fakeManifests) HasInheritedVersion(_ context.Context, path string) (bool, error) {
	return m.inherited[path], nil
}

func (m *fakeManifests) InlineInheritedVersion(_ context.Context, path string, v *semver.Version) error {
	m.inherited[path] = false
	m.versions[path] = v
	return nil
}

func (m *fakeManifests) RestoreInheritedVersion(_ context.Context, path string) error {
	m.inherited[path] = true
	return nil
}

// fakeChangelogs is an in-memory provider.ChangelogWriter.
type fakeChangelogs struct {
	content map[string]string
}

func newFakeChangelogs() *fakeChangelogs { return &fakeChangelogs{content: map[string]string{}} }

func (c *fakeChangelogs) WriteRelease(
	_ context.Context, path string, _ *domain.VersionRelease, _ *domain.RepositoryInfo, _ *semver.Version,
) error {
	c.content[path] = "updated"
	return nil
}

func (c *fakeChangelogs) Restore(_ context.Context, path, previous string) error {
	c.content[path] = previous
	return nil
}

func (c *fakeChangelogs) Delete(_ context.Context, path string) error {
	delete(c.content, path)
	return nil
}

func (c *fakeChangelogs) Exists(_ context.Context, path string) (bool, error) {
	_, ok := c.content[path]
	return ok, nil
}

func (c *fakeChangelogs) ReadContent(_ context.Context, path string) (string, error) {
	return c.content[path], nil
}

// fakeGit is an in-memory provider.GitProvider.
type fakeGit struct {
	clean        bool
	commitErr    error
	tagErr       error
	staged       []string
	commits      int
	resetToParentCalls int
	tagsCreated  []string
	tagsDeleted  []string
}

func (g *fakeGit) ChangedFiles(context.Context, string, string) ([]string, error) { return nil, nil }

func (g *fakeGit) IsClean(context.Context) (bool, error) { return g.clean, nil }

func (g *fakeGit) CurrentBranch(context.Context) (string, error) { return "main", nil }

func (g *fakeGit) Stage(_ context.Context, paths []string) error {
	g.staged = append(g.staged, paths...)
	return nil
}

func (g *fakeGit) Commit(context.Context, string) (*provider.CommitInfo, error) {
	if g.commitErr != nil {
		return nil, g.commitErr
	}
	g.commits++
	return &provider.CommitInfo{Hash: "abc123", Message: "release"}, nil
}

func (g *fakeGit) CreateTag(_ context.Context, name, message string) (*provider.TagInfo, error) {
	if g.tagErr != nil {
		return nil, g.tagErr
	}
	g.tagsCreated = append(g.tagsCreated, name)
	return &provider.TagInfo{Name: name, Message: message, Hash: "abc123"}, nil
}

func (g *fakeGit) TagExists(context.Context, string) (bool, error) { return false, nil }

func (g *fakeGit) DeleteTag(_ context.Context, name string) error {
	g.tagsDeleted = append(g.tagsDeleted, name)
	return nil
}

func (g *fakeGit) DeleteFiles(context.Context, []string) error { return nil }

func (g *fakeGit) ResetToParent(context.Context) error {
	g.resetToParentCalls++
	return nil
}

func (g *fakeGit) RemoteURL(context.Context, string) (string, error) { return "", nil }

// fakeState is an in-memory provider.ReleaseStateIO.
type fakeState struct {
	prerelease domain.PrereleaseState
	graduation domain.GraduationState
}

func (s *fakeState) LoadPrereleaseState(context.Context, string) (domain.PrereleaseState, error) {
	return s.prerelease, nil
}

func (s *fakeState) SavePrereleaseState(_ context.Context, _ string, state domain.PrereleaseState) error {
	s.prerelease = state
	return nil
}

func (s *fakeState) LoadGraduationState(context.Context, string) (domain.GraduationState, error) {
	return s.graduation, nil
}

func (s *fakeState) SaveGraduationState(_ context.Context, _ string, state domain.GraduationState) error {
	s.graduation = state
	return nil
}

// fakeChangesetWriter is an in-memory provider.ChangesetWriter.
type fakeChangesetWriter struct {
	deleted       map[string]bool
	markedPaths   []string
	clearedPaths  []string
	restoredPaths []string
}

func newFakeChangesetWriter() *fakeChangesetWriter {
	return &fakeChangesetWriter{deleted: map[string]bool{}}
}

func (w *fakeChangesetWriter) Write(context.Context, string, *domain.Changeset) (string, error) {
	return "", nil
}

func (w *fakeChangesetWriter) MarkConsumed(_ context.Context, _ string, paths []string, _ string) error {
	w.markedPaths = append(w.markedPaths, paths...)
	return nil
}

func (w *fakeChangesetWriter) ClearConsumed(_ context.Context, _ string, paths []string) error {
	w.clearedPaths = append(w.clearedPaths, paths...)
	return nil
}

func (w *fakeChangesetWriter) Restore(_ context.Context, path string, _ *domain.Changeset) error {
	w.restoredPaths = append(w.restoredPaths, path)
	delete(w.deleted, path)
	return nil
}

func (w *fakeChangesetWriter) Delete(_ context.Context, path string) error {
	w.deleted[path] = true
	return nil
}

// testFixture bundles one package, one changeset, and the fakes wired
// into a Runtime/PlanInput pair ready for Execute.
type testFixture struct {
	manifests  *fakeManifests
	changelogs *fakeChangelogs
	git        *fakeGit
	state      *fakeState
	changesets *fakeChangesetWriter
	rt         Runtime
	in         PlanInput
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	current, err := semver.NewVersion("1.2.0")
	require.NoError(t, err)

	pkg := domain.Package{Name: "widget", Version: current, ManifestPath: "widget/Cargo.toml"}
	cs := &domain.Changeset{
		Path:     ".changesets/fuzzy-lion.md",
		Summary:  "fix a bug",
		Releases: []domain.PackageRelease{{Package: "widget", Bump: domain.BumpPatch}},
		Category: domain.CategoryFixed,
	}

	manifests := newFakeManifests(map[string]*semver.Version{pkg.ManifestPath: current})
	changelogs := newFakeChangelogs()
	git := &fakeGit{clean: true}
	state := &fakeState{}
	changesets := newFakeChangesetWriter()

	logger := zap.NewNop()

	f := &testFixture{
		manifests:  manifests,
		changelogs: changelogs,
		git:        git,
		state:      state,
		changesets: changesets,
		rt: Runtime{
			Providers: Providers{
				Manifests:       manifests,
				Changelogs:      changelogs,
				Git:             git,
				State:           state,
				ChangesetWriter: changesets,
			},
			Options: Options{},
			Logger:  logger,
		},
		in: PlanInput{
			Workspace: &provider.Workspace{
				Root:     ".",
				Kind:     provider.KindSinglePackage,
				Packages: []domain.Package{pkg},
			},
			ProjectConfig: domain.DefaultProjectConfig(),
			ChangesetDir:  ".changesets",
			PlannerInput: release.Input{
				Packages:       []domain.Package{pkg},
				Pending:        []*domain.Changeset{cs},
				ProjectConfig:  *domain.DefaultProjectConfig(),
				PackageConfigs: map[string]domain.PackageConfig{},
			},
		},
	}
	return f
}

func TestExecute_Success(t *testing.T) {
	f := newTestFixture(t)

	outcome, err := Execute(context.Background(), f.rt, f.in)
	require.NoError(t, err)

	require.Len(t, outcome.Data.Plan.Plan.Releases, 1)
	assert.Equal(t, "1.2.1", outcome.Data.Plan.Plan.Releases[0].New.String())
	assert.Equal(t, "1.2.1", f.manifests.versions["widget/Cargo.toml"].String())
	assert.True(t, f.git.commits == 1)
	require.Len(t, f.git.tagsCreated, 1)
	assert.Equal(t, "v1.2.1", f.git.tagsCreated[0])
	assert.True(t, f.changesets.deleted[".changesets/fuzzy-lion.md"])
	assert.Equal(t, "updated", f.changelogs.content["CHANGELOG.md"])

	for _, rec := range outcome.Audit.Summary() {
		assert.NotContains(t, rec, "failed")
	}
}

func TestExecute_DryRunStopsAfterPlan(t *testing.T) {
	f := newTestFixture(t)
	f.rt.Options.DryRun = true

	outcome, err := Execute(context.Background(), f.rt, f.in)
	require.NoError(t, err)

	assert.Equal(t, "1.2.0", f.manifests.versions["widget/Cargo.toml"].String())
	assert.Equal(t, 0, f.git.commits)
	assert.Empty(t, f.git.tagsCreated)
	assert.False(t, f.changesets.deleted[".changesets/fuzzy-lion.md"])
	require.Len(t, outcome.Data.Plan.Plan.Releases, 1)
}

func TestExecute_RollsBackOnTagFailure(t *testing.T) {
	f := newTestFixture(t)
	f.git.tagErr = errors.New("remote rejected tag")

	outcome, err := Execute(context.Background(), f.rt, f.in)
	require.Error(t, err)

	var stepErr *saga.StepFailedError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "create_tags", stepErr.Step)

	// the commit step created a commit before create_tags failed, so its
	// compensation must reset the working copy.
	assert.Equal(t, 1, f.git.resetToParentCalls)
	// write_manifests and write_changelogs compensation restore prior state.
	assert.Equal(t, "1.2.0", f.manifests.versions["widget/Cargo.toml"].String())
	assert.Equal(t, "", f.changelogs.content["CHANGELOG.md"])
	// delete_or_clear_changesets never ran (it is S8, after create_tags).
	assert.False(t, f.changesets.deleted[".changesets/fuzzy-lion.md"])
	require.NotNil(t, outcome)
}

func TestExecute_PreflightRejectsDirtyTreeWithoutForce(t *testing.T) {
	f := newTestFixture(t)
	f.git.clean = false

	_, err := Execute(context.Background(), f.rt, f.in)
	require.Error(t, err)
	assert.Equal(t, "1.2.0", f.manifests.versions["widget/Cargo.toml"].String())
}

func TestExecute_ForceSkipsCleanTreeCheck(t *testing.T) {
	f := newTestFixture(t)
	f.git.clean = false
	f.rt.Options.Force = true

	_, err := Execute(context.Background(), f.rt, f.in)
	require.NoError(t, err)
}

func TestExecute_NoChangesetsReturnsErrNoChangesets(t *testing.T) {
	f := newTestFixture(t)
	f.in.PlannerInput.Pending = nil

	_, err := Execute(context.Background(), f.rt, f.in)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNoChangesets)
}
