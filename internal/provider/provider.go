// Package provider declares the contract surface the release saga and the
// simpler CLI operations (add/verify/status/init) depend on. Every
// interface here is a pure abstraction over I/O; concrete
// implementations live in internal/repository.
package provider

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/changeset-release/changeset/internal/domain"
)

// WorkspaceKind classifies the shape of a discovered workspace.
type WorkspaceKind string

const (
	KindSinglePackage    WorkspaceKind = "single_package"
	KindWorkspaceWithRoot WorkspaceKind = "workspace_with_root"
	KindVirtualWorkspace WorkspaceKind = "virtual_workspace"
)

// Workspace describes the discovered repository layout.
type Workspace struct {
	Root     string
	Kind     WorkspaceKind
	Packages []domain.Package
}

// ProjectProvider discovers the workspace and locates per-project/package
// configuration.
type ProjectProvider interface {
	DiscoverWorkspace(ctx context.Context, root string) (*Workspace, error)
	LoadRootConfig(ctx context.Context, ws *Workspace) (*domain.ProjectConfig, error)
	LoadPackageConfig(ctx context.Context, pkg *domain.Package) (*domain.PackageConfig, error)
	EnsureChangesetDir(ctx context.Context, ws *Workspace, cfg *domain.ProjectConfig) (string, error)
}

// ChangesetReader reads changeset files from a changeset directory.
type ChangesetReader interface {
	Read(ctx context.Context, path string) (*domain.Changeset, error)
	ListPending(ctx context.Context, dir string) ([]*domain.Changeset, error)
	ListConsumed(ctx context.Context, dir string) ([]*domain.Changeset, error)
}

// ChangesetWriter mutates changeset files. Write returns the generated
// filename. Filenames are human-friendly random tokens, unique within
// the target directory.
type ChangesetWriter interface {
	Write(ctx context.Context, dir string, cs *domain.Changeset) (string, error)
	MarkConsumed(ctx context.Context, dir string, paths []string, version string) error
	ClearConsumed(ctx context.Context, dir string, paths []string) error
	Restore(ctx context.Context, path string, cs *domain.Changeset) error
	Delete(ctx context.Context, path string) error
}

// ManifestWriter mutates a package manifest's version field.
type ManifestWriter interface {
	WriteVersion(ctx context.Context, path string, newVersion *semver.Version) error
	VerifyVersion(ctx context.Context, path string, expected *semver.Version) error
	RemoveWorkspaceVersion(ctx context.Context, rootManifest string) error
	HasInheritedVersion(ctx context.Context, path string) (bool, error)
	InlineInheritedVersion(ctx context.Context, path string, version *semver.Version) error
	RestoreInheritedVersion(ctx context.Context, path string) error
}

// ChangelogWriter mutates per-package or root changelog files.
type ChangelogWriter interface {
	WriteRelease(
		ctx context.Context,
		path string,
		release *domain.VersionRelease,
		repoInfo *domain.RepositoryInfo,
		previousVersion *semver.Version,
	) error
	Restore(ctx context.Context, path string, previousContent string) error
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	ReadContent(ctx context.Context, path string) (string, error)
}

// CommitInfo identifies a VCS commit created by the saga.
type CommitInfo struct {
	Hash    string
	Message string
}

// TagInfo identifies a VCS tag created by the saga.
type TagInfo struct {
	Name    string
	Message string
	Hash    string
}

// GitProvider is the opaque VCS collaborator the saga depends on.
type GitProvider interface {
	ChangedFiles(ctx context.Context, base, head string) ([]string, error)
	IsClean(ctx context.Context) (bool, error)
	CurrentBranch(ctx context.Context) (string, error)
	Stage(ctx context.Context, paths []string) error
	Commit(ctx context.Context, message string) (*CommitInfo, error)
	CreateTag(ctx context.Context, name, message string) (*TagInfo, error)
	TagExists(ctx context.Context, name string) (bool, error)
	DeleteTag(ctx context.Context, name string) error
	DeleteFiles(ctx context.Context, paths []string) error
	ResetToParent(ctx context.Context) error
	RemoteURL(ctx context.Context, remoteName string) (string, error)
}

// ReleaseStateIO persists the prerelease and graduation state files.
// Absence of a file is treated as empty state; saving empty state
// deletes the file.
type ReleaseStateIO interface {
	LoadPrereleaseState(ctx context.Context, changesetDir string) (domain.PrereleaseState, error)
	SavePrereleaseState(ctx context.Context, changesetDir string, state domain.PrereleaseState) error
	LoadGraduationState(ctx context.Context, changesetDir string) (domain.GraduationState, error)
	SaveGraduationState(ctx context.Context, changesetDir string, state domain.GraduationState) error
}
