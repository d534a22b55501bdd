package domain

import (
	"time"

	"github.com/Masterminds/semver/v3"
)

// ChangelogEntry is one rendered line within a VersionRelease. Package is
// set only on root-level releases, where entries are prefixed by the
// package name they came from.
type ChangelogEntry struct {
	Category    Category
	Description string
	Package     *string
}

// VersionRelease is the aggregated input to changelog rendering for one
// version of one package (or the root release).
type VersionRelease struct {
	Version *semver.Version
	Date    time.Time
	Entries []ChangelogEntry
}

// Forge identifies a hosted VCS platform, used to synthesize compare-URL
// links in changelog output.
type Forge string

const (
	ForgeGitHub    Forge = "github"
	ForgeGitLab    Forge = "gitlab"
	ForgeBitbucket Forge = "bitbucket"
	ForgeGitea     Forge = "gitea"
	ForgeSourceHut Forge = "sourcehut"
)

// RepositoryInfo describes a remote repository well enough to build a
// forge compare URL.
type RepositoryInfo struct {
	Forge       Forge
	Host        string
	Owner       string
	Repo        string
	WebBaseURL  string
	CompareTmpl string // optional caller-supplied override template
}
