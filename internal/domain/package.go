package domain

import "github.com/Masterminds/semver/v3"

// Package is a member of the workspace. Identity is Name; it is created
// by workspace discovery and mutated only through a ManifestWriter.
type Package struct {
	Name         string
	Version      *semver.Version
	ManifestPath string
}

// ProjectConfig is the root build manifest's tool-specific metadata
// table.
type ProjectConfig struct {
	IgnoredFiles          []string
	ChangesetDir          string
	TagFormat             TagFormat
	ChangelogPolicy       ChangelogPolicy
	ComparisonLinkPolicy  ComparisonLinkPolicy
	ZeroVersionMode       ZeroVersionMode
	DefaultNoCommit       bool
	DefaultNoTags         bool
	DefaultKeepChangesets bool
}

// PackageConfig is a per-package metadata table.
type PackageConfig struct {
	IgnoredFiles []string
	Prerelease   string
	GraduateZero bool
}

// TagFormat selects how release tags are named.
type TagFormat string

const (
	TagFormatVersionOnly   TagFormat = "version_only"
	TagFormatCratePrefixed TagFormat = "crate_prefixed"
)

// ChangelogPolicy selects where changelog entries are written.
type ChangelogPolicy string

const (
	ChangelogPolicyRoot       ChangelogPolicy = "root"
	ChangelogPolicyPerPackage ChangelogPolicy = "per_package"
)

// ComparisonLinkPolicy toggles the forge compare-URL link appended to a
// changelog entry.
type ComparisonLinkPolicy string

const (
	ComparisonLinkAuto ComparisonLinkPolicy = "auto"
	ComparisonLinkOff  ComparisonLinkPolicy = "off"
)

// ZeroVersionMode selects how a Major bump request against a 0.x package
// is handled.
type ZeroVersionMode string

const (
	ZeroVersionEffectiveMinor     ZeroVersionMode = "effective_minor"
	ZeroVersionAutoPromoteOnMajor ZeroVersionMode = "auto_promote_on_major"
)

// DefaultProjectConfig returns the spec's default project configuration.
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		ChangesetDir:    ".changesets",
		TagFormat:       TagFormatVersionOnly,
		ChangelogPolicy: ChangelogPolicyRoot,
		ZeroVersionMode: ZeroVersionEffectiveMinor,
	}
}
