package domain

import "github.com/Masterminds/semver/v3"

// PackageVersion is one package's planned release.
type PackageVersion struct {
	Name    string
	Current *semver.Version
	New     *semver.Version
	Bump    BumpType
}

// Plan is the release planner's output: the packages to release plus the
// changeset files that contributed to it, in package-discovery order.
type Plan struct {
	Releases      []PackageVersion
	ConsumedFiles []string
	Warnings      []string
}

// IsEmpty reports whether the plan has nothing to release (the
// NoChangesets boundary case).
func (p *Plan) IsEmpty() bool {
	return len(p.Releases) == 0
}
