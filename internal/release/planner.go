// Package release implements the release planner (spec component C3):
// mapping pending changesets to a per-package version bump plan, honoring
// prerelease and graduation rules.
package release

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/changeset-release/changeset/internal/domain"
)

// PackageEntry is the changelog-aggregation input for one released
// package: the planned version plus every changeset whose entries belong
// in that release's changelog section (newly-pending ones, and, on a
// prerelease-to-stable graduation, every changeset previously marked
// consumed for that package's in-flight prerelease).
type PackageEntry struct {
	Version      domain.PackageVersion
	Changesets   []*domain.Changeset
	MarkConsumed bool // true: this release is itself a prerelease (mark, don't delete)
	Graduated    bool // true: this release is a prerelease->stable or 0.x->1.0 graduation
}

// Result is the planner's full output.
type Result struct {
	Plan     *domain.Plan
	Entries  []PackageEntry
	NewPrereleaseState domain.PrereleaseState
	NewGraduationState domain.GraduationState
}

// Input bundles everything the planner needs.
type Input struct {
	Packages         []domain.Package
	Pending          []*domain.Changeset // list_pending, already sorted by filename
	Consumed         []*domain.Changeset // list_consumed, already sorted by filename
	PrereleaseState  domain.PrereleaseState
	GraduationState  domain.GraduationState
	PackageConfigs   map[string]domain.PackageConfig
	ProjectConfig    domain.ProjectConfig
	GraduateAll      bool
	GlobalPrerelease *string // caller's --prerelease flag, if any
}

// Plan runs the full planning algorithm described in spec §4.3.
func Plan(in Input) (*Result, error) {
	byName := make(map[string]domain.Package, len(in.Packages))
	for _, p := range in.Packages {
		byName[p.Name] = p
	}

	maxBump := make(map[string]domain.BumpType)
	var warnings []string
	consumedFiles := make(map[string]bool)
	changesetsByPackage := make(map[string][]*domain.Changeset)

	for _, cs := range in.Pending {
		for _, r := range cs.Releases {
			if _, ok := byName[r.Package]; !ok {
				warnings = append(warnings, fmt.Sprintf("changeset %s targets unknown package %q; skipped", cs.Path, r.Package))
				continue
			}
			if existing, ok := maxBump[r.Package]; ok {
				maxBump[r.Package] = domain.MaxBump(existing, r.Bump)
			} else {
				maxBump[r.Package] = r.Bump
			}
			changesetsByPackage[r.Package] = append(changesetsByPackage[r.Package], cs)
			consumedFiles[cs.Path] = true
		}
	}

	touched := make(map[string]bool, len(maxBump))
	for name := range maxBump {
		touched[name] = true
	}
	if in.GraduateAll {
		for _, name := range in.GraduationState {
			touched[name] = true
		}
	}
	// A package mid-prerelease is always touched: a bare `release` call
	// (no --prerelease flag) must be able to finalize it to stable even
	// with no new pending changesets (spec §8 scenario 5).
	for name := range in.PrereleaseState {
		touched[name] = true
	}

	names := make([]string, 0, len(touched))
	for _, p := range in.Packages {
		if touched[p.Name] {
			names = append(names, p.Name)
		}
	}

	newPrerelease := cloneState(in.PrereleaseState)
	newGraduation := append(domain.GraduationState{}, in.GraduationState...)

	var entries []PackageEntry
	for _, name := range names {
		pkg := byName[name]
		bump, hasBump := maxBump[name]
		pkgCfg := in.PackageConfigs[name]
		entry, err := planPackage(pkg, bump, hasBump, pkgCfg, in, &newPrerelease, &newGraduation)
		if err != nil {
			return nil, err
		}
		entry.Changesets = changesetsByPackage[name]
		if entry.Graduated {
			entry.Changesets = append(append([]*domain.Changeset{}, entry.Changesets...), consumedFor(name, in.Consumed)...)
			for _, cs := range consumedFor(name, in.Consumed) {
				consumedFiles[cs.Path] = true
			}
		}
		entries = append(entries, entry)
	}

	plan := &domain.Plan{Warnings: warnings}
	for _, e := range entries {
		plan.Releases = append(plan.Releases, e.Version)
	}
	for path := range consumedFiles {
		plan.ConsumedFiles = append(plan.ConsumedFiles, path)
	}
	sort.Strings(plan.ConsumedFiles)

	for _, e := range entries {
		if e.Version.New.Compare(e.Version.Current) <= 0 {
			return nil, fmt.Errorf("package %s: new version %s must be greater than current version %s",
				e.Version.Name, e.Version.New, e.Version.Current)
		}
	}

	return &Result{Plan: plan, Entries: entries, NewPrereleaseState: newPrerelease, NewGraduationState: newGraduation}, nil
}

func consumedFor(pkg string, consumed []*domain.Changeset) []*domain.Changeset {
	var out []*domain.Changeset
	for _, cs := range consumed {
		for _, r := range cs.Releases {
			if r.Package == pkg {
				out = append(out, cs)
				break
			}
		}
	}
	return out
}

func cloneState(s domain.PrereleaseState) domain.PrereleaseState {
	out := make(domain.PrereleaseState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func planPackage(
	pkg domain.Package,
	bump domain.BumpType,
	hasBump bool,
	pkgCfg domain.PackageConfig,
	in Input,
	prerelease *domain.PrereleaseState,
	graduation *domain.GraduationState,
) (PackageEntry, error) {
	graduate := pkgCfg.GraduateZero ||
		(in.GraduateAll && pkg.Version.Major() == 0) ||
		in.GraduationState.Contains(pkg.Name)

	tag := pkgCfg.Prerelease
	if tag == "" && in.GlobalPrerelease != nil {
		tag = *in.GlobalPrerelease
	}

	currentPre := pkg.Version.Prerelease()
	currentTag, currentN := splitPrerelease(currentPre)
	base := stripPrerelease(pkg.Version)

	if graduate {
		stable, _ := semver.NewVersion("1.0.0")
		*graduation = graduation.Without(pkg.Name)
		b := bump
		if !hasBump {
			b = domain.BumpMajor
		}
		if tag != "" {
			// Graduation computes Vs (1.0.0) first, then the prerelease
			// tag is applied on top of Vs through the same suffix path
			// as a plain prerelease bump, per spec §4.3 step 2.
			newV, err := applyPrereleaseTag(stable, tag, currentTag, currentN)
			if err != nil {
				return PackageEntry{}, err
			}
			(*prerelease)[pkg.Name] = tag
			return PackageEntry{
				Version:      domain.PackageVersion{Name: pkg.Name, Current: pkg.Version, New: newV, Bump: b},
				MarkConsumed: true,
				Graduated:    true,
			}, nil
		}
		delete(*prerelease, pkg.Name)
		return PackageEntry{
			Version:   domain.PackageVersion{Name: pkg.Name, Current: pkg.Version, New: stable, Bump: b},
			Graduated: true,
		}, nil
	}

	if tag != "" {
		var target *semver.Version
		if currentTag == tag {
			// Same in-flight prerelease tag: bump only the numeric
			// suffix, the base version was already fixed when this
			// prerelease started.
			target = base
		} else if hasBump {
			target = targetStable(pkg.Version, bump, in.ProjectConfig.ZeroVersionMode)
		} else {
			target = base
		}
		newV, err := applyPrereleaseTag(target, tag, currentTag, currentN)
		if err != nil {
			return PackageEntry{}, err
		}
		(*prerelease)[pkg.Name] = tag
		return PackageEntry{
			Version:      domain.PackageVersion{Name: pkg.Name, Current: pkg.Version, New: newV, Bump: bump},
			MarkConsumed: true,
		}, nil
	}

	if currentPre != "" {
		// Prerelease -> stable graduation: no tag requested this run.
		// The stable version is the prerelease's own base; any newly
		// pending changeset for this package is folded into this same
		// stable release rather than bumping further.
		delete(*prerelease, pkg.Name)
		return PackageEntry{
			Version:      domain.PackageVersion{Name: pkg.Name, Current: pkg.Version, New: base, Bump: bump},
			MarkConsumed: false,
			Graduated:    true,
		}, nil
	}

	target := targetStable(pkg.Version, bump, in.ProjectConfig.ZeroVersionMode)
	return PackageEntry{
		Version: domain.PackageVersion{Name: pkg.Name, Current: pkg.Version, New: target, Bump: bump},
	}, nil
}

// applyPrereleaseTag formats target as a "tag.N" prerelease of the given
// tag, continuing the numeric suffix if currentTag already matches tag
// and starting a fresh one (N=1) otherwise.
func applyPrereleaseTag(target *semver.Version, tag, currentTag string, currentN int) (*semver.Version, error) {
	n := 0
	if currentTag == tag {
		n = currentN
	}
	n++
	return semver.NewVersion(fmt.Sprintf("%d.%d.%d-%s.%d", target.Major(), target.Minor(), target.Patch(), tag, n))
}

// stripPrerelease returns v's major.minor.patch with no prerelease or
// build metadata.
func stripPrerelease(v *semver.Version) *semver.Version {
	out, _ := semver.NewVersion(fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch()))
	return out
}

// targetStable applies invariant 5's zero-version rule.
func targetStable(current *semver.Version, bump domain.BumpType, mode domain.ZeroVersionMode) *semver.Version {
	if current.Major() == 0 {
		switch mode {
		case domain.ZeroVersionAutoPromoteOnMajor:
			if bump == domain.BumpMajor {
				v, _ := semver.NewVersion("1.0.0")
				return v
			}
		default: // EffectiveMinor
			switch bump {
			case domain.BumpMajor:
				bump = domain.BumpMinor
			case domain.BumpMinor:
				bump = domain.BumpPatch
			}
		}
	}
	return bumpVersion(current, bump)
}

func bumpVersion(v *semver.Version, bump domain.BumpType) *semver.Version {
	var out semver.Version
	switch bump {
	case domain.BumpMajor:
		out = v.IncMajor()
	case domain.BumpMinor:
		out = v.IncMinor()
	default:
		out = v.IncPatch()
	}
	return &out
}

// splitPrerelease splits a semver prerelease string of the form
// "tag.N" into its tag and numeric suffix (0 if absent/unparseable).
func splitPrerelease(pre string) (string, int) {
	if pre == "" {
		return "", 0
	}
	idx := -1
	for i := len(pre) - 1; i >= 0; i-- {
		if pre[i] == '.' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return pre, 0
	}
	tag := pre[:idx]
	n := 0
	for _, c := range pre[idx+1:] {
		if c < '0' || c > '9' {
			return pre, 0
		}
		n = n*10 + int(c-'0')
	}
	return tag, n
}
