package release

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/changeset-release/changeset/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustVer(s string) *semver.Version {
	v, err := semver.NewVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func pkg(name, version string) domain.Package {
	return domain.Package{Name: name, Version: mustVer(version), ManifestPath: name + "/manifest"}
}

func cs(path string, releases ...domain.PackageRelease) *domain.Changeset {
	return &domain.Changeset{Path: path, Releases: releases, Category: domain.CategoryFixed, Summary: "change"}
}

func baseInput(packages ...domain.Package) Input {
	return Input{
		Packages:        packages,
		PrereleaseState: domain.PrereleaseState{},
		GraduationState: domain.GraduationState{},
		PackageConfigs:  map[string]domain.PackageConfig{},
		ProjectConfig:   domain.ProjectConfig{ZeroVersionMode: domain.ZeroVersionEffectiveMinor},
	}
}

func TestPlan(t *testing.T) {
	t.Run("Should plan a simple patch release", func(t *testing.T) {
		in := baseInput(pkg("my-crate", "1.0.0"))
		in.Pending = []*domain.Changeset{cs("a.md", domain.PackageRelease{Package: "my-crate", Bump: domain.BumpPatch})}
		res, err := Plan(in)
		require.NoError(t, err)
		require.Len(t, res.Plan.Releases, 1)
		assert.Equal(t, "1.0.1", res.Plan.Releases[0].New.String())
		assert.Equal(t, []string{"a.md"}, res.Plan.ConsumedFiles)
	})

	t.Run("Should aggregate multiple changesets to the max bump", func(t *testing.T) {
		in := baseInput(pkg("my-crate", "1.0.0"))
		in.Pending = []*domain.Changeset{
			cs("a.md", domain.PackageRelease{Package: "my-crate", Bump: domain.BumpPatch}),
			cs("b.md", domain.PackageRelease{Package: "my-crate", Bump: domain.BumpMinor}),
		}
		res, err := Plan(in)
		require.NoError(t, err)
		assert.Equal(t, "1.1.0", res.Plan.Releases[0].New.String())
	})

	t.Run("Should downgrade a major bump to minor for a zero-version package in EffectiveMinor mode", func(t *testing.T) {
		in := baseInput(pkg("my-crate", "0.2.3"))
		in.Pending = []*domain.Changeset{cs("a.md", domain.PackageRelease{Package: "my-crate", Bump: domain.BumpMajor})}
		res, err := Plan(in)
		require.NoError(t, err)
		assert.Equal(t, "0.3.0", res.Plan.Releases[0].New.String())
	})

	t.Run("Should auto-promote a zero-version major request in AutoPromoteOnMajor mode", func(t *testing.T) {
		in := baseInput(pkg("my-crate", "0.2.3"))
		in.ProjectConfig.ZeroVersionMode = domain.ZeroVersionAutoPromoteOnMajor
		in.Pending = []*domain.Changeset{cs("a.md", domain.PackageRelease{Package: "my-crate", Bump: domain.BumpMajor})}
		res, err := Plan(in)
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", res.Plan.Releases[0].New.String())
	})

	t.Run("Should warn and skip a changeset targeting an unknown package", func(t *testing.T) {
		in := baseInput(pkg("my-crate", "1.0.0"))
		in.Pending = []*domain.Changeset{cs("a.md", domain.PackageRelease{Package: "ghost", Bump: domain.BumpPatch})}
		res, err := Plan(in)
		require.NoError(t, err)
		assert.Empty(t, res.Plan.Releases)
		assert.Len(t, res.Plan.Warnings, 1)
	})

	t.Run("Should produce a prerelease version and mark the changeset for consumption", func(t *testing.T) {
		in := baseInput(pkg("my-crate", "1.0.0"))
		in.Pending = []*domain.Changeset{cs("a.md", domain.PackageRelease{Package: "my-crate", Bump: domain.BumpMinor})}
		tag := "alpha"
		in.GlobalPrerelease = &tag
		res, err := Plan(in)
		require.NoError(t, err)
		require.Len(t, res.Entries, 1)
		assert.Equal(t, "1.1.0-alpha.1", res.Entries[0].Version.New.String())
		assert.True(t, res.Entries[0].MarkConsumed)
		assert.Equal(t, "alpha", res.NewPrereleaseState["my-crate"])
	})

	t.Run("Should graduate an in-flight prerelease to stable with no new changesets", func(t *testing.T) {
		in := baseInput(pkg("my-crate", "1.1.0-alpha.1"))
		in.PrereleaseState = domain.PrereleaseState{"my-crate": "alpha"}
		in.Consumed = []*domain.Changeset{cs("a.md", domain.PackageRelease{Package: "my-crate", Bump: domain.BumpMinor})}
		res, err := Plan(in)
		require.NoError(t, err)
		require.Len(t, res.Entries, 1)
		assert.Equal(t, "1.1.0", res.Entries[0].Version.New.String())
		assert.True(t, res.Entries[0].Graduated)
		assert.Contains(t, res.Plan.ConsumedFiles, "a.md")
		_, stillPre := res.NewPrereleaseState["my-crate"]
		assert.False(t, stillPre)
	})

	t.Run("Should graduate a package queued in GraduationState to 1.0.0", func(t *testing.T) {
		in := baseInput(pkg("my-crate", "0.9.0"))
		in.GraduationState = domain.GraduationState{"my-crate"}
		in.GraduateAll = true
		res, err := Plan(in)
		require.NoError(t, err)
		require.Len(t, res.Entries, 1)
		assert.Equal(t, "1.0.0", res.Entries[0].Version.New.String())
		assert.NotContains(t, res.NewGraduationState, "my-crate")
	})

	t.Run("Should apply a requested prerelease tag on top of a graduation instead of discarding it", func(t *testing.T) {
		in := baseInput(pkg("my-crate", "0.9.0"))
		in.GraduationState = domain.GraduationState{"my-crate"}
		in.GraduateAll = true
		tag := "alpha"
		in.GlobalPrerelease = &tag
		res, err := Plan(in)
		require.NoError(t, err)
		require.Len(t, res.Entries, 1)
		assert.Equal(t, "1.0.0-alpha.1", res.Entries[0].Version.New.String())
		assert.True(t, res.Entries[0].MarkConsumed)
		assert.Equal(t, "alpha", res.NewPrereleaseState["my-crate"])
		assert.NotContains(t, res.NewGraduationState, "my-crate")
	})

	t.Run("Should return an empty plan without error when nothing is pending", func(t *testing.T) {
		in := baseInput(pkg("my-crate", "2.0.0"))
		in.GraduationState = domain.GraduationState{}
		in.Pending = nil
		_, err := Plan(in)
		require.NoError(t, err) // empty plan, nothing touched
	})
}
