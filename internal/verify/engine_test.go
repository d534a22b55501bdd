package verify

import (
	"context"
	"testing"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Run(t *testing.T) {
	packages := []domain.Package{
		{Name: "root", ManifestPath: "manifest.toml"},
		{Name: "nested", ManifestPath: "packages/nested/manifest.toml"},
	}

	t.Run("Should attribute files to the most specific package", func(t *testing.T) {
		vctx := &Context{
			ChangedFiles: []string{"packages/nested/src/lib.go", "src/main.go"},
			Packages:     packages,
			Changesets: []*domain.Changeset{
				{Releases: []domain.PackageRelease{{Package: "nested", Bump: domain.BumpPatch}}},
			},
		}
		result, err := NewEngine().Run(context.Background(), vctx)
		require.NoError(t, err)
		assert.True(t, result.AffectedPackages["nested"])
		assert.True(t, result.AffectedPackages["root"])
		assert.Equal(t, []string{"root"}, result.UncoveredPackages)
	})

	t.Run("Should report uncovered packages", func(t *testing.T) {
		vctx := &Context{
			ChangedFiles: []string{"packages/nested/src/lib.go"},
			Packages:     packages,
			Changesets:   nil,
		}
		result, err := NewEngine().Run(context.Background(), vctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"nested"}, result.UncoveredPackages)
		assert.False(t, result.IsSuccess())
	})

	t.Run("Should fail on a deleted changeset file unless allowed", func(t *testing.T) {
		vctx := &Context{
			DeletedFiles: []string{".changesets/changesets/abc.md"},
		}
		result, err := NewEngine().Run(context.Background(), vctx)
		require.NoError(t, err)
		assert.NotEmpty(t, result.Failures)

		vctx2 := &Context{
			DeletedFiles: []string{".changesets/changesets/abc.md"},
			AllowDeleted: true,
		}
		result2, err := NewEngine().Run(context.Background(), vctx2)
		require.NoError(t, err)
		assert.Empty(t, result2.Failures)
	})

	t.Run("Should file ignored-glob files separately", func(t *testing.T) {
		vctx := &Context{
			ChangedFiles: []string{"README.md"},
			Packages:     packages,
			RootIgnore:   []string{"README.md"},
		}
		result, err := NewEngine().Run(context.Background(), vctx)
		require.NoError(t, err)
		assert.Contains(t, vctx.IgnoredFiles, "README.md")
		assert.False(t, result.AffectedPackages["root"])
	})
}
