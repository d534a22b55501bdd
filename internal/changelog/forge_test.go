package changelog

import (
	"testing"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectForge(t *testing.T) {
	cases := []struct {
		url   string
		forge domain.Forge
	}{
		{"https://github.com/acme/widgets.git", domain.ForgeGitHub},
		{"git@github.com:acme/widgets.git", domain.ForgeGitHub},
		{"https://gitlab.com/acme/widgets", domain.ForgeGitLab},
		{"https://gitlab.example.com/acme/widgets", domain.ForgeGitLab},
		{"https://bitbucket.org/acme/widgets", domain.ForgeBitbucket},
		{"https://codeberg.org/acme/widgets", domain.ForgeGitea},
		{"https://gitea.example.com/acme/widgets", domain.ForgeGitea},
		{"https://git.sr.ht/~acme/widgets", domain.ForgeSourceHut},
		{"https://example.internal/acme/widgets", domain.ForgeGitHub},
	}
	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			info, err := DetectForge(tc.url)
			require.NoError(t, err)
			assert.Equal(t, tc.forge, info.Forge)
		})
	}
}

func TestCompareURL(t *testing.T) {
	t.Run("Should reverse argument order for Bitbucket", func(t *testing.T) {
		info, err := DetectForge("https://bitbucket.org/acme/widgets")
		require.NoError(t, err)
		url := CompareURL(info, "v1.0.0", "v1.1.0")
		assert.Equal(t, "https://bitbucket.org/acme/widgets/branches/compare/v1.1.0..v1.0.0", url)
	})

	t.Run("Should use single tilde and double-dot for SourceHut", func(t *testing.T) {
		info, err := DetectForge("https://git.sr.ht/~acme/widgets")
		require.NoError(t, err)
		url := CompareURL(info, "v1.0.0", "v1.1.0")
		assert.Equal(t, "https://git.sr.ht/~acme/widgets/log/v1.0.0..v1.1.0", url)
	})

	t.Run("Should use triple-dot compare for GitHub", func(t *testing.T) {
		info, err := DetectForge("https://github.com/acme/widgets")
		require.NoError(t, err)
		url := CompareURL(info, "v1.0.0", "v1.1.0")
		assert.Equal(t, "https://github.com/acme/widgets/compare/v1.0.0...v1.1.0", url)
	})

	t.Run("Should use GitHub-style compare with no /-/ segment for Gitea", func(t *testing.T) {
		info, err := DetectForge("https://codeberg.org/acme/widgets")
		require.NoError(t, err)
		url := CompareURL(info, "v1.0.0", "v1.1.0")
		assert.Equal(t, "https://codeberg.org/acme/widgets/compare/v1.0.0...v1.1.0", url)
	})

	t.Run("Should use /-/ compare for GitLab", func(t *testing.T) {
		info, err := DetectForge("https://gitlab.com/acme/widgets")
		require.NoError(t, err)
		url := CompareURL(info, "v1.0.0", "v1.1.0")
		assert.Equal(t, "https://gitlab.com/acme/widgets/-/compare/v1.0.0...v1.1.0", url)
	})

	t.Run("Should honor a caller-supplied template override", func(t *testing.T) {
		info, err := DetectForge("https://github.com/acme/widgets")
		require.NoError(t, err)
		info.CompareTmpl = "https://custom.example/{repository}/compare/{base}...{target}"
		url := CompareURL(info, "v1.0.0", "v1.1.0")
		assert.Equal(t, "https://custom.example/acme/widgets/compare/v1.0.0...v1.1.0", url)
	})
}
