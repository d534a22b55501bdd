package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/changeset-release/changeset/internal/changelog"
	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/provider"
	"github.com/spf13/afero"
)

const changelogFilePerm = 0644

// changelogFS implements provider.ChangelogWriter over an afero
// filesystem, delegating section rendering to internal/changelog.
type changelogFS struct {
	fs afero.Fs
}

// NewChangelogFS returns a provider.ChangelogWriter backed by fs.
func NewChangelogFS(fs afero.Fs) provider.ChangelogWriter {
	return &changelogFS{fs: fs}
}

func (c *changelogFS) WriteRelease(
	_ context.Context,
	path string,
	release *domain.VersionRelease,
	repoInfo *domain.RepositoryInfo,
	previousVersion *semver.Version,
) error {
	existing := ""
	if data, err := afero.ReadFile(c.fs, path); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read changelog %s: %w", path, err)
	}
	prev := ""
	if previousVersion != nil {
		prev = previousVersion.String()
	}
	updated := changelog.Update(existing, release, repoInfo, prev)
	if err := afero.WriteFile(c.fs, path, []byte(updated), changelogFilePerm); err != nil {
		return fmt.Errorf("failed to write changelog %s: %w", path, err)
	}
	return nil
}

// Restore overwrites path with previousContent, used during
// compensation.
func (c *changelogFS) Restore(_ context.Context, path string, previousContent string) error {
	if err := afero.WriteFile(c.fs, path, []byte(previousContent), changelogFilePerm); err != nil {
		return fmt.Errorf("failed to restore changelog %s: %w", path, err)
	}
	return nil
}

// Delete removes path, used during compensation when the changelog
// didn't exist before the saga created it.
func (c *changelogFS) Delete(_ context.Context, path string) error {
	if err := c.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete changelog %s: %w", path, err)
	}
	return nil
}

func (c *changelogFS) Exists(_ context.Context, path string) (bool, error) {
	_, err := c.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat changelog %s: %w", path, err)
	}
	return true, nil
}

func (c *changelogFS) ReadContent(_ context.Context, path string) (string, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read changelog %s: %w", path, err)
	}
	return string(data), nil
}
