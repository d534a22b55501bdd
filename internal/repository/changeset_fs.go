package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/changeset-release/changeset/internal/changeset"
	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/provider"
	"github.com/spf13/afero"
)

const changesetFilePerm = 0644

// changesetFS implements provider.ChangesetReader and
// provider.ChangesetWriter over an afero filesystem, delegating parsing
// and rendering to internal/changeset.
type changesetFS struct {
	fs afero.Fs
}

// NewChangesetFS returns a combined ChangesetReader/ChangesetWriter
// backed by fs.
func NewChangesetFS(fs afero.Fs) *changesetFS {
	return &changesetFS{fs: fs}
}

func (c *changesetFS) Read(_ context.Context, path string) (*domain.Changeset, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read changeset %s: %w", path, err)
	}
	return changeset.Parse(path, data)
}

func (c *changesetFS) listMarkdown(dir string) ([]string, error) {
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list changeset directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (c *changesetFS) readAll(dir string) ([]*domain.Changeset, error) {
	paths, err := c.listMarkdown(dir)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Changeset, 0, len(paths))
	for _, p := range paths {
		cs, err := c.Read(context.Background(), p)
		if err != nil {
			return nil, err
		}
		result = append(result, cs)
	}
	return result, nil
}

// ListPending returns every changeset in dir that has not been consumed
// for a prerelease.
func (c *changesetFS) ListPending(_ context.Context, dir string) ([]*domain.Changeset, error) {
	all, err := c.readAll(dir)
	if err != nil {
		return nil, err
	}
	var pending []*domain.Changeset
	for _, cs := range all {
		if !cs.IsConsumed() {
			pending = append(pending, cs)
		}
	}
	changeset.SortByFilename(pending)
	return pending, nil
}

// ListConsumed returns every changeset in dir already consumed for a
// prerelease, available for re-aggregation when that prerelease
// graduates to stable.
func (c *changesetFS) ListConsumed(_ context.Context, dir string) ([]*domain.Changeset, error) {
	all, err := c.readAll(dir)
	if err != nil {
		return nil, err
	}
	var consumed []*domain.Changeset
	for _, cs := range all {
		if cs.IsConsumed() {
			consumed = append(consumed, cs)
		}
	}
	changeset.SortByFilename(consumed)
	return consumed, nil
}

func (c *changesetFS) Write(_ context.Context, dir string, cs *domain.Changeset) (string, error) {
	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to ensure changeset directory %s: %w", dir, err)
	}
	name := changeset.NewFilename()
	path := filepath.Join(dir, name)
	if err := afero.WriteFile(c.fs, path, changeset.Render(cs), changesetFilePerm); err != nil {
		return "", fmt.Errorf("failed to write changeset %s: %w", path, err)
	}
	return path, nil
}

// MarkConsumed rewrites each changeset at paths with
// consumedForPrerelease set to version, so a later run recognizes it as
// already folded into that prerelease's aggregate.
func (c *changesetFS) MarkConsumed(ctx context.Context, _ string, paths []string, version string) error {
	for _, p := range paths {
		cs, err := c.Read(ctx, p)
		if err != nil {
			return err
		}
		v := version
		cs.ConsumedForPrerelease = &v
		if err := afero.WriteFile(c.fs, p, changeset.Render(cs), changesetFilePerm); err != nil {
			return fmt.Errorf("failed to mark %s consumed: %w", p, err)
		}
	}
	return nil
}

// ClearConsumed removes the consumedForPrerelease marker, used by
// compensation when a release saga fails after marking but before
// commit.
func (c *changesetFS) ClearConsumed(ctx context.Context, _ string, paths []string) error {
	for _, p := range paths {
		cs, err := c.Read(ctx, p)
		if err != nil {
			return err
		}
		cs.ConsumedForPrerelease = nil
		if err := afero.WriteFile(c.fs, p, changeset.Render(cs), changesetFilePerm); err != nil {
			return fmt.Errorf("failed to clear consumed marker on %s: %w", p, err)
		}
	}
	return nil
}

func (c *changesetFS) Restore(_ context.Context, path string, cs *domain.Changeset) error {
	if err := afero.WriteFile(c.fs, path, changeset.Render(cs), changesetFilePerm); err != nil {
		return fmt.Errorf("failed to restore changeset %s: %w", path, err)
	}
	return nil
}

func (c *changesetFS) Delete(_ context.Context, path string) error {
	if err := c.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete changeset %s: %w", path, err)
	}
	return nil
}

var (
	_ provider.ChangesetReader = (*changesetFS)(nil)
	_ provider.ChangesetWriter = (*changesetFS)(nil)
)
