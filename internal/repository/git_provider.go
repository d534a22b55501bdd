package repository

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/changeset-release/changeset/internal/provider"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// gitProvider implements provider.GitProvider over go-git.
type gitProvider struct {
	repo *git.Repository
}

// NewGitProvider opens the repository rooted at the current working
// directory.
func NewGitProvider() (provider.GitProvider, error) {
	repo, err := git.PlainOpen(".")
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &gitProvider{repo: repo}, nil
}

// ChangedFiles returns the files that differ between the base and head
// commits' trees. Uncommitted working-tree changes are not included.
func (g *gitProvider) ChangedFiles(_ context.Context, base, head string) ([]string, error) {
	baseHash, err := g.repo.ResolveRevision(plumbing.Revision(base))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base ref %s: %w", base, err)
	}
	headHash, err := g.repo.ResolveRevision(plumbing.Revision(head))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve head ref %s: %w", head, err)
	}
	baseCommit, err := g.repo.CommitObject(*baseHash)
	if err != nil {
		return nil, fmt.Errorf("failed to load base commit: %w", err)
	}
	headCommit, err := g.repo.CommitObject(*headHash)
	if err != nil {
		return nil, fmt.Errorf("failed to load head commit: %w", err)
	}
	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load base tree: %w", err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load head tree: %w", err)
	}
	changes, err := baseTree.Diff(headTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}
	seen := make(map[string]bool)
	var files []string
	for _, c := range changes {
		for _, path := range []string{c.From.Name, c.To.Name} {
			if path != "" && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// IsClean reports whether the working tree has no staged or unstaged
// changes.
func (g *gitProvider) IsClean(_ context.Context) (bool, error) {
	w, err := g.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return status.IsClean(), nil
}

func (g *gitProvider) CurrentBranch(_ context.Context) (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Name().Short(), nil
}

func (g *gitProvider) Stage(_ context.Context, paths []string) error {
	w, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			if _, err := w.Remove(p); err != nil {
				return fmt.Errorf("failed to stage removal of %s: %w", p, err)
			}
			continue
		}
		if _, err := w.Add(p); err != nil {
			return fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}
	return nil
}

func (g *gitProvider) Commit(_ context.Context, message string) (*provider.CommitInfo, error) {
	w, err := g.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	hash, err := w.Commit(message, &git.CommitOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create commit: %w", err)
	}
	return &provider.CommitInfo{Hash: hash.String(), Message: message}, nil
}

func (g *gitProvider) CreateTag(_ context.Context, name, message string) (*provider.TagInfo, error) {
	head, err := g.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	ref, err := g.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Message: message,
		Tagger: &object.Signature{
			Name:  "changeset-release",
			Email: "changeset-release@users.noreply.github.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return &provider.TagInfo{Name: name, Message: message, Hash: ref.Hash().String()}, nil
}

func (g *gitProvider) TagExists(_ context.Context, name string) (bool, error) {
	_, err := g.repo.Tag(name)
	if err == git.ErrTagNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tag %s: %w", name, err)
	}
	return true, nil
}

func (g *gitProvider) DeleteTag(_ context.Context, name string) error {
	if err := g.repo.DeleteTag(name); err != nil && err != git.ErrTagNotFound {
		return fmt.Errorf("failed to delete tag %s: %w", name, err)
	}
	return nil
}

func (g *gitProvider) DeleteFiles(_ context.Context, paths []string) error {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", p, err)
		}
	}
	return nil
}

// ResetToParent performs a mixed reset of HEAD to HEAD~1, used to undo
// the saga's own commit during compensation. Working tree files are
// restored individually by the steps that wrote them, not by this
// reset.
func (g *gitProvider) ResetToParent(_ context.Context) error {
	head, err := g.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := g.repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	if commit.NumParents() == 0 {
		return fmt.Errorf("HEAD commit has no parent to reset to")
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return fmt.Errorf("failed to load parent commit: %w", err)
	}
	w, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	return w.Reset(&git.ResetOptions{Commit: parent.Hash, Mode: git.MixedReset})
}

func (g *gitProvider) RemoteURL(_ context.Context, remoteName string) (string, error) {
	remote, err := g.repo.Remote(remoteName)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", remoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URLs", remoteName)
	}
	return urls[0], nil
}
