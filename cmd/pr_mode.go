package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/changeset-release/changeset/internal/orchestrator"
	"github.com/spf13/cobra"
)

// beginReleaseBranch checks out a fresh branch for a --pr release: the
// saga's commit and tags land there instead of on the current branch.
func (c *container) beginReleaseBranch(ctx context.Context) (string, error) {
	branch := fmt.Sprintf("release/%d", time.Now().Unix())
	if err := c.gitExt.CreateBranch(ctx, branch); err != nil {
		return "", err
	}
	if err := c.gitExt.CheckoutBranch(ctx, branch); err != nil {
		return "", err
	}
	return branch, nil
}

// openReleasePR pushes the release branch and opens (or updates) a pull
// request describing it, once the saga has committed and tagged
// successfully.
func (c *container) openReleasePR(ctx context.Context, cmd *cobra.Command, branch, base string, outcome *orchestrator.Outcome) error {
	if branch == "" {
		return nil
	}
	if err := c.gitExt.PushBranch(ctx, branch); err != nil {
		return fmt.Errorf("failed to push release branch %s: %w", branch, err)
	}
	title, body := releasePRContent(outcome)
	if err := c.ghExt.CreateOrUpdatePR(ctx, branch, base, title, body, []string{"release"}); err != nil {
		return fmt.Errorf("failed to open release pull request: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "opened release pull request %s -> %s for %s\n", branch, base, repoSlug(c.cfg.GithubOwner, c.cfg.GithubRepo))
	return nil
}

func releasePRContent(outcome *orchestrator.Outcome) (title, body string) {
	if outcome == nil || outcome.Data == nil || outcome.Data.Plan == nil {
		return "chore(release)", "Release"
	}
	releases := outcome.Data.Plan.Plan.Releases
	names := make([]string, 0, len(releases))
	var b strings.Builder
	b.WriteString("Released packages:\n\n")
	for _, pv := range releases {
		names = append(names, fmt.Sprintf("%s@%s", pv.Name, pv.New.String()))
		fmt.Fprintf(&b, "- %s: %s -> %s\n", pv.Name, pv.Current.String(), pv.New.String())
	}
	return "chore(release): " + strings.Join(names, ", "), b.String()
}
