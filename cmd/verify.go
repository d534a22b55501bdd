package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/changeset-release/changeset/internal/orchestrator"
	"github.com/changeset-release/changeset/internal/verify"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newVerifyCmd(c *container) *cobra.Command {
	var (
		base                string
		head                string
		allowDeletedChanges bool
		quiet               bool
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every affected package has a covering changeset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := orchestrator.ValidateBranchName(base); err != nil {
				return fmt.Errorf("--base: %w", err)
			}
			if err := orchestrator.ValidateBranchName(head); err != nil {
				return fmt.Errorf("--head: %w", err)
			}

			ctx := cmd.Context()
			in, err := orchestrator.LoadPlanInput(ctx, c.providers, ".", orchestrator.Options{})
			if err != nil {
				return err
			}

			changedFiles, err := c.providers.Git.ChangedFiles(ctx, base, head)
			if err != nil {
				return fmt.Errorf("failed to diff %s..%s: %w", base, head, err)
			}

			changesetDir := in.ChangesetDir
			var codeFiles, deletedChangesets []string
			for _, f := range changedFiles {
				if !isWithin(changesetDir, f) {
					codeFiles = append(codeFiles, f)
					continue
				}
				if filepath.Ext(f) != ".md" {
					continue
				}
				if exists, _ := afero.Exists(c.fs, f); !exists {
					deletedChangesets = append(deletedChangesets, f)
				}
			}

			rootIgnore := in.ProjectConfig.IgnoredFiles
			pkgIgnore := make(map[string][]string, len(in.Workspace.Packages))
			for _, pkg := range in.Workspace.Packages {
				pkgCfg := in.PlannerInput.PackageConfigs[pkg.Name]
				pkgIgnore[pkg.Name] = pkgCfg.IgnoredFiles
			}

			vctx := &verify.Context{
				ChangedFiles:  codeFiles,
				Packages:      in.Workspace.Packages,
				Changesets:    in.PlannerInput.Pending,
				AllowDeleted:  allowDeletedChanges,
				DeletedFiles:  deletedChangesets,
				RootIgnore:    rootIgnore,
				PackageIgnore: pkgIgnore,
			}

			result, err := verify.NewEngine().Run(ctx, vctx)
			if err != nil {
				return err
			}
			printVerifyResult(cmd, result, quiet)
			if !result.IsSuccess() {
				return fmt.Errorf("verification failed: %d uncovered package(s), %d failure(s)", len(result.UncoveredPackages), len(result.Failures))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "main", "base ref to diff against")
	cmd.Flags().StringVar(&head, "head", "HEAD", "head ref to diff")
	cmd.Flags().BoolVar(&allowDeletedChanges, "allow-deleted-changesets", false, "allow changeset files to have been deleted on this branch")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress non-error output")
	return cmd
}

func printVerifyResult(cmd *cobra.Command, result *verify.Result, quiet bool) {
	if quiet {
		return
	}
	out := cmd.OutOrStdout()
	if result.IsSuccess() {
		fmt.Fprintln(out, "All affected packages are covered by a changeset.")
		return
	}
	errOut := cmd.ErrOrStderr()
	for _, pkg := range result.UncoveredPackages {
		fmt.Fprintf(errOut, "package %s has changes but no changeset\n", pkg)
	}
	for _, f := range result.Failures {
		fmt.Fprintln(errOut, f)
	}
}

// isWithin reports whether file lies inside dir, comparing cleaned
// relative paths rather than strings directly.
func isWithin(dir, file string) bool {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
