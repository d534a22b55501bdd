package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/orchestrator"
	"github.com/changeset-release/changeset/internal/saga"
	"github.com/spf13/cobra"
)

func newReleaseCmd(c *container) *cobra.Command {
	var (
		dryRun, noCommit, noTags, keepChangesets bool
		force, convert, graduate                 bool
		prerelease                               string
		pr                                        bool
		prBase                                    string
		packageConfigOverrides                    []string
	)
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Compute the release plan and publish every pending changeset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), orchestrator.ReleaseWorkflowTimeout)
			defer cancel()

			in, err := orchestrator.LoadPlanInput(ctx, c.providers, ".", orchestrator.Options{})
			if err != nil {
				return err
			}
			if err := applyPackageConfigOverrides(in.PlannerInput.PackageConfigs, packageConfigOverrides); err != nil {
				return fmt.Errorf("--package-config: %w", err)
			}
			opts := resolveReleaseOptions(cmd, in.ProjectConfig, dryRun, noCommit, noTags, keepChangesets, force, convert, graduate, prerelease)
			in.PlannerInput.GraduateAll = opts.GraduateAll
			in.PlannerInput.GlobalPrerelease = opts.Prerelease

			rt := c.runtime(opts)

			var branch string
			if pr && !opts.DryRun {
				branch, err = c.beginReleaseBranch(ctx)
				if err != nil {
					return fmt.Errorf("failed to start release branch: %w", err)
				}
			}

			outcome, err := orchestrator.Execute(ctx, rt, *in)
			if err != nil {
				printOutcomeFailure(cmd, outcome, err)
				return err
			}
			printOutcomeSuccess(cmd, outcome)

			if opts.DryRun || !pr {
				return nil
			}
			return c.openReleasePR(ctx, cmd, branch, prBase, outcome)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the plan without mutating anything")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "write manifests/changelogs but do not commit or tag")
	cmd.Flags().BoolVar(&noTags, "no-tags", false, "commit but do not create tags")
	cmd.Flags().BoolVar(&keepChangesets, "keep-changesets", false, "clear consumed markers instead of deleting released changesets")
	cmd.Flags().BoolVar(&force, "force", false, "skip the clean working tree precondition")
	cmd.Flags().BoolVar(&convert, "convert", false, "inline any inherited manifest version this release touches")
	cmd.Flags().BoolVar(&graduate, "graduate", false, "graduate every package queued in graduation state")
	cmd.Flags().StringVar(&prerelease, "prerelease", "", "tag every released package as a prerelease under this identifier")
	cmd.Flags().BoolVar(&pr, "pr", false, "open a pull request with the release instead of leaving it on the current branch")
	cmd.Flags().StringVar(&prBase, "pr-base", "main", "base branch for the release pull request")
	cmd.Flags().StringArrayVar(&packageConfigOverrides, "package-config", nil, "override a package's config for this release only, as name:key=val,key=val (keys: ignored-files, prerelease, graduate-zero)")
	return cmd
}

// applyPackageConfigOverrides parses --package-config entries of the form
// name:key=val,key=val and overlays them onto the loaded per-package
// config for this release invocation only; nothing is persisted.
func applyPackageConfigOverrides(configs map[string]domain.PackageConfig, raw []string) error {
	for _, entry := range raw {
		name, rest, ok := strings.Cut(entry, ":")
		if !ok || name == "" || rest == "" {
			return fmt.Errorf("invalid entry %q, expected name:key=val,...", entry)
		}
		cfg, ok := configs[name]
		if !ok {
			return fmt.Errorf("unknown package %q", name)
		}
		for _, pair := range strings.Split(rest, ",") {
			key, val, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("package %q: invalid key=val %q", name, pair)
			}
			switch key {
			case "ignored-files":
				cfg.IgnoredFiles = strings.Split(val, ";")
			case "prerelease":
				cfg.Prerelease = val
			case "graduate-zero":
				b, err := strconv.ParseBool(val)
				if err != nil {
					return fmt.Errorf("package %q: graduate-zero: %w", name, err)
				}
				cfg.GraduateZero = b
			default:
				return fmt.Errorf("package %q: unknown config key %q", name, key)
			}
		}
		configs[name] = cfg
	}
	return nil
}

// resolveReleaseOptions overlays explicit CLI flags onto the project's
// configured release defaults: a flag the caller never set falls back to
// the project's DefaultNoCommit/DefaultNoTags/DefaultKeepChangesets.
func resolveReleaseOptions(
	cmd *cobra.Command,
	cfg *domain.ProjectConfig,
	dryRun, noCommit, noTags, keepChangesets, force, convert, graduate bool,
	prerelease string,
) orchestrator.Options {
	opts := orchestrator.Options{
		DryRun:           dryRun,
		NoCommit:         orDefault(cmd, "no-commit", noCommit, cfg.DefaultNoCommit),
		NoTags:           orDefault(cmd, "no-tags", noTags, cfg.DefaultNoTags),
		KeepChangesets:   orDefault(cmd, "keep-changesets", keepChangesets, cfg.DefaultKeepChangesets),
		Force:            force,
		ConvertInherited: convert,
		GraduateAll:      graduate,
	}
	if prerelease != "" {
		opts.Prerelease = &prerelease
	}
	return opts
}

func orDefault(cmd *cobra.Command, flag string, explicit, fallback bool) bool {
	if cmd.Flags().Changed(flag) {
		return explicit
	}
	return fallback
}

func printOutcomeSuccess(cmd *cobra.Command, outcome *orchestrator.Outcome) {
	out := cmd.OutOrStdout()
	if outcome.Data.Plan == nil {
		return
	}
	if len(outcome.Data.Plan.Plan.Releases) == 0 {
		fmt.Fprintln(out, "Nothing to release.")
		return
	}
	fmt.Fprintln(out, "Released:")
	for _, pv := range outcome.Data.Plan.Plan.Releases {
		fmt.Fprintf(out, "  %s: %s -> %s\n", pv.Name, pv.Current.String(), pv.New.String())
	}
	for _, tag := range outcome.Data.TagsCreated {
		fmt.Fprintf(out, "tag created: %s\n", tag.Name)
	}
}

func printOutcomeFailure(cmd *cobra.Command, outcome *orchestrator.Outcome, err error) {
	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "release failed: %v\n", err)
	if outcome == nil || outcome.Audit == nil {
		return
	}
	for _, line := range outcome.Audit.Summary() {
		fmt.Fprintf(errOut, "  %s\n", line)
	}
	var compFailed *saga.CompensationFailedError
	if errors.As(err, &compFailed) {
		fmt.Fprintln(errOut, "rollback incomplete: repository may require manual inspection")
		return
	}
	var stepFailed *saga.StepFailedError
	if errors.As(err, &stepFailed) {
		fmt.Fprintln(errOut, "rollback completed successfully - repository restored to its original state")
	}
}
