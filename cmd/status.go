package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/changeset-release/changeset/internal/orchestrator"
	"github.com/changeset-release/changeset/internal/release"
	"github.com/spf13/cobra"
)

func newStatusCmd(c *container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending changesets and the version bumps they would produce",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in, err := orchestrator.LoadPlanInput(ctx, c.providers, ".", orchestrator.Options{})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(in.PlannerInput.Pending) == 0 {
				fmt.Fprintln(out, "No pending changesets.")
				return nil
			}
			fmt.Fprintf(out, "Pending changesets: %d\n\n", len(in.PlannerInput.Pending))

			printProjectedPlan(ctx, out, in.PlannerInput)
			return nil
		},
	}
}

func printProjectedPlan(_ context.Context, out interface{ Write([]byte) (int, error) }, in release.Input) {
	result, err := release.Plan(in)
	if err != nil {
		fmt.Fprintf(out, "failed to compute projected plan: %v\n", err)
		return
	}

	if len(result.Plan.Releases) > 0 {
		fmt.Fprintln(out, "Projected version bumps:")
		for _, pv := range result.Plan.Releases {
			fmt.Fprintf(out, "  %s: %s -> %s\n", pv.Name, pv.Current.String(), pv.New.String())
		}
		fmt.Fprintln(out)
	}
	if len(result.Plan.Warnings) > 0 {
		fmt.Fprintln(out, "Warnings:")
		for _, w := range result.Plan.Warnings {
			fmt.Fprintf(out, "  %s\n", w)
		}
		fmt.Fprintln(out)
	}

	touched := make(map[string]bool, len(result.Plan.Releases))
	for _, pv := range result.Plan.Releases {
		touched[pv.Name] = true
	}
	var unchanged []domain.Package
	for _, pkg := range in.Packages {
		if !touched[pkg.Name] {
			unchanged = append(unchanged, pkg)
		}
	}
	sort.Slice(unchanged, func(i, j int) bool { return unchanged[i].Name < unchanged[j].Name })
	if len(unchanged) > 0 {
		fmt.Fprintln(out, "Packages without changesets:")
		for _, pkg := range unchanged {
			fmt.Fprintf(out, "  %s (%s)\n", pkg.Name, pkg.Version.String())
		}
	}
}
