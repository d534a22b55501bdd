package cmd

import (
	"fmt"
	"strings"

	"github.com/changeset-release/changeset/internal/domain"
	"github.com/spf13/cobra"
)

func newAddCmd(c *container) *cobra.Command {
	var (
		packages   []string
		category   string
		summary    string
		graduate   bool
		prerelease string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new changeset",
		Long:  "Record a new changeset declaring a version bump for one or more packages. Each --package flag takes name:bump, e.g. --package my-crate:minor.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(packages) == 0 {
				return fmt.Errorf("at least one --package name:bump is required")
			}
			if summary == "" {
				return fmt.Errorf("--summary is required")
			}
			releases, err := parsePackageFlags(packages)
			if err != nil {
				return err
			}
			cat := domain.Category(strings.ToLower(category))
			if cat == "" {
				cat = domain.CategoryChanged
			}

			cs := &domain.Changeset{
				Summary:  summary,
				Releases: releases,
				Category: cat,
				Graduate: graduate,
			}
			if prerelease != "" {
				cs.ConsumedForPrerelease = &prerelease
			}

			ctx := cmd.Context()
			ws, err := c.providers.Project.DiscoverWorkspace(ctx, ".")
			if err != nil {
				return err
			}
			rootCfg, err := c.providers.Project.LoadRootConfig(ctx, ws)
			if err != nil {
				return err
			}
			dir, err := c.providers.Project.EnsureChangesetDir(ctx, ws, rootCfg)
			if err != nil {
				return err
			}

			filename, err := c.providers.ChangesetWriter.Write(ctx, dir, cs)
			if err != nil {
				return fmt.Errorf("failed to write changeset: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", filename)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&packages, "package", nil, "package:bump pair, repeatable")
	cmd.Flags().StringVar(&category, "category", "", "changelog category (added, changed, deprecated, removed, fixed, security)")
	cmd.Flags().StringVar(&summary, "summary", "", "human-readable summary")
	cmd.Flags().BoolVar(&graduate, "graduate", false, "mark this changeset as requesting graduation to stable")
	cmd.Flags().StringVar(&prerelease, "consumed-for-prerelease", "", "mark the changeset already consumed by the given in-flight prerelease version")
	return cmd
}

func parsePackageFlags(raw []string) ([]domain.PackageRelease, error) {
	releases := make([]domain.PackageRelease, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, entry := range raw {
		name, bump, ok := strings.Cut(entry, ":")
		if !ok || name == "" || bump == "" {
			return nil, fmt.Errorf("invalid --package value %q, expected name:bump", entry)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate package %q in --package flags", name)
		}
		seen[name] = true
		b, err := parseBumpFlag(bump)
		if err != nil {
			return nil, fmt.Errorf("package %q: %w", name, err)
		}
		releases = append(releases, domain.PackageRelease{Package: name, Bump: b})
	}
	return releases, nil
}

func parseBumpFlag(raw string) (domain.BumpType, error) {
	switch strings.ToLower(raw) {
	case "patch":
		return domain.BumpPatch, nil
	case "minor":
		return domain.BumpMinor, nil
	case "major":
		return domain.BumpMajor, nil
	default:
		return "", fmt.Errorf("invalid bump %q, expected patch, minor, or major", raw)
	}
}
