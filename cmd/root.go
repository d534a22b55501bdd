package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "changeset",
	Short: "Versioning and changelog automation for multi-package workspaces",
	Long:  `changeset turns pending changesets into computed version bumps, rewritten manifests, updated changelogs, and a tagged release commit.`,
}

func Execute() error {
	return rootCmd.Execute()
}
