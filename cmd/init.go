package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newInitCmd(c *container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the changeset directory for this project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := c.providers.Project.DiscoverWorkspace(ctx, ".")
			if err != nil {
				return err
			}
			cfg, err := c.providers.Project.LoadRootConfig(ctx, ws)
			if err != nil {
				return err
			}

			changesetDir := cfg.ChangesetDir
			if changesetDir == "" {
				changesetDir = ".changesets"
			}
			existed, _ := afero.DirExists(c.fs, changesetDir)

			dir, err := c.providers.Project.EnsureChangesetDir(ctx, ws, cfg)
			if err != nil {
				return err
			}
			if existed {
				fmt.Fprintf(cmd.OutOrStdout(), "changeset directory already exists at %s\n", dir)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "created changeset directory at %s\n", dir)
			}
			return nil
		},
	}
}
