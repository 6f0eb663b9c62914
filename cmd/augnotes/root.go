package main

import (
	"github.com/spf13/cobra"

	"augnotes/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "augnotes",
		Short: "Augnotes is an admin app for uploading, annotating, and exporting augmented scores",
	}
	cmd.Version = version

	cmd.AddCommand(
		newSrvCmd(cfg),
		newAdminCmd(cfg),
		newConfigCmd(cfg),
	)
	return cmd
}
