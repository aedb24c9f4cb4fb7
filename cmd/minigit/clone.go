package main

import (
	minigit "github.com/goabstract/minigit"
	"github.com/spf13/cobra"
)

func newCloneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone URL DIRECTORY",
		Short: "Clone a repository over smart HTTP into a new directory",
		Args:  cobra.ExactArgs(2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		_, err := minigit.Clone(args[0], args[1])
		return err
	}

	return cmd
}
