package main

import (
	"fmt"
	"os"

	minigit "github.com/goabstract/minigit"
	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "minigit",
		Short:         "minimal git implementation in pure Go",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// porcelain
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newCloneCmd())

	// plumbing
	cmd.AddCommand(newCatFileCmd())
	cmd.AddCommand(newHashObjectCmd())
	cmd.AddCommand(newLsTreeCmd())
	cmd.AddCommand(newWriteTreeCmd())
	cmd.AddCommand(newCommitTreeCmd())

	return cmd
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty repository in the current directory",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		pwd, err := os.Getwd()
		if err != nil {
			return err
		}
		_, err = minigit.InitRepository(pwd)
		return err
	}

	return cmd
}
