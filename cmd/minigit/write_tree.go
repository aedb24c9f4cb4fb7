package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newWriteTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write-tree",
		Short: "Create a tree object from the current working directory",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return writeTreeCmd(cmd.OutOrStdout())
	}

	return cmd
}

func writeTreeCmd(out io.Writer) error {
	r, err := loadRepository()
	if err != nil {
		return err
	}

	oid, err := r.Snapshot()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, oid.String())
	return nil
}
