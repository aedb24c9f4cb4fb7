package main

import (
	"fmt"
	"io"

	"github.com/goabstract/minigit/plumbing"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newLsTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls-tree TREE",
		Short: "List the contents of a tree object",
		Args:  cobra.ExactArgs(1),
	}

	nameOnly := cmd.Flags().Bool("name-only", false, "List only filenames, one per line.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return lsTreeCmd(cmd.OutOrStdout(), args[0], *nameOnly)
	}

	return cmd
}

func lsTreeCmd(out io.Writer, objectName string, nameOnly bool) error {
	r, err := loadRepository()
	if err != nil {
		return err
	}

	oid, err := plumbing.NewOidFromStr(objectName)
	if err != nil {
		return xerrors.Errorf("not a valid object name %s: %w", objectName, err)
	}

	tree, err := r.GetTree(oid)
	if err != nil {
		return err
	}

	for _, e := range tree.Entries() {
		if nameOnly {
			fmt.Fprintln(out, e.Path)
			continue
		}
		fmt.Fprintf(out, "%06o %s %s\t%s\n", e.Mode, e.Mode.ObjectType().String(), e.ID.String(), e.Path)
	}
	return nil
}
