package main

import (
	"fmt"
	"io"

	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/object"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newCommitTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit-tree TREE",
		Short: "Create a commit object from an existing tree",
		Args:  cobra.ExactArgs(1),
	}

	parent := cmd.Flags().StringP("parent", "p", "", "Id of the parent commit, if any.")
	message := cmd.Flags().StringP("message", "m", "", "Commit message.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return commitTreeCmd(cmd.OutOrStdout(), args[0], *parent, *message)
	}

	return cmd
}

func commitTreeCmd(out io.Writer, treeName, parentName, message string) error {
	r, err := loadRepository()
	if err != nil {
		return err
	}

	treeID, err := plumbing.NewOidFromStr(treeName)
	if err != nil {
		return xerrors.Errorf("not a valid tree name %s: %w", treeName, err)
	}

	opts := &object.CommitOptions{Message: message}
	if parentName != "" {
		parentID, err := plumbing.NewOidFromStr(parentName)
		if err != nil {
			return xerrors.Errorf("not a valid parent name %s: %w", parentName, err)
		}
		opts.ParentIDs = []plumbing.Oid{parentID}
	}

	author := object.NewSignature(
		envOr("GIT_AUTHOR_NAME", "minigit"),
		envOr("GIT_AUTHOR_EMAIL", "minigit@localhost"),
	)

	c, err := r.NewCommit(treeID, author, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, c.ID().String())
	return nil
}
