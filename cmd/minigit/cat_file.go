package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/object"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newCatFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat-file OBJECT",
		Short: "Provide content or type and size information for repository objects",
		Args:  cobra.ExactArgs(1),
	}

	typeOnly := cmd.Flags().BoolP("t", "t", false, "Instead of the content, show the object type identified by <object>.")
	sizeOnly := cmd.Flags().BoolP("s", "s", false, "Instead of the content, show the object size identified by <object>.")
	prettyPrint := cmd.Flags().BoolP("p", "p", false, "Pretty-print the contents of <object> based on its type.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p := catFileParams{
			typeOnly:    *typeOnly,
			sizeOnly:    *sizeOnly,
			prettyPrint: *prettyPrint,
			objectName:  args[0],
		}
		return catFileCmd(cmd.OutOrStdout(), p)
	}
	return cmd
}

type catFileParams struct {
	typeOnly    bool
	sizeOnly    bool
	prettyPrint bool
	objectName  string
}

func catFileCmd(out io.Writer, p catFileParams) error {
	// Validate options
	if !p.typeOnly && !p.sizeOnly && !p.prettyPrint {
		return errors.New("one of -t, -s, or -p is required")
	}
	if p.typeOnly && p.sizeOnly || p.typeOnly && p.prettyPrint || p.sizeOnly && p.prettyPrint {
		return errors.New("options -t, -s, and -p are exclusive")
	}

	r, err := loadRepository()
	if err != nil {
		return err
	}

	oid, err := plumbing.NewOidFromStr(p.objectName)
	if err != nil {
		return xerrors.Errorf("not a valid object name %s: %w", p.objectName, err)
	}

	o, err := r.GetObject(oid)
	if err != nil {
		return err
	}

	switch {
	case p.sizeOnly:
		fmt.Fprintln(out, strconv.Itoa(o.Size()))
	case p.typeOnly:
		fmt.Fprintln(out, o.Type().String())
	case p.prettyPrint:
		return prettyPrintObject(out, o)
	}
	return nil
}

func prettyPrintObject(out io.Writer, o *object.Object) error {
	switch o.Type() {
	case object.TypeTree:
		tree, err := o.AsTree()
		if err != nil {
			return xerrors.Errorf("could not get tree: %w", err)
		}
		for _, e := range tree.Entries() {
			fmt.Fprintf(out, "%06o %s %s\t%s\n", e.Mode, e.Mode.ObjectType().String(), e.ID.String(), e.Path)
		}
		return nil
	case object.TypeBlob, object.TypeCommit:
		_, err := out.Write(o.Bytes())
		return err
	default:
		return xerrors.Errorf("pretty-print not supported for type %s", o.Type().String())
	}
}
