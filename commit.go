package minigit

import (
	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/object"
	"golang.org/x/xerrors"
)

// NewCommit creates, persists, and returns a commit pointing at the
// given tree
func (r *Repository) NewCommit(treeID plumbing.Oid, author object.Signature, opts *object.CommitOptions) (*object.Commit, error) {
	// make sure the tree is in the store, and is a tree
	o, err := r.dotGit.Object(treeID)
	if err != nil {
		return nil, xerrors.Errorf("could not check the tree: %w", err)
	}
	if o.Type() != object.TypeTree {
		return nil, xerrors.Errorf("%s is a %s, not a tree: %w", treeID.String(), o.Type().String(), object.ErrObjectInvalid)
	}

	if opts == nil {
		opts = &object.CommitOptions{}
	}
	c := object.NewCommit(treeID, author, opts)
	if _, err := r.dotGit.WriteObject(c.ToObject()); err != nil {
		return nil, xerrors.Errorf("could not write the commit: %w", err)
	}
	return c, nil
}
