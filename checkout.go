package minigit

import (
	"os"
	"path/filepath"

	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/object"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Checkout writes the content of a commit to the working tree.
// Parent commits are materialized first, recursively, and paths that
// already exist on disk are left alone
func (r *Repository) Checkout(commitID plumbing.Oid) error {
	commit, err := r.GetCommit(commitID)
	if err != nil {
		return xerrors.Errorf("could not load commit %s: %w", commitID.String(), err)
	}

	for _, parentID := range commit.ParentIDs() {
		if err = r.Checkout(parentID); err != nil {
			return err
		}
	}

	return r.checkoutTree(commit.TreeID(), r.path)
}

func (r *Repository) checkoutTree(treeID plumbing.Oid, dir string) error {
	tree, err := r.GetTree(treeID)
	if err != nil {
		return xerrors.Errorf("could not load tree %s: %w", treeID.String(), err)
	}

	for _, entry := range tree.Entries() {
		fullPath := filepath.Join(dir, entry.Path)

		if entry.Mode == object.ModeDirectory {
			if err = r.fs.MkdirAll(fullPath, 0o755); err != nil {
				return xerrors.Errorf("could not create %s: %w", fullPath, err)
			}
			if err = r.checkoutTree(entry.ID, fullPath); err != nil {
				return err
			}
			continue
		}

		// blobs (symlinks included, written as regular files holding
		// the link target)
		exists, err := afero.Exists(r.fs, fullPath)
		if err != nil {
			return xerrors.Errorf("could not check %s: %w", fullPath, err)
		}
		if exists {
			continue
		}

		blob, err := r.GetBlob(entry.ID)
		if err != nil {
			return xerrors.Errorf("could not load blob %s: %w", entry.ID.String(), err)
		}
		if err = afero.WriteFile(r.fs, fullPath, blob.Bytes(), os.FileMode(entry.Mode.FSMode())); err != nil {
			return xerrors.Errorf("could not write %s: %w", fullPath, err)
		}
	}
	return nil
}
