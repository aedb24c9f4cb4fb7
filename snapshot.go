package minigit

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/goabstract/minigit/internal/gitpath"
	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/object"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Snapshot persists the current content of the working tree as tree
// and blob objects, bottom-up, and returns the id of the root tree.
// The .git directory is excluded, and files or symlinks that cannot be
// read are skipped; a directory that cannot be listed makes the snapshot
// fail. Snapshotting the same tree twice yields the same id
func (r *Repository) Snapshot() (plumbing.Oid, error) {
	return r.snapshotDir(r.path)
}

func (r *Repository) snapshotDir(dir string) (plumbing.Oid, error) {
	fis, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return plumbing.NullOid, xerrors.Errorf("could not list %s: %w", dir, err)
	}

	// ReadDir sorts by name, which for Go strings is raw byte order,
	// exactly the order tree entries must be stored in
	sort.Slice(fis, func(i, j int) bool { return fis[i].Name() < fis[j].Name() })

	entries := []object.TreeEntry{}
	for _, fi := range fis {
		if fi.Name() == gitpath.DotGitPath {
			continue
		}
		fullPath := filepath.Join(dir, fi.Name())

		var entry object.TreeEntry
		switch {
		case fi.IsDir():
			oid, err := r.snapshotDir(fullPath)
			if err != nil {
				return plumbing.NullOid, err
			}
			entry = object.TreeEntry{Path: fi.Name(), ID: oid, Mode: object.ModeDirectory}
		case fi.Mode()&os.ModeSymlink != 0:
			lr, ok := r.fs.(afero.LinkReader)
			if !ok {
				continue
			}
			target, err := lr.ReadlinkIfPossible(fullPath)
			if err != nil {
				continue
			}
			blob, err := r.NewBlob([]byte(target))
			if err != nil {
				return plumbing.NullOid, err
			}
			entry = object.TreeEntry{Path: fi.Name(), ID: blob.ID(), Mode: object.ModeSymLink}
		case fi.Mode().IsRegular():
			data, err := afero.ReadFile(r.fs, fullPath)
			if err != nil {
				continue
			}
			blob, err := r.NewBlob(data)
			if err != nil {
				return plumbing.NullOid, err
			}
			// the host mode bits aren't stored as-is: everything is
			// canonicalized on the owner-execute bit so the same tree
			// hashes the same everywhere
			mode := object.ModeFile
			if fi.Mode()&0o100 != 0 {
				mode = object.ModeExecutable
			}
			entry = object.TreeEntry{Path: fi.Name(), ID: blob.ID(), Mode: mode}
		default:
			// sockets, devices, ...
			continue
		}
		entries = append(entries, entry)
	}

	tree := object.NewTree(entries)
	oid, err := r.dotGit.WriteObject(tree.ToObject())
	if err != nil {
		return plumbing.NullOid, xerrors.Errorf("could not write the tree for %s: %w", dir, err)
	}
	return oid, nil
}
