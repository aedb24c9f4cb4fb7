package backend

import (
	"os"
	"path/filepath"

	"github.com/goabstract/minigit/internal/gitpath"
	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/object"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// objectPath returns the path of a loose object:
// .git/objects/first_2_chars_of_sha/remaining_chars_of_sha
// Ex. path of fcfe68a0e44e04bd7fd564fc0b75f1ae457e18b3 is:
// .git/objects/fc/fe68a0e44e04bd7fd564fc0b75f1ae457e18b3
func (b *Backend) objectPath(oid plumbing.Oid) string {
	sha := oid.String()
	return filepath.Join(b.root, gitpath.ObjectsPath, sha[:2], sha[2:])
}

// HasObject reports whether an object is in the store
func (b *Backend) HasObject(oid plumbing.Oid) (bool, error) {
	_, err := b.fs.Stat(b.objectPath(oid))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, xerrors.Errorf("could not check object %s: %w", oid.String(), err)
}

// Object returns the object that has the given oid
func (b *Backend) Object(oid plumbing.Oid) (*object.Object, error) {
	p := b.objectPath(oid)
	data, err := afero.ReadFile(b.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plumbing.ErrObjectNotFound
		}
		return nil, xerrors.Errorf("could not read object %s at path %s: %w", oid.String(), p, err)
	}

	o, err := object.NewFromCompressed(data)
	if err != nil {
		return nil, xerrors.Errorf("could not parse object %s at path %s: %w", oid.String(), p, err)
	}
	return o, nil
}

// WriteObject adds an object to the store and returns its oid.
// The store is content-addressed, so writing an object that's already
// there is a no-op
func (b *Backend) WriteObject(o *object.Object) (plumbing.Oid, error) {
	oid := o.ID()
	p := b.objectPath(oid)

	if exists, err := afero.Exists(b.fs, p); err == nil && exists {
		return oid, nil
	}

	data, err := o.Compress()
	if err != nil {
		return plumbing.NullOid, xerrors.Errorf("could not compress object %s: %w", oid.String(), err)
	}

	if err = b.fs.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return plumbing.NullOid, xerrors.Errorf("could not create the object directory for %s: %w", oid.String(), err)
	}
	if err = afero.WriteFile(b.fs, p, data, 0o644); err != nil {
		return plumbing.NullOid, xerrors.Errorf("could not persist object %s at path %s: %w", oid.String(), p, err)
	}
	return oid, nil
}
