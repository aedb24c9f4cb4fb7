// Package minigit implements a small, self-contained subset of git:
// a content-addressed object store, working-tree snapshots, and clones
// over the smart-HTTP protocol
package minigit

import (
	"errors"
	"path/filepath"

	"github.com/goabstract/minigit/backend"
	"github.com/goabstract/minigit/internal/gitpath"
	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/object"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// ErrRepositoryNotExist is returned when the repo doesn't exist
var ErrRepositoryNotExist = errors.New("repository does not exist")

// Repository represents a git repository: a working tree and the .git
// directory holding its data
type Repository struct {
	fs     afero.Fs
	path   string
	dotGit *backend.Backend
}

// InitRepository initializes a new repository at the given path
func InitRepository(path string) (*Repository, error) {
	return InitRepositoryWithFS(afero.NewOsFs(), path)
}

// InitRepositoryWithFS initializes a new repository at the given path
// on the given filesystem
func InitRepositoryWithFS(fs afero.Fs, path string) (*Repository, error) {
	r := newRepository(fs, path)
	if err := r.dotGit.Init(); err != nil {
		return nil, xerrors.Errorf("could not init the repository: %w", err)
	}
	return r, nil
}

// OpenRepository opens an existing repository at the given path
func OpenRepository(path string) (*Repository, error) {
	return OpenRepositoryWithFS(afero.NewOsFs(), path)
}

// OpenRepositoryWithFS opens an existing repository at the given path
// on the given filesystem
func OpenRepositoryWithFS(fs afero.Fs, path string) (*Repository, error) {
	r := newRepository(fs, path)
	initialized, err := r.dotGit.IsInitialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, xerrors.Errorf("no repository at %s: %w", path, ErrRepositoryNotExist)
	}
	return r, nil
}

func newRepository(fs afero.Fs, path string) *Repository {
	return &Repository{
		fs:     fs,
		path:   path,
		dotGit: backend.New(fs, filepath.Join(path, gitpath.DotGitPath)),
	}
}

// Path returns the path of the working tree
func (r *Repository) Path() string {
	return r.path
}

// GetObject returns the object matching the given id
func (r *Repository) GetObject(oid plumbing.Oid) (*object.Object, error) {
	return r.dotGit.Object(oid)
}

// GetBlob returns the blob matching the given id
func (r *Repository) GetBlob(oid plumbing.Oid) (*object.Blob, error) {
	o, err := r.GetObject(oid)
	if err != nil {
		return nil, err
	}
	return o.AsBlob()
}

// GetTree returns the tree matching the given id
func (r *Repository) GetTree(oid plumbing.Oid) (*object.Tree, error) {
	o, err := r.GetObject(oid)
	if err != nil {
		return nil, err
	}
	return o.AsTree()
}

// GetCommit returns the commit matching the given id
func (r *Repository) GetCommit(oid plumbing.Oid) (*object.Commit, error) {
	o, err := r.GetObject(oid)
	if err != nil {
		return nil, err
	}
	return o.AsCommit()
}

// NewBlob creates, persists, and returns a new blob with the given
// content
func (r *Repository) NewBlob(data []byte) (*object.Blob, error) {
	o := object.New(object.TypeBlob, data)
	if _, err := r.dotGit.WriteObject(o); err != nil {
		return nil, xerrors.Errorf("could not write the blob: %w", err)
	}
	return o.AsBlob()
}

// WriteObject adds an object to the repository's store
func (r *Repository) WriteObject(o *object.Object) (plumbing.Oid, error) {
	return r.dotGit.WriteObject(o)
}
