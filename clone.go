package minigit

import (
	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/packfile"
	"github.com/goabstract/minigit/plumbing/protocol"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Clone fetches the repository at the given URL over smart HTTP and
// materializes its HEAD into path
func Clone(url, path string) (*Repository, error) {
	return CloneWithFS(afero.NewOsFs(), url, path)
}

// CloneWithFS fetches the repository at the given URL over smart HTTP
// and materializes its HEAD into path, on the given filesystem.
// If anything fails after the destination directory has been created,
// the directory is removed
func CloneWithFS(fs afero.Fs, url, path string) (r *Repository, err error) {
	if err = fs.MkdirAll(path, 0o755); err != nil {
		return nil, xerrors.Errorf("could not create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			fs.RemoveAll(path) //nolint:errcheck // it already failed
		}
	}()

	r, err = InitRepositoryWithFS(fs, path)
	if err != nil {
		return nil, err
	}

	client := protocol.NewClient(url)
	refs, err := client.FetchRefs()
	if err != nil {
		return nil, err
	}

	head, err := protocol.Head(refs)
	if err != nil {
		return nil, err
	}

	// everything the remote advertised goes in the want list, HEAD
	// included
	seen := map[plumbing.Oid]struct{}{}
	wants := make([]plumbing.Oid, 0, len(refs))
	for _, ref := range refs {
		if _, found := seen[ref.ID]; found {
			continue
		}
		seen[ref.ID] = struct{}{}
		wants = append(wants, ref.ID)
	}

	data, err := client.FetchPack(wants)
	if err != nil {
		return nil, err
	}

	pack, err := packfile.Parse(data)
	if err != nil {
		return nil, err
	}

	// the pack gets exploded into loose objects; stream order so every
	// object is persisted no matter what the graph looks like
	for _, o := range pack.Objects() {
		if _, err = r.dotGit.WriteObject(o); err != nil {
			return nil, err
		}
	}

	if err = r.Checkout(head.ID); err != nil {
		return nil, err
	}
	return r, nil
}
