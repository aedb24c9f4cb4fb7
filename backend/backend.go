// Package backend contains the filesystem-side of the repository: the
// .git directory layout and the loose-object store
package backend

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/goabstract/minigit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
	"gopkg.in/ini.v1"
)

// config keys written by Init
const (
	cfgCore              = "core"
	cfgCoreFormatVersion = "repositoryformatversion"
	cfgCoreFileMode      = "filemode"
	cfgCoreBare          = "bare"
)

// headDefaultContent is what HEAD points to in a fresh repository
const headDefaultContent = "ref: refs/heads/master\n"

// Backend stores the data of a repository under its .git directory
type Backend struct {
	fs   afero.Fs
	root string
}

// New returns a new Backend for the given .git directory
func New(fs afero.Fs, dotGitPath string) *Backend {
	return &Backend{
		fs:   fs,
		root: dotGitPath,
	}
}

// Path returns the path of the .git directory
func (b *Backend) Path() string {
	return b.root
}

// Init initializes the .git directory.
// Calling this method on an existing repository is safe. It will not
// overwrite things that are already there, but will add what's missing
func (b *Backend) Init() error {
	// Create the directories
	dirs := []string{
		gitpath.ObjectsPath,
		gitpath.RefsPath,
	}
	for _, d := range dirs {
		fullPath := filepath.Join(b.root, d)
		if err := b.fs.MkdirAll(fullPath, 0o750); err != nil {
			return xerrors.Errorf("could not create directory %s: %w", d, err)
		}
	}

	// Create the files with their default content
	files := []struct {
		path    string
		content []byte
	}{
		{
			path:    gitpath.HEADPath,
			content: []byte(headDefaultContent),
		},
		{
			path:    gitpath.DescriptionPath,
			content: []byte("Unnamed repository; edit this file 'description' to name the repository.\n"),
		},
	}
	for _, f := range files {
		fullPath := filepath.Join(b.root, f.path)
		if exists, err := afero.Exists(b.fs, fullPath); err != nil || exists {
			continue
		}
		if err := afero.WriteFile(b.fs, fullPath, f.content, 0o644); err != nil {
			return xerrors.Errorf("could not create file %s: %w", f.path, err)
		}
	}

	if err := b.setDefaultCfg(); err != nil {
		return xerrors.Errorf("could not set the default config: %w", err)
	}
	return nil
}

// setDefaultCfg persists the default git configuration for the
// repository (taken from a repo created on github)
func (b *Backend) setDefaultCfg() error {
	cfgPath := filepath.Join(b.root, gitpath.ConfigPath)
	if exists, err := afero.Exists(b.fs, cfgPath); err != nil || exists {
		return err
	}

	cfg := ini.Empty()
	core, err := cfg.NewSection(cfgCore)
	if err != nil {
		return xerrors.Errorf("could not create core section: %w", err)
	}
	coreCfg := []struct{ k, v string }{
		{cfgCoreFormatVersion, "0"},
		{cfgCoreFileMode, "true"},
		{cfgCoreBare, "false"},
	}
	for _, kv := range coreCfg {
		if _, err := core.NewKey(kv.k, kv.v); err != nil {
			return xerrors.Errorf("could not set %s: %w", kv.k, err)
		}
	}

	// ini's SaveTo writes straight to the OS, so we go through a buffer
	// to stay on our fs
	buf := new(bytes.Buffer)
	if _, err := cfg.WriteTo(buf); err != nil {
		return xerrors.Errorf("could not serialize the config: %w", err)
	}
	return afero.WriteFile(b.fs, cfgPath, buf.Bytes(), 0o644)
}

// IsInitialized reports whether the .git directory holds a repository
func (b *Backend) IsInitialized() (bool, error) {
	_, err := b.fs.Stat(filepath.Join(b.root, gitpath.HEADPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, xerrors.Errorf("could not check HEAD: %w", err)
	}
	return true, nil
}
