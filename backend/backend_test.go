package backend_test

import (
	"path/filepath"
	"testing"

	"github.com/goabstract/minigit/backend"
	"github.com/goabstract/minigit/internal/gitpath"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

func newBackend(t *testing.T) *backend.Backend {
	t.Helper()
	return backend.New(afero.NewMemMapFs(), filepath.Join("/repo", gitpath.DotGitPath))
}

func TestInit(t *testing.T) {
	t.Parallel()

	t.Run("Should create the expected layout", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		b := backend.New(fs, "/repo/.git")
		require.NoError(t, b.Init())

		for _, dir := range []string{"/repo/.git/objects", "/repo/.git/refs"} {
			ok, err := afero.DirExists(fs, dir)
			require.NoError(t, err)
			assert.True(t, ok, "%s should exist", dir)
		}

		head, err := afero.ReadFile(fs, "/repo/.git/HEAD")
		require.NoError(t, err)
		assert.Equal(t, "ref: refs/heads/master\n", string(head))

		initialized, err := b.IsInitialized()
		require.NoError(t, err)
		assert.True(t, initialized)
	})

	t.Run("Should write a parsable default config", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		b := backend.New(fs, "/repo/.git")
		require.NoError(t, b.Init())

		data, err := afero.ReadFile(fs, "/repo/.git/config")
		require.NoError(t, err)

		cfg, err := ini.Load(data)
		require.NoError(t, err)
		core := cfg.Section("core")
		assert.Equal(t, "0", core.Key("repositoryformatversion").String())
		assert.Equal(t, "false", core.Key("bare").String())
	})

	t.Run("Should not truncate HEAD on a second init", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		b := backend.New(fs, "/repo/.git")
		require.NoError(t, b.Init())
		require.NoError(t, afero.WriteFile(fs, "/repo/.git/HEAD", []byte("ref: refs/heads/main\n"), 0o644))

		require.NoError(t, b.Init())
		head, err := afero.ReadFile(fs, "/repo/.git/HEAD")
		require.NoError(t, err)
		assert.Equal(t, "ref: refs/heads/main\n", string(head))
	})

	t.Run("Should report a missing repository", func(t *testing.T) {
		t.Parallel()

		initialized, err := newBackend(t).IsInitialized()
		require.NoError(t, err)
		assert.False(t, initialized)
	})
}
