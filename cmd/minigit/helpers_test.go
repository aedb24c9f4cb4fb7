package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/goabstract/minigit/internal/testhelper"
	"github.com/stretchr/testify/require"
)

// inTempRepo runs f from inside a brand new repository.
// Commands resolve the repository from the working directory, so tests
// using this helper cannot run in parallel
func inTempRepo(t *testing.T, f func(repoPath string)) {
	t.Helper()

	dir, cleanup := testhelper.TempDir(t)
	t.Cleanup(cleanup)

	pwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(pwd))
	})

	runCommand(t, "init")
	f(dir)
}

// runCommand executes the CLI with the given args and returns its
// stdout
func runCommand(t *testing.T, args ...string) string {
	t.Helper()

	out := new(bytes.Buffer)
	root := newRootCmd()
	root.SetOut(out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

// runCommandErr executes the CLI with the given args and returns the
// resulting error
func runCommandErr(t *testing.T, args ...string) error {
	t.Helper()

	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs(args)
	return root.Execute()
}
