package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTreeCmd(t *testing.T) {
	t.Run("Should snapshot, list, and commit the working tree", func(t *testing.T) {
		inTempRepo(t, func(repoPath string) {
			require.NoError(t, os.WriteFile(filepath.Join(repoPath, "a"), []byte("x\n"), 0o644))
			require.NoError(t, os.MkdirAll(filepath.Join(repoPath, "b"), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(repoPath, "b", "nested"), []byte("y\n"), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(repoPath, "c.txt"), []byte("z\n"), 0o644))

			treeID := strings.TrimSpace(runCommand(t, "write-tree"))
			require.Len(t, treeID, 40)

			// stable across runs
			assert.Equal(t, treeID, strings.TrimSpace(runCommand(t, "write-tree")))

			out := runCommand(t, "ls-tree", "--name-only", treeID)
			assert.Equal(t, "a\nb\nc.txt\n", out)

			commitID := strings.TrimSpace(runCommand(t, "commit-tree", treeID, "-m", "snapshot"))
			require.Len(t, commitID, 40)

			body := runCommand(t, "cat-file", "-p", commitID)
			assert.True(t, strings.HasPrefix(body, "tree "+treeID+"\n"))
			assert.True(t, strings.HasSuffix(body, "\nsnapshot\n"))

			second := strings.TrimSpace(runCommand(t, "commit-tree", treeID, "-p", commitID, "-m", "again"))
			body = runCommand(t, "cat-file", "-p", second)
			assert.Contains(t, body, "parent "+commitID+"\n")
		})
	})
}
