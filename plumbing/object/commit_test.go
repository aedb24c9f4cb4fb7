package object_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureString(t *testing.T) {
	t.Parallel()

	tz := time.FixedZone("", -7*3600)
	sig := object.Signature{
		Name:  "John Doe",
		Email: "john@domain.tld",
		Time:  time.UnixMilli(1566115917000).In(tz),
	}
	assert.Equal(t, "John Doe <john@domain.tld> 1566115917000 -0700", sig.String())
}

func TestNewSignatureFromBytes(t *testing.T) {
	t.Parallel()

	t.Run("Should parse a valid signature", func(t *testing.T) {
		t.Parallel()

		sig, err := object.NewSignatureFromBytes([]byte("John Doe <john@domain.tld> 1566115917000 -0700"))
		require.NoError(t, err)
		assert.Equal(t, "John Doe", sig.Name)
		assert.Equal(t, "john@domain.tld", sig.Email)
		assert.Equal(t, int64(1566115917000), sig.Time.UnixMilli())
		assert.Equal(t, "John Doe <john@domain.tld> 1566115917000 -0700", sig.String())
	})

	t.Run("Should fail on truncated data", func(t *testing.T) {
		t.Parallel()

		testCases := []string{
			"",
			"John Doe",
			"John Doe <john@domain.tld>",
			"John Doe <john@domain.tld> 1566115917000",
			"John Doe <john@domain.tld> notanumber -0700",
			"John Doe <john@domain.tld> 1566115917000 somewhere",
		}
		for _, tc := range testCases {
			_, err := object.NewSignatureFromBytes([]byte(tc))
			assert.ErrorIs(t, err, object.ErrSignatureInvalid, "for %q", tc)
		}
	})
}

func TestNewCommit(t *testing.T) {
	t.Parallel()

	treeID, err := plumbing.NewOidFromStr("4b825dc642cb6eb9a060e54bf8d69288fbee4904")
	require.NoError(t, err)
	parentID, err := plumbing.NewOidFromStr("ce013625030ba8dba906f756967f9e9ca394464a")
	require.NoError(t, err)

	tz := time.FixedZone("", -7*3600)
	author := object.Signature{
		Name:  "John Doe",
		Email: "john@domain.tld",
		Time:  time.UnixMilli(1566115917000).In(tz),
	}

	t.Run("Should build the exact body for an initial commit", func(t *testing.T) {
		t.Parallel()

		c := object.NewCommit(treeID, author, &object.CommitOptions{
			Message: "Initial commit",
		})
		expected := fmt.Sprintf(
			"tree %s\nauthor %s\ncommitter %s\n\nInitial commit\n",
			treeID.String(), author.String(), author.String(),
		)
		assert.Equal(t, expected, string(c.ToObject().Bytes()))
	})

	t.Run("Should include one parent line per parent", func(t *testing.T) {
		t.Parallel()

		c := object.NewCommit(treeID, author, &object.CommitOptions{
			Message:   "Second commit\n",
			ParentIDs: []plumbing.Oid{parentID},
		})
		expected := fmt.Sprintf(
			"tree %s\nparent %s\nauthor %s\ncommitter %s\n\nSecond commit\n",
			treeID.String(), parentID.String(), author.String(), author.String(),
		)
		assert.Equal(t, expected, string(c.ToObject().Bytes()))
	})

	t.Run("Should round-trip through parsing", func(t *testing.T) {
		t.Parallel()

		c := object.NewCommit(treeID, author, &object.CommitOptions{
			Message:   "Second commit",
			ParentIDs: []plumbing.Oid{parentID},
		})

		back, err := object.NewCommitFromObject(c.ToObject())
		require.NoError(t, err)
		assert.Equal(t, treeID, back.TreeID())
		assert.Equal(t, []plumbing.Oid{parentID}, back.ParentIDs())
		assert.Equal(t, "John Doe", back.Author().Name)
		assert.Equal(t, int64(1566115917000), back.Committer().Time.UnixMilli())
		assert.Equal(t, "Second commit\n", back.Message())
	})
}

func TestNewCommitFromObject(t *testing.T) {
	t.Parallel()

	t.Run("Should skip unknown header lines", func(t *testing.T) {
		t.Parallel()

		body := "tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n" +
			"custom something\n" +
			"author John Doe <john@domain.tld> 1566115917000 -0700\n" +
			"committer John Doe <john@domain.tld> 1566115917000 -0700\n" +
			"\nmsg\n"
		c, err := object.NewCommitFromObject(object.New(object.TypeCommit, []byte(body)))
		require.NoError(t, err)
		assert.Equal(t, "msg\n", c.Message())
		assert.Empty(t, c.ParentIDs())
	})

	t.Run("Should refuse a non-commit object", func(t *testing.T) {
		t.Parallel()

		_, err := object.NewCommitFromObject(object.New(object.TypeBlob, []byte("hello\n")))
		assert.ErrorIs(t, err, object.ErrObjectInvalid)
	})

	t.Run("Should reject a header without a message separator", func(t *testing.T) {
		t.Parallel()

		body := "tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n"
		_, err := object.NewCommitFromObject(object.New(object.TypeCommit, []byte(body)))
		assert.ErrorIs(t, err, object.ErrCommitInvalid)
	})

	t.Run("Should reject an invalid tree id", func(t *testing.T) {
		t.Parallel()

		body := "tree nope\n\nmsg\n"
		_, err := object.NewCommitFromObject(object.New(object.TypeCommit, []byte(body)))
		assert.ErrorIs(t, err, plumbing.ErrInvalidOid)
	})
}
