package plumbing_test

import (
	"testing"

	"github.com/goabstract/minigit/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOidFromStr(t *testing.T) {
	t.Parallel()

	t.Run("Should decode a valid 40-char SHA", func(t *testing.T) {
		t.Parallel()

		oid, err := plumbing.NewOidFromStr("9b91da06e69613397b38e0808e0ba5ee6983251b")
		require.NoError(t, err)
		assert.Equal(t, "9b91da06e69613397b38e0808e0ba5ee6983251b", oid.String())
		assert.Equal(t, byte(0x9b), oid.Bytes()[0])
	})

	t.Run("Should fail on an odd-length string", func(t *testing.T) {
		t.Parallel()

		_, err := plumbing.NewOidFromStr("9b91da06e69613397b38e0808e0ba5ee6983251")
		require.Error(t, err)
		assert.ErrorIs(t, err, plumbing.ErrInvalidOid)
	})

	t.Run("Should fail on non-hex chars", func(t *testing.T) {
		t.Parallel()

		_, err := plumbing.NewOidFromStr("zb91da06e69613397b38e0808e0ba5ee6983251b")
		require.Error(t, err)
		assert.ErrorIs(t, err, plumbing.ErrInvalidOid)
	})

	t.Run("Should fail on a SHA that is too short", func(t *testing.T) {
		t.Parallel()

		_, err := plumbing.NewOidFromStr("9b91da06")
		require.Error(t, err)
		assert.ErrorIs(t, err, plumbing.ErrInvalidOid)
	})
}

func TestNewOidFromHex(t *testing.T) {
	t.Parallel()

	t.Run("Should accept exactly 20 bytes", func(t *testing.T) {
		t.Parallel()

		raw := make([]byte, plumbing.OidSize)
		raw[0] = 0xe6
		oid, err := plumbing.NewOidFromHex(raw)
		require.NoError(t, err)
		assert.Equal(t, "e600000000000000000000000000000000000000", oid.String())
	})

	t.Run("Should reject any other length", func(t *testing.T) {
		t.Parallel()

		_, err := plumbing.NewOidFromHex(make([]byte, 19))
		assert.ErrorIs(t, err, plumbing.ErrInvalidOid)
		_, err = plumbing.NewOidFromHex(make([]byte, 21))
		assert.ErrorIs(t, err, plumbing.ErrInvalidOid)
	})
}

func TestIsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, plumbing.NullOid.IsZero())

	oid, err := plumbing.NewOidFromStr("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")
	require.NoError(t, err)
	assert.False(t, oid.IsZero())
}

func TestNewOidFromContent(t *testing.T) {
	t.Parallel()

	// well-known SHA of the empty blob framing
	oid := plumbing.NewOidFromContent([]byte("blob 0\x00"))
	assert.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", oid.String())
}
