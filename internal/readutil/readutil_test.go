package readutil_test

import (
	"testing"

	"github.com/goabstract/minigit/internal/readutil"
	"github.com/stretchr/testify/assert"
)

func TestReadTo(t *testing.T) {
	t.Parallel()

	t.Run("Should return the bytes before the separator", func(t *testing.T) {
		t.Parallel()

		out := readutil.ReadTo([]byte("100644 README.md"), ' ')
		assert.Equal(t, []byte("100644"), out)
	})

	t.Run("Should return nil if the separator is missing", func(t *testing.T) {
		t.Parallel()

		out := readutil.ReadTo([]byte("100644"), 0)
		assert.Nil(t, out)
	})

	t.Run("Should return an empty slice if the data starts with the separator", func(t *testing.T) {
		t.Parallel()

		out := readutil.ReadTo([]byte("\nmessage"), '\n')
		assert.Empty(t, out)
		assert.NotNil(t, out)
	})

	t.Run("Should return nil on empty input", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, readutil.ReadTo([]byte{}, ' '))
	})
}
