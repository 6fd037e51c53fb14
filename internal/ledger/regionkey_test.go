package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionKey(t *testing.T) {
	t.Run("null pads to 32 bytes", func(t *testing.T) {
		key, err := RegionKey("Lagos")
		require.NoError(t, err)
		assert.Equal(t, byte('L'), key[0])
		assert.Equal(t, byte('s'), key[4])
		for i := 5; i < len(key); i++ {
			assert.Equal(t, byte(0), key[i], "byte %d should be null padding", i)
		}
	})

	t.Run("encoding is case sensitive", func(t *testing.T) {
		upper, err := RegionKey("Lagos")
		require.NoError(t, err)
		lower, err := RegionKey("lagos")
		require.NoError(t, err)
		assert.NotEqual(t, upper, lower)
	})

	t.Run("rejects empty region", func(t *testing.T) {
		_, err := RegionKey("")
		assert.Error(t, err)
	})

	t.Run("rejects over-length region instead of truncating", func(t *testing.T) {
		_, err := RegionKey(strings.Repeat("x", 32))
		assert.Error(t, err)
	})

	t.Run("accepts 31 byte region", func(t *testing.T) {
		_, err := RegionKey(strings.Repeat("x", 31))
		assert.NoError(t, err)
	})
}
