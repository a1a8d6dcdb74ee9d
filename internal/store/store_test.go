package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *QueryStore {
	t.Helper()
	s, err := Open("", DefaultCompressionOptions())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestQueryStore(t *testing.T) {
	s := setupTestStore(t)

	t.Run("Miss", func(t *testing.T) {
		lines, ok, err := s.GetLines("absent")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, lines)
	})

	t.Run("PutGet", func(t *testing.T) {
		want := []string{"deadbeef line one", "deadbeef line two"}
		require.NoError(t, s.PutLines("blame:1", want))

		got, ok, err := s.GetLines("blame:1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("EmptyResultIsCached", func(t *testing.T) {
		require.NoError(t, s.PutLines("hunks:empty", nil))

		got, ok, err := s.GetLines("hunks:empty")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, got)
	})

	t.Run("LargeValueRoundTripsCompressed", func(t *testing.T) {
		var want []string
		for i := 0; i < 500; i++ {
			want = append(want, fmt.Sprintf("%s line %d", strings.Repeat("a", 40), i))
		}
		require.NoError(t, s.PutLines("blame:large", want))

		got, ok, err := s.GetLines("blame:large")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("CountAndPurge", func(t *testing.T) {
		n, err := s.Count()
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		require.NoError(t, s.Purge())
		n, err = s.Count()
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestCompressionManager(t *testing.T) {
	cm, err := newCompressionManager(DefaultCompressionOptions())
	require.NoError(t, err)

	small := []byte(`["x"]`)
	assert.Equal(t, small, cm.compress(small))

	large := []byte(strings.Repeat("deadbeef ", 1000))
	packed := cm.compress(large)
	assert.Less(t, len(packed), len(large))
	assert.Equal(t, zstdMagic, packed[:4])

	unpacked, err := cm.decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, large, unpacked)

	plain, err := cm.decompress(small)
	require.NoError(t, err)
	assert.Equal(t, small, plain)
}
