package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBucketContract exercises the behaviour every Bucket must share.
func runBucketContract(t *testing.T, b Bucket) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, b.Put(ctx, "a.json", []byte(`{"id":"a"}`), ""))
		data, err := b.Get(ctx, "a.json")
		require.NoError(t, err)
		assert.Equal(t, `{"id":"a"}`, string(data))
	})

	t.Run("no overwrite", func(t *testing.T) {
		err := b.Put(ctx, "a.json", []byte(`{"id":"b"}`), "")
		assert.ErrorIs(t, err, ErrObjectExists)
		data, err := b.Get(ctx, "a.json")
		require.NoError(t, err)
		assert.Equal(t, `{"id":"a"}`, string(data))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := b.Get(ctx, "nope.json")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := b.Exists(ctx, "a.json")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = b.Exists(ctx, "nope.json")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = b.Exists(ctx, "../a.json")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("invalid keys", func(t *testing.T) {
		for _, key := range []string{"", "..", "../etc/passwd", "a/b", `a\b`, "x/../y"} {
			_, err := b.Get(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey, key)
			assert.ErrorIs(t, b.Put(ctx, key, []byte("x"), ""), ErrInvalidKey, key)
		}
	})

	t.Run("concurrent puts", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, b.Put(ctx, fmt.Sprintf("c%d.json", i), []byte("{}"), ""))
			}(i)
		}
		wg.Wait()

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		assert.Len(t, keys, 9)
		assert.Contains(t, keys, "a.json")
		assert.Contains(t, keys, "c7.json")
	})

	t.Run("check", func(t *testing.T) {
		assert.NoError(t, b.Check(ctx))
	})
}
