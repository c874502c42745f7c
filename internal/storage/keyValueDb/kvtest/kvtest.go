// Package kvtest holds the behaviour every keyValueDb backend must share.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrow/internal/storage/keyValueDb"
)

// Run exercises db. The database must be empty.
func Run(t *testing.T, db keyValueDb.DB) {
	ctx := context.Background()

	t.Run("Write and Read", func(t *testing.T) {
		require.NoError(t, db.Write(ctx, []byte("test-key"), []byte("test-value")))

		got, err := db.Read(ctx, []byte("test-key"))
		require.NoError(t, err)
		assert.Equal(t, "test-value", string(got))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, db.Delete(ctx, []byte("test-key")))

		_, err := db.Read(ctx, []byte("test-key"))
		assert.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)
	})

	t.Run("Batch Operations", func(t *testing.T) {
		ops := []keyValueDb.BatchOperation{
			keyValueDb.Put([]byte("key1"), []byte("value1")),
			keyValueDb.Put([]byte("key2"), []byte("value2")),
			keyValueDb.Del([]byte("key1")),
		}
		require.NoError(t, db.Batch(ctx, ops))

		_, err := db.Read(ctx, []byte("key1"))
		assert.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)

		value, err := db.Read(ctx, []byte("key2"))
		require.NoError(t, err)
		assert.Equal(t, "value2", string(value))
	})

	t.Run("Iterator", func(t *testing.T) {
		for _, k := range []string{"p/c", "p/a", "p/b", "q/a"} {
			require.NoError(t, db.Write(ctx, []byte(k), []byte("v-"+k)))
		}

		prefix := []byte("p/")
		iter, err := db.Iterator(ctx, prefix, keyValueDb.PrefixEnd(prefix))
		require.NoError(t, err)
		defer func() { require.NoError(t, iter.Close()) }()

		var keys []string
		for iter.Next() {
			keys = append(keys, string(iter.Key()))
			assert.Equal(t, "v-"+string(iter.Key()), string(iter.Value()))
		}
		require.NoError(t, iter.Error())
		assert.Equal(t, []string{"p/a", "p/b", "p/c"}, keys)
	})

	t.Run("End bound is exclusive", func(t *testing.T) {
		iter, err := db.Iterator(ctx, []byte("p/a"), []byte("p/c"))
		require.NoError(t, err)
		defer iter.Close()

		var keys []string
		for iter.Next() {
			keys = append(keys, string(iter.Key()))
		}
		assert.Equal(t, []string{"p/a", "p/b"}, keys)
	})
}
