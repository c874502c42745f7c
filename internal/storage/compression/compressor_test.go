package compression

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	random := make([]byte, 4096)
	_, err := rand.Read(random)
	require.NoError(t, err)

	inputs := map[string][]byte{
		"empty":      {},
		"small":      []byte("escrow"),
		"repetitive": bytes.Repeat([]byte("https://ipfs.io/ipfs/Qm/1.json"), 200),
		"random":     random,
	}

	for _, name := range Available() {
		c, err := Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())

		for label, in := range inputs {
			t.Run(name+"/"+label, func(t *testing.T) {
				packed, err := c.Compress(in)
				require.NoError(t, err)
				out, err := c.Decompress(packed)
				require.NoError(t, err)
				assert.True(t, bytes.Equal(in, out))
			})
		}
	}
}

func TestCompressesRepetitiveData(t *testing.T) {
	in := bytes.Repeat([]byte("seller buyer lender inspector "), 500)
	for _, name := range []string{"lz4", "zstd"} {
		c, err := Get(name)
		require.NoError(t, err)
		packed, err := c.Compress(in)
		require.NoError(t, err)
		assert.Less(t, len(packed), len(in)/4, name)
	}
}

func TestGet(t *testing.T) {
	c, err := Get("")
	require.NoError(t, err)
	assert.Equal(t, "none", c.Name())

	_, err = Get("brotli")
	assert.Error(t, err)
	assert.True(t, IsAvailable("zstd"))
	assert.Equal(t, []string{"lz4", "none", "zstd"}, Available())
}

func TestLZ4RejectsCorruptFrames(t *testing.T) {
	c := &LZ4Compressor{}
	_, err := c.Decompress([]byte{9})
	assert.Error(t, err)
	_, err = c.Decompress([]byte{lz4Raw, 5, 'a'})
	assert.Error(t, err)
}
