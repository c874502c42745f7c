package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

const (
	lz4Raw    byte = 0
	lz4Packed byte = 1
)

var errCorruptLZ4 = errors.New("lz4: corrupt frame")

// LZ4Compressor implements LZ4 block compression. Frames are
// [mode][uvarint length][payload]; incompressible input is stored raw.
type LZ4Compressor struct{}

func (c *LZ4Compressor) Name() string {
	return "lz4"
}

// Compress compresses data using LZ4.
func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	header := make([]byte, 1+binary.MaxVarintLen64)
	n := binary.PutUvarint(header[1:], uint64(len(data)))
	header = header[:1+n]

	var hashTable [1 << 16]int
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	size, err := lz4.CompressBlock(data, compressed, hashTable[:])
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if size == 0 || size >= len(data) {
		header[0] = lz4Raw
		return append(header, data...), nil
	}
	header[0] = lz4Packed
	return append(header, compressed[:size]...), nil
}

// Decompress decompresses LZ4 data.
func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, errCorruptLZ4
	}
	length, n := binary.Uvarint(data[1:])
	if n <= 0 {
		return nil, errCorruptLZ4
	}
	payload := data[1+n:]

	switch data[0] {
	case lz4Raw:
		if uint64(len(payload)) != length {
			return nil, errCorruptLZ4
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	case lz4Packed:
		out := make([]byte, length)
		size, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if uint64(size) != length {
			return nil, errCorruptLZ4
		}
		return out, nil
	default:
		return nil, errCorruptLZ4
	}
}
