//go:build cgo

package compress

import "github.com/valyala/gozstd"

// Compress encodes the payload as a single zstd frame at level 3.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, 3), nil
}

// Decompress decodes a zstd frame into a buffer pre-sized from the
// envelope header.
func (c ZstdCompressor) Decompress(data []byte, uncompressedSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(make([]byte, 0, uncompressedSize), data)
}
