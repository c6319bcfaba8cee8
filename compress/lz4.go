package compress

import "github.com/pierrec/lz4/v4"

// LZ4Compressor wraps LZ4 block encoding.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress encodes the payload as a single LZ4 block. For payloads LZ4
// cannot shrink (CompressBlock reports zero bytes written, or the block
// is no smaller than the input) the result is nil, which tells Seal to
// store the payload raw instead.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var lc lz4.Compressor
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 || n >= len(data) {
		return nil, nil
	}

	return dst[:n], nil
}

// Decompress decodes an LZ4 block. The output buffer is allocated once
// at the exact size recorded in the envelope header, so no resize or
// retry is needed.
func (c LZ4Compressor) Decompress(data []byte, uncompressedSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}
