// Package compress provides the codecs used to seal an encoded crow
// stream into a transport envelope.
//
// The envelope is a single-shot frame: one Compress when a finished
// stream is sealed, one Decompress when it is opened. The codecs are
// therefore plain stateless calls -- there is no per-call allocation
// churn worth amortizing. The envelope header also records the original
// payload size, so Decompress receives it and can allocate its output
// exactly once instead of guessing.
package compress

import (
	"fmt"

	"github.com/packetzero/crow/format"
)

// Compressor compresses a complete encoded payload in one call.
//
// The returned slice is newly allocated and owned by the caller (the
// no-op codec passes the input through); the input is never modified.
// A nil result for non-empty input means the codec could not shrink the
// payload; callers may store the payload raw instead.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload produced by the matching Compressor.
// uncompressedSize is the original payload length from the envelope
// header; implementations size their output buffer from it.
type Decompressor interface {
	Decompress(data []byte, uncompressedSize int) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec returns the codec registered for the given compression type.
func CreateCodec(compression format.CompressionType) (Codec, error) {
	switch compression {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("unknown compression type: %s", compression.String())
	}
}
