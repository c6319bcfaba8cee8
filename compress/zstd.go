package compress

// ZstdCompressor wraps Zstandard, the best-ratio codec of the set --
// suited to archived envelopes and bandwidth-bound links.
//
// Two implementations sit behind build tags: the cgo-backed gozstd
// binding when cgo is available, the pure-Go klauspost encoder
// otherwise. Both emit standard zstd frames and interoperate freely.
// Sealing happens once per stream, so each call builds its own encoder
// or decoder rather than keeping warm instances around.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
