package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string. Name-keyed fields are
// registered under this hash in the encoder's field registry.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Sum computes the xxHash64 of raw bytes, used for envelope checksums.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
