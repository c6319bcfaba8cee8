// Package encoding implements the stateless primitive codecs of the crow
// wire format: little-endian base-128 varints, zigzag transforms for signed
// integers, and fixed-width little-endian IEEE 754 floats.
//
// All functions operate on caller-provided buffers and carry no state;
// the stream package composes them into the row-level encoder and decoder.
package encoding
