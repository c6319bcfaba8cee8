// Package stream implements the crow row-stream encoder and decoder.
//
// A stream is a sequence of tables; a table is a run of rows sharing one
// field registry. Field definitions are embedded in the stream the first
// time a field is written, so consumers decode without any out-of-band
// schema. The encoder stages header definitions, fixed-width struct data,
// and variable-length entries in separate regions and merges them at row
// flush, guaranteeing every definition precedes the first row that
// references it.
//
// Encoders and decoders are single-threaded; distinct instances may be
// used concurrently without restriction.
package stream
