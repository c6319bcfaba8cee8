// Package section defines the wire-level constants of the crow format --
// tag ids, header and table flag bits, field limits -- and the fixed-size
// envelope header used when a finished stream is sealed for transport.
package section
