// Package mpack implements the MessagePack binary serialization format.
//
// The package is built around two layers:
//   - Primitive codec: Encoder/Decoder expose one typed write/read
//     operation per wire kind (nil, bool, ints, floats, string, binary,
//     array/map headers, extensions). Encoding always picks the most
//     compact representation that round-trips the value exactly.
//   - Dynamic values: Value is an owning tree representing any decoded
//     message without a schema; ValueRef is the same shape with its
//     string/binary/extension payloads borrowed from the source buffer
//     (zero-copy decode via ParseRef).
//
// # Dual Decode Strategies
//
// Decoding into Value copies every payload and has no lifetime ties.
// Decoding into ValueRef via ParseRef copies nothing: payloads are
// sub-slices of the input buffer, so the buffer must stay alive and
// unmodified for as long as the ValueRef tree (or anything derived
// from its zero-copy accessors) is in use. Promote with Owned() to
// drop that dependency.
//
// # Tolerant Dynamic Decode
//
// The generic Decoder.ReadValue and ParseRef paths decode the reserved
// marker 0xc1 as Nil for forward compatibility. Type-directed reads
// (ReadInt, ReadString, ...) reject it with InvalidMarkerError.
//
// # Untrusted Input
//
// Dynamic decode recurses per nesting level and allocates per declared
// element count. The package imposes no depth or size ceiling; callers
// decoding untrusted input should bound input size themselves.
package mpack
