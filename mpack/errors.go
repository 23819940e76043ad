package mpack

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnexpectedEOF is returned when the source runs out of bytes in the
// middle of a value: a missing marker payload, a truncated length
// prefix, or fewer payload bytes than the header declared.
var ErrUnexpectedEOF = errors.New("mpack: unexpected end of input")

// TypeMismatchError is returned by type-directed reads when the marker
// encountered does not satisfy the requested type, or when a wider wire
// value does not fit the requested target.
type TypeMismatchError struct {
	Want string // what the caller asked for, e.g. "uint"
	Got  Kind   // the marker kind actually read
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("mpack: type mismatch: want %s, got marker %s", e.Want, e.Got)
}

// InvalidMarkerError is returned when a reserved marker byte is
// encountered by a type-directed read. The generic ReadValue/ParseRef
// paths never return it: they decode reserved markers as Nil.
type InvalidMarkerError struct {
	Byte byte
}

func (e *InvalidMarkerError) Error() string {
	return fmt.Sprintf("mpack: invalid marker byte 0x%02x", e.Byte)
}

// Utf8Error is returned when a string payload is not valid UTF-8.
// Offset is the position of the first invalid byte within the payload,
// and Bytes holds the complete raw payload so callers can recover by
// treating the data as binary instead.
type Utf8Error struct {
	Offset int
	Bytes  []byte
}

func (e *Utf8Error) Error() string {
	return fmt.Sprintf("mpack: invalid UTF-8 in string payload at offset %d", e.Offset)
}

// eofErr maps source-exhaustion errors onto ErrUnexpectedEOF and leaves
// every other I/O error untouched.
func eofErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEOF
	}
	return err
}
