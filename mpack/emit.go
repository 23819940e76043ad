package mpack

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/philhofer/fwd"
)

// ============================================================
// Primitive Encoder
// ============================================================

// Encoder writes MessagePack primitives to a buffered sink. Integer and
// length-prefix writes always pick the smallest wire form that
// round-trips the value exactly. The only failure mode is the
// underlying writer's error, propagated verbatim.
//
// Call Flush before reading whatever the sink feeds.
type Encoder struct {
	w   *fwd.Writer
	tmp [9]byte // marker + widest payload
}

// NewEncoder creates an Encoder with the default buffer size.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: fwd.NewWriter(w)}
}

// NewEncoderSize creates an Encoder with a buffer of at least n bytes.
func NewEncoderSize(w io.Writer, n int) *Encoder {
	return &Encoder{w: fwd.NewWriterSize(w, n)}
}

// Flush pushes buffered bytes to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// prefix8 writes a marker followed by one payload byte.
func (e *Encoder) prefix8(marker byte, v uint8) error {
	e.tmp[0] = marker
	e.tmp[1] = v
	_, err := e.w.Write(e.tmp[:2])
	return err
}

// prefix16 writes a marker followed by a big-endian uint16.
func (e *Encoder) prefix16(marker byte, v uint16) error {
	e.tmp[0] = marker
	binary.BigEndian.PutUint16(e.tmp[1:3], v)
	_, err := e.w.Write(e.tmp[:3])
	return err
}

// prefix32 writes a marker followed by a big-endian uint32.
func (e *Encoder) prefix32(marker byte, v uint32) error {
	e.tmp[0] = marker
	binary.BigEndian.PutUint32(e.tmp[1:5], v)
	_, err := e.w.Write(e.tmp[:5])
	return err
}

// prefix64 writes a marker followed by a big-endian uint64.
func (e *Encoder) prefix64(marker byte, v uint64) error {
	e.tmp[0] = marker
	binary.BigEndian.PutUint64(e.tmp[1:9], v)
	_, err := e.w.Write(e.tmp[:9])
	return err
}

// WriteNil writes the nil marker.
func (e *Encoder) WriteNil() error {
	return e.w.WriteByte(mNil)
}

// WriteBool writes a boolean.
func (e *Encoder) WriteBool(v bool) error {
	if v {
		return e.w.WriteByte(mTrue)
	}
	return e.w.WriteByte(mFalse)
}

// ============================================================
// Integers: explicit widths
// ============================================================

// WritePosFix writes a positive fixint. v must be <= 127.
func (e *Encoder) WritePosFix(v uint8) error {
	if v > 0x7f {
		return fmt.Errorf("mpack: %d does not fit a positive fixint", v)
	}
	return e.w.WriteByte(v)
}

// WriteNegFix writes a negative fixint. v must be in [-32, -1].
func (e *Encoder) WriteNegFix(v int8) error {
	if v >= 0 || v < -32 {
		return fmt.Errorf("mpack: %d does not fit a negative fixint", v)
	}
	return e.w.WriteByte(byte(v))
}

// WriteUint8 writes v in the uint8 form regardless of magnitude.
func (e *Encoder) WriteUint8(v uint8) error {
	return e.prefix8(mUint8, v)
}

// WriteUint16 writes v in the uint16 form.
func (e *Encoder) WriteUint16(v uint16) error {
	return e.prefix16(mUint16, v)
}

// WriteUint32 writes v in the uint32 form.
func (e *Encoder) WriteUint32(v uint32) error {
	return e.prefix32(mUint32, v)
}

// WriteUint64 writes v in the uint64 form.
func (e *Encoder) WriteUint64(v uint64) error {
	return e.prefix64(mUint64, v)
}

// WriteInt8 writes v in the int8 form.
func (e *Encoder) WriteInt8(v int8) error {
	return e.prefix8(mInt8, uint8(v))
}

// WriteInt16 writes v in the int16 form.
func (e *Encoder) WriteInt16(v int16) error {
	return e.prefix16(mInt16, uint16(v))
}

// WriteInt32 writes v in the int32 form.
func (e *Encoder) WriteInt32(v int32) error {
	return e.prefix32(mInt32, uint32(v))
}

// WriteInt64 writes v in the int64 form.
func (e *Encoder) WriteInt64(v int64) error {
	return e.prefix64(mInt64, uint64(v))
}

// ============================================================
// Integers: most-compact selection
// ============================================================

// WriteInt writes a signed value in the smallest form that round-trips
// it. Non-negative values use the unsigned forms; that is the compact
// choice the format intends. Ordered range checks, smallest first.
func (e *Encoder) WriteInt(v int64) error {
	switch {
	case v >= -32 && v < 0:
		return e.w.WriteByte(byte(v))
	case v >= 0 && v < 128:
		return e.w.WriteByte(byte(v))
	case v >= -128 && v < -32:
		return e.prefix8(mInt8, uint8(v))
	case v >= 128 && v < 256:
		return e.prefix8(mUint8, uint8(v))
	case v >= -32768 && v < -128:
		return e.prefix16(mInt16, uint16(v))
	case v >= 256 && v < 65536:
		return e.prefix16(mUint16, uint16(v))
	case v >= math.MinInt32 && v < -32768:
		return e.prefix32(mInt32, uint32(v))
	case v >= 65536 && v < 1<<32:
		return e.prefix32(mUint32, uint32(v))
	case v < 0:
		return e.prefix64(mInt64, uint64(v))
	default:
		return e.prefix64(mUint64, uint64(v))
	}
}

// WriteUint writes an unsigned value in the smallest form that
// round-trips it.
func (e *Encoder) WriteUint(v uint64) error {
	switch {
	case v < 128:
		return e.w.WriteByte(byte(v))
	case v < 256:
		return e.prefix8(mUint8, uint8(v))
	case v < 65536:
		return e.prefix16(mUint16, uint16(v))
	case v < 1<<32:
		return e.prefix32(mUint32, uint32(v))
	default:
		return e.prefix64(mUint64, uint64(v))
	}
}

// ============================================================
// Floats
// ============================================================

// WriteFloat32 writes a 32-bit IEEE float.
func (e *Encoder) WriteFloat32(v float32) error {
	return e.prefix32(mFloat32, math.Float32bits(v))
}

// WriteFloat64 writes a 64-bit IEEE float.
func (e *Encoder) WriteFloat64(v float64) error {
	return e.prefix64(mFloat64, math.Float64bits(v))
}

// ============================================================
// Length-prefixed headers
// ============================================================

// WriteStringHeader writes the most compact string header for a
// payload of n bytes: fixstr up to 31, then str8/16/32.
func (e *Encoder) WriteStringHeader(n uint32) error {
	switch {
	case n <= 31:
		return e.w.WriteByte(0xa0 | byte(n))
	case n < 256:
		return e.prefix8(mStr8, uint8(n))
	case n < 65536:
		return e.prefix16(mStr16, uint16(n))
	default:
		return e.prefix32(mStr32, n)
	}
}

// WriteBinaryHeader writes the most compact binary header for a
// payload of n bytes: bin8/16/32.
func (e *Encoder) WriteBinaryHeader(n uint32) error {
	switch {
	case n < 256:
		return e.prefix8(mBin8, uint8(n))
	case n < 65536:
		return e.prefix16(mBin16, uint16(n))
	default:
		return e.prefix32(mBin32, n)
	}
}

// WriteArrayHeader writes the most compact array header for n
// elements: fixarray up to 15, then array16/32.
func (e *Encoder) WriteArrayHeader(n uint32) error {
	switch {
	case n <= 15:
		return e.w.WriteByte(0x90 | byte(n))
	case n < 65536:
		return e.prefix16(mArray16, uint16(n))
	default:
		return e.prefix32(mArray32, n)
	}
}

// WriteMapHeader writes the most compact map header for n key/value
// pairs: fixmap up to 15, then map16/32.
func (e *Encoder) WriteMapHeader(n uint32) error {
	switch {
	case n <= 15:
		return e.w.WriteByte(0x80 | byte(n))
	case n < 65536:
		return e.prefix16(mMap16, uint16(n))
	default:
		return e.prefix32(mMap32, n)
	}
}

// WriteExtensionHeader writes the most compact extension header for a
// payload of n bytes and the application type id: fixext1/2/4/8/16 for
// exact power-of-two sizes, else ext8/16/32. The n payload bytes must
// follow via WriteRaw.
func (e *Encoder) WriteExtensionHeader(typ int8, n uint32) error {
	switch n {
	case 1:
		return e.prefix8(mFixExt1, uint8(typ))
	case 2:
		return e.prefix8(mFixExt2, uint8(typ))
	case 4:
		return e.prefix8(mFixExt4, uint8(typ))
	case 8:
		return e.prefix8(mFixExt8, uint8(typ))
	case 16:
		return e.prefix8(mFixExt16, uint8(typ))
	}
	switch {
	case n < 256:
		e.tmp[0] = mExt8
		e.tmp[1] = uint8(n)
		e.tmp[2] = uint8(typ)
		_, err := e.w.Write(e.tmp[:3])
		return err
	case n < 65536:
		e.tmp[0] = mExt16
		binary.BigEndian.PutUint16(e.tmp[1:3], uint16(n))
		e.tmp[3] = uint8(typ)
		_, err := e.w.Write(e.tmp[:4])
		return err
	default:
		e.tmp[0] = mExt32
		binary.BigEndian.PutUint32(e.tmp[1:5], n)
		e.tmp[5] = uint8(typ)
		_, err := e.w.Write(e.tmp[:6])
		return err
	}
}

// ============================================================
// Payloads
// ============================================================

// WriteRaw writes payload bytes verbatim, with no marker.
func (e *Encoder) WriteRaw(p []byte) error {
	_, err := e.w.Write(p)
	return err
}

// WriteString writes a complete string value: header plus payload.
func (e *Encoder) WriteString(s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("mpack: string of %d bytes exceeds the wire format limit", len(s))
	}
	if err := e.WriteStringHeader(uint32(len(s))); err != nil {
		return err
	}
	_, err := e.w.WriteString(s)
	return err
}

// WriteBinary writes a complete binary value: header plus payload.
func (e *Encoder) WriteBinary(p []byte) error {
	if uint64(len(p)) > math.MaxUint32 {
		return fmt.Errorf("mpack: binary of %d bytes exceeds the wire format limit", len(p))
	}
	if err := e.WriteBinaryHeader(uint32(len(p))); err != nil {
		return err
	}
	return e.WriteRaw(p)
}

// WriteExtension writes a complete extension value: header, type id
// and payload.
func (e *Encoder) WriteExtension(typ int8, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("mpack: extension of %d bytes exceeds the wire format limit", len(payload))
	}
	if err := e.WriteExtensionHeader(typ, uint32(len(payload))); err != nil {
		return err
	}
	return e.WriteRaw(payload)
}
