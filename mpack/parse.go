package mpack

import (
	"bytes"
	"io"
	"math"
	"unicode/utf8"

	"github.com/philhofer/fwd"
)

// ============================================================
// Primitive Decoder
// ============================================================

// Decoder reads MessagePack primitives from a buffered source. Reads
// are type-directed: each Read* operation consumes one marker and
// fails with *TypeMismatchError when the marker does not satisfy the
// requested type. Integer reads widen from any smaller wire form when
// the value fits. A source that runs dry mid-value yields
// ErrUnexpectedEOF.
//
// This path always copies payloads and produces owning data. Zero-copy
// decode needs a full buffer in hand; see ParseRef.
type Decoder struct {
	r *fwd.Reader
}

// NewDecoder creates a Decoder with the default buffer size.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: fwd.NewReader(r)}
}

// NewDecoderSize creates a Decoder with a buffer of at least n bytes.
func NewDecoderSize(r io.Reader, n int) *Decoder {
	return &Decoder{r: fwd.NewReaderSize(r, n)}
}

// NewDecoderBytes creates a Decoder reading from b.
func NewDecoderBytes(b []byte) *Decoder {
	return &Decoder{r: fwd.NewReader(bytes.NewReader(b))}
}

// readMarker consumes and classifies one marker byte.
func (d *Decoder) readMarker() (byte, Kind, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, 0, eofErr(err)
	}
	return b, Classify(b), nil
}

// readBE reads an n-byte big-endian unsigned payload, n in 1..8.
func (d *Decoder) readBE(n int) (uint64, error) {
	p, err := d.r.Next(n)
	if err != nil {
		return 0, eofErr(err)
	}
	var v uint64
	for _, b := range p {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// readPayload reads exactly n raw bytes into fresh storage.
func (d *Decoder) readPayload(n uint32) ([]byte, error) {
	p := make([]byte, n)
	if _, err := d.r.ReadFull(p); err != nil {
		return nil, eofErr(err)
	}
	return p, nil
}

// ReadNil consumes a nil marker.
func (d *Decoder) ReadNil() error {
	b, k, err := d.readMarker()
	if err != nil {
		return err
	}
	switch k {
	case KindNil:
		return nil
	case KindReserved:
		return &InvalidMarkerError{Byte: b}
	}
	return &TypeMismatchError{Want: "nil", Got: k}
}

// ReadBool reads a boolean.
func (d *Decoder) ReadBool() (bool, error) {
	b, k, err := d.readMarker()
	if err != nil {
		return false, err
	}
	switch k {
	case KindTrue:
		return true, nil
	case KindFalse:
		return false, nil
	case KindReserved:
		return false, &InvalidMarkerError{Byte: b}
	}
	return false, &TypeMismatchError{Want: "bool", Got: k}
}

// ============================================================
// Integers
// ============================================================

// intPayload reads the payload of any integer marker and returns the
// value canonicalized: non-negative results always come back in u with
// neg false, regardless of whether the wire form was signed.
func (d *Decoder) intPayload(b byte, k Kind) (u uint64, i int64, neg bool, err error) {
	switch k {
	case KindFixPos:
		return uint64(b), 0, false, nil
	case KindFixNeg:
		return 0, int64(int8(b)), true, nil
	case KindUint8, KindUint16, KindUint32, KindUint64:
		width := 1 << (k - KindUint8)
		u, err = d.readBE(width)
		return u, 0, false, err
	case KindInt8, KindInt16, KindInt32, KindInt64:
		width := 1 << (k - KindInt8)
		raw, err := d.readBE(width)
		if err != nil {
			return 0, 0, false, err
		}
		// Sign-extend from the wire width.
		shift := 64 - 8*width
		v := int64(raw<<shift) >> shift
		if v >= 0 {
			return uint64(v), 0, false, nil
		}
		return 0, v, true, nil
	}
	return 0, 0, false, nil
}

// readInt consumes any integer form. The kind is reported back so
// range failures can name the marker actually seen.
func (d *Decoder) readInt(want string) (u uint64, i int64, neg bool, k Kind, err error) {
	b, k, err := d.readMarker()
	if err != nil {
		return 0, 0, false, k, err
	}
	if !k.isInt() {
		if k == KindReserved {
			return 0, 0, false, k, &InvalidMarkerError{Byte: b}
		}
		return 0, 0, false, k, &TypeMismatchError{Want: want, Got: k}
	}
	u, i, neg, err = d.intPayload(b, k)
	return u, i, neg, k, err
}

// readIntFit reads any integer form and checks it against the signed
// range [min, max].
func (d *Decoder) readIntFit(want string, min, max int64) (int64, error) {
	u, i, neg, k, err := d.readInt(want)
	if err != nil {
		return 0, err
	}
	if neg {
		if i < min {
			return 0, &TypeMismatchError{Want: want, Got: k}
		}
		return i, nil
	}
	if u > uint64(max) {
		return 0, &TypeMismatchError{Want: want, Got: k}
	}
	return int64(u), nil
}

// readUintFit reads any integer form and checks it against the
// unsigned range [0, max].
func (d *Decoder) readUintFit(want string, max uint64) (uint64, error) {
	u, _, neg, k, err := d.readInt(want)
	if err != nil {
		return 0, err
	}
	if neg || u > max {
		return 0, &TypeMismatchError{Want: want, Got: k}
	}
	return u, nil
}

// ReadInt reads any integer that fits int64.
func (d *Decoder) ReadInt() (int64, error) {
	return d.readIntFit("int", math.MinInt64, math.MaxInt64)
}

// ReadUint reads any non-negative integer.
func (d *Decoder) ReadUint() (uint64, error) {
	return d.readUintFit("uint", math.MaxUint64)
}

// ReadInt8 reads any integer that fits int8.
func (d *Decoder) ReadInt8() (int8, error) {
	v, err := d.readIntFit("int8", math.MinInt8, math.MaxInt8)
	return int8(v), err
}

// ReadInt16 reads any integer that fits int16.
func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.readIntFit("int16", math.MinInt16, math.MaxInt16)
	return int16(v), err
}

// ReadInt32 reads any integer that fits int32.
func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.readIntFit("int32", math.MinInt32, math.MaxInt32)
	return int32(v), err
}

// ReadUint8 reads any integer that fits uint8.
func (d *Decoder) ReadUint8() (uint8, error) {
	v, err := d.readUintFit("uint8", math.MaxUint8)
	return uint8(v), err
}

// ReadUint16 reads any integer that fits uint16.
func (d *Decoder) ReadUint16() (uint16, error) {
	v, err := d.readUintFit("uint16", math.MaxUint16)
	return uint16(v), err
}

// ReadUint32 reads any integer that fits uint32.
func (d *Decoder) ReadUint32() (uint32, error) {
	v, err := d.readUintFit("uint32", math.MaxUint32)
	return uint32(v), err
}

// ============================================================
// Floats
// ============================================================

// ReadFloat32 reads a 32-bit float. No widening: the wire form must be
// float32 exactly.
func (d *Decoder) ReadFloat32() (float32, error) {
	b, k, err := d.readMarker()
	if err != nil {
		return 0, err
	}
	switch k {
	case KindFloat32:
		bits, err := d.readBE(4)
		if err != nil {
			return 0, err
		}
		return math.Float32frombits(uint32(bits)), nil
	case KindReserved:
		return 0, &InvalidMarkerError{Byte: b}
	}
	return 0, &TypeMismatchError{Want: "float32", Got: k}
}

// ReadFloat64 reads a 64-bit float, widening a float32 wire form
// losslessly.
func (d *Decoder) ReadFloat64() (float64, error) {
	b, k, err := d.readMarker()
	if err != nil {
		return 0, err
	}
	switch k {
	case KindFloat64:
		bits, err := d.readBE(8)
		if err != nil {
			return 0, err
		}
		return math.Float64frombits(bits), nil
	case KindFloat32:
		bits, err := d.readBE(4)
		if err != nil {
			return 0, err
		}
		return float64(math.Float32frombits(uint32(bits))), nil
	case KindReserved:
		return 0, &InvalidMarkerError{Byte: b}
	}
	return 0, &TypeMismatchError{Want: "float64", Got: k}
}

// ============================================================
// Headers
// ============================================================

// headerLen reads the explicit length prefix for a kind, or extracts
// the length embedded in a fix-form marker byte.
func (d *Decoder) headerLen(b byte, k Kind) (uint32, error) {
	switch k {
	case KindFixStr:
		return uint32(b & 0x1f), nil
	case KindFixArray, KindFixMap:
		return uint32(b & 0x0f), nil
	}
	n, err := d.readBE(k.PrefixWidth())
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// ReadStringHeader reads a string header and returns the payload
// length. The payload bytes follow via ReadRaw.
func (d *Decoder) ReadStringHeader() (uint32, error) {
	b, k, err := d.readMarker()
	if err != nil {
		return 0, err
	}
	if !k.isStr() {
		if k == KindReserved {
			return 0, &InvalidMarkerError{Byte: b}
		}
		return 0, &TypeMismatchError{Want: "string", Got: k}
	}
	return d.headerLen(b, k)
}

// ReadBinaryHeader reads a binary header and returns the payload
// length.
func (d *Decoder) ReadBinaryHeader() (uint32, error) {
	b, k, err := d.readMarker()
	if err != nil {
		return 0, err
	}
	if !k.isBin() {
		if k == KindReserved {
			return 0, &InvalidMarkerError{Byte: b}
		}
		return 0, &TypeMismatchError{Want: "binary", Got: k}
	}
	return d.headerLen(b, k)
}

// ReadArrayHeader reads an array header and returns the element count.
func (d *Decoder) ReadArrayHeader() (uint32, error) {
	b, k, err := d.readMarker()
	if err != nil {
		return 0, err
	}
	switch k {
	case KindFixArray, KindArray16, KindArray32:
		return d.headerLen(b, k)
	case KindReserved:
		return 0, &InvalidMarkerError{Byte: b}
	}
	return 0, &TypeMismatchError{Want: "array", Got: k}
}

// ReadMapHeader reads a map header and returns the pair count.
func (d *Decoder) ReadMapHeader() (uint32, error) {
	b, k, err := d.readMarker()
	if err != nil {
		return 0, err
	}
	switch k {
	case KindFixMap, KindMap16, KindMap32:
		return d.headerLen(b, k)
	case KindReserved:
		return 0, &InvalidMarkerError{Byte: b}
	}
	return 0, &TypeMismatchError{Want: "map", Got: k}
}

// extHeader reads the length and type id of an extension whose marker
// has already been consumed.
func (d *Decoder) extHeader(k Kind) (int8, uint32, error) {
	n := k.fixExtSize()
	if n < 0 {
		ln, err := d.readBE(k.PrefixWidth())
		if err != nil {
			return 0, 0, err
		}
		n = int(ln)
	}
	t, err := d.r.ReadByte()
	if err != nil {
		return 0, 0, eofErr(err)
	}
	return int8(t), uint32(n), nil
}

// ReadExtensionHeader reads an extension header and returns the
// application type id and payload length. The payload follows via
// ReadRaw.
func (d *Decoder) ReadExtensionHeader() (int8, uint32, error) {
	b, k, err := d.readMarker()
	if err != nil {
		return 0, 0, err
	}
	switch k {
	case KindFixExt1, KindFixExt2, KindFixExt4, KindFixExt8, KindFixExt16,
		KindExt8, KindExt16, KindExt32:
		return d.extHeader(k)
	case KindReserved:
		return 0, 0, &InvalidMarkerError{Byte: b}
	}
	return 0, 0, &TypeMismatchError{Want: "ext", Got: k}
}

// ============================================================
// Complete values
// ============================================================

// ReadRaw reads exactly n payload bytes with no marker.
func (d *Decoder) ReadRaw(n uint32) ([]byte, error) {
	return d.readPayload(n)
}

// ReadString reads a complete string value and validates UTF-8.
// Invalid payloads fail with *Utf8Error carrying the offending offset
// and the raw bytes; callers that only need the bytes can use
// ReadBinary on the same input instead.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadStringHeader()
	if err != nil {
		return "", err
	}
	p, err := d.readPayload(n)
	if err != nil {
		return "", err
	}
	if err := checkUtf8(p); err != nil {
		return "", err
	}
	return string(p), nil
}

// ReadBinary reads a complete binary value. String markers are
// accepted too, without UTF-8 validation; that is the recovery path
// for text fields holding arbitrary bytes.
func (d *Decoder) ReadBinary() ([]byte, error) {
	b, k, err := d.readMarker()
	if err != nil {
		return nil, err
	}
	if !k.isBin() && !k.isStr() {
		if k == KindReserved {
			return nil, &InvalidMarkerError{Byte: b}
		}
		return nil, &TypeMismatchError{Want: "binary", Got: k}
	}
	n, err := d.headerLen(b, k)
	if err != nil {
		return nil, err
	}
	return d.readPayload(n)
}

// ReadExtension reads a complete extension value.
func (d *Decoder) ReadExtension() (int8, []byte, error) {
	typ, n, err := d.ReadExtensionHeader()
	if err != nil {
		return 0, nil, err
	}
	p, err := d.readPayload(n)
	if err != nil {
		return 0, nil, err
	}
	return typ, p, nil
}

// ============================================================
// Generic dynamic decode
// ============================================================

// ReadValue reads one value of any type into an owning tree. Reserved
// markers decode as Nil here (tolerant policy, generic path only).
// Aggregate decode is all-or-nothing: if any element fails, the whole
// read fails and no partial tree is returned.
//
// Recursion depth and allocation are bounded only by the input; bound
// the input when it is untrusted.
func (d *Decoder) ReadValue() (*Value, error) {
	b, k, err := d.readMarker()
	if err != nil {
		return nil, err
	}
	switch k {
	case KindNil, KindReserved:
		return Nil(), nil
	case KindFalse:
		return Bool(false), nil
	case KindTrue:
		return Bool(true), nil
	case KindFixPos, KindFixNeg,
		KindUint8, KindUint16, KindUint32, KindUint64,
		KindInt8, KindInt16, KindInt32, KindInt64:
		u, i, neg, err := d.intPayload(b, k)
		if err != nil {
			return nil, err
		}
		if neg {
			return Int(i), nil
		}
		return Uint(u), nil
	case KindFloat32:
		bits, err := d.readBE(4)
		if err != nil {
			return nil, err
		}
		return Float32(math.Float32frombits(uint32(bits))), nil
	case KindFloat64:
		bits, err := d.readBE(8)
		if err != nil {
			return nil, err
		}
		return Float64(math.Float64frombits(bits)), nil
	case KindFixStr, KindStr8, KindStr16, KindStr32:
		n, err := d.headerLen(b, k)
		if err != nil {
			return nil, err
		}
		p, err := d.readPayload(n)
		if err != nil {
			return nil, err
		}
		if err := checkUtf8(p); err != nil {
			return nil, err
		}
		return Str(string(p)), nil
	case KindBin8, KindBin16, KindBin32:
		n, err := d.headerLen(b, k)
		if err != nil {
			return nil, err
		}
		p, err := d.readPayload(n)
		if err != nil {
			return nil, err
		}
		return Bin(p), nil
	case KindFixArray, KindArray16, KindArray32:
		n, err := d.headerLen(b, k)
		if err != nil {
			return nil, err
		}
		elems := make([]*Value, n)
		for i := range elems {
			if elems[i], err = d.ReadValue(); err != nil {
				return nil, err
			}
		}
		return Array(elems...), nil
	case KindFixMap, KindMap16, KindMap32:
		n, err := d.headerLen(b, k)
		if err != nil {
			return nil, err
		}
		pairs := make([]MapPair, n)
		for i := range pairs {
			if pairs[i].Key, err = d.ReadValue(); err != nil {
				return nil, err
			}
			if pairs[i].Val, err = d.ReadValue(); err != nil {
				return nil, err
			}
		}
		return Map(pairs...), nil
	default: // extensions
		typ, n, err := d.extHeader(k)
		if err != nil {
			return nil, err
		}
		p, err := d.readPayload(n)
		if err != nil {
			return nil, err
		}
		return Ext(typ, p), nil
	}
}

// Skip consumes exactly one value, including any nested elements,
// without materializing it.
func (d *Decoder) Skip() error {
	b, k, err := d.readMarker()
	if err != nil {
		return err
	}
	switch k {
	case KindNil, KindReserved, KindFalse, KindTrue, KindFixPos, KindFixNeg:
		return nil
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return d.skipN(1 << (k - KindUint8))
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return d.skipN(1 << (k - KindInt8))
	case KindFloat32:
		return d.skipN(4)
	case KindFloat64:
		return d.skipN(8)
	case KindFixStr, KindStr8, KindStr16, KindStr32,
		KindBin8, KindBin16, KindBin32:
		n, err := d.headerLen(b, k)
		if err != nil {
			return err
		}
		return d.skipN(int(n))
	case KindFixArray, KindArray16, KindArray32:
		n, err := d.headerLen(b, k)
		if err != nil {
			return err
		}
		for ; n > 0; n-- {
			if err := d.Skip(); err != nil {
				return err
			}
		}
		return nil
	case KindFixMap, KindMap16, KindMap32:
		n, err := d.headerLen(b, k)
		if err != nil {
			return err
		}
		for ; n > 0; n-- {
			if err := d.Skip(); err != nil {
				return err
			}
			if err := d.Skip(); err != nil {
				return err
			}
		}
		return nil
	default: // extensions
		_, n, err := d.extHeader(k)
		if err != nil {
			return err
		}
		return d.skipN(int(n))
	}
}

func (d *Decoder) skipN(n int) error {
	if _, err := d.r.Skip(n); err != nil {
		return eofErr(err)
	}
	return nil
}

// checkUtf8 validates a string payload, locating the first invalid
// byte for the error report.
func checkUtf8(p []byte) error {
	if utf8.Valid(p) {
		return nil
	}
	for i := 0; i < len(p); {
		r, size := utf8.DecodeRune(p[i:])
		if r == utf8.RuneError && size <= 1 {
			return &Utf8Error{Offset: i, Bytes: p}
		}
		i += size
	}
	return nil
}
