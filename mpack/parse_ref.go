package mpack

import "math"

// ============================================================
// Zero-Copy Decode
// ============================================================
//
// ParseRef needs the whole value in one contiguous buffer so payloads
// can be carried as sub-slices. A streaming source cannot lend slices
// of itself, which is why this path takes []byte rather than io.Reader.

// ParseRef decodes one value from buf into a borrowed tree. String,
// binary and extension payloads are sub-slices of buf; nothing is
// copied. Returns the tree and the number of bytes consumed.
//
// The tree is valid only while buf is alive and unmodified. Reserved
// markers decode as Nil, matching Decoder.ReadValue.
func ParseRef(buf []byte) (*ValueRef, int, error) {
	p := &refParser{buf: buf}
	v, err := p.parseValue()
	if err != nil {
		return nil, 0, err
	}
	return v, p.pos, nil
}

type refParser struct {
	buf []byte
	pos int
}

func (p *refParser) readByte() (byte, error) {
	if p.pos >= len(p.buf) {
		return 0, ErrUnexpectedEOF
	}
	b := p.buf[p.pos]
	p.pos++
	return b, nil
}

// take returns the next n bytes as a sub-slice of the input.
func (p *refParser) take(n int) ([]byte, error) {
	if n > len(p.buf)-p.pos {
		return nil, ErrUnexpectedEOF
	}
	s := p.buf[p.pos : p.pos+n : p.pos+n]
	p.pos += n
	return s, nil
}

// be reads an n-byte big-endian unsigned value, n in 1..8.
func (p *refParser) be(n int) (uint64, error) {
	s, err := p.take(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range s {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// headerLen mirrors Decoder.headerLen over the buffer cursor.
func (p *refParser) headerLen(b byte, k Kind) (int, error) {
	switch k {
	case KindFixStr:
		return int(b & 0x1f), nil
	case KindFixArray, KindFixMap:
		return int(b & 0x0f), nil
	}
	n, err := p.be(k.PrefixWidth())
	if err != nil {
		return 0, err
	}
	return int(uint32(n)), nil
}

func (p *refParser) parseValue() (*ValueRef, error) {
	b, err := p.readByte()
	if err != nil {
		return nil, err
	}
	k := Classify(b)
	switch k {
	case KindNil, KindReserved:
		return RefNil(), nil
	case KindFalse:
		return RefBool(false), nil
	case KindTrue:
		return RefBool(true), nil
	case KindFixPos:
		return RefUint(uint64(b)), nil
	case KindFixNeg:
		return RefInt(int64(int8(b))), nil
	case KindUint8, KindUint16, KindUint32, KindUint64:
		u, err := p.be(1 << (k - KindUint8))
		if err != nil {
			return nil, err
		}
		return RefUint(u), nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		width := 1 << (k - KindInt8)
		raw, err := p.be(width)
		if err != nil {
			return nil, err
		}
		shift := 64 - 8*width
		return RefInt(int64(raw<<shift) >> shift), nil
	case KindFloat32:
		bits, err := p.be(4)
		if err != nil {
			return nil, err
		}
		return RefFloat32(math.Float32frombits(uint32(bits))), nil
	case KindFloat64:
		bits, err := p.be(8)
		if err != nil {
			return nil, err
		}
		return RefFloat64(math.Float64frombits(bits)), nil
	case KindFixStr, KindStr8, KindStr16, KindStr32:
		n, err := p.headerLen(b, k)
		if err != nil {
			return nil, err
		}
		s, err := p.take(n)
		if err != nil {
			return nil, err
		}
		if err := checkUtf8(s); err != nil {
			return nil, err
		}
		return RefStr(s), nil
	case KindBin8, KindBin16, KindBin32:
		n, err := p.headerLen(b, k)
		if err != nil {
			return nil, err
		}
		s, err := p.take(n)
		if err != nil {
			return nil, err
		}
		return RefBin(s), nil
	case KindFixArray, KindArray16, KindArray32:
		n, err := p.headerLen(b, k)
		if err != nil {
			return nil, err
		}
		elems := make([]*ValueRef, n)
		for i := range elems {
			if elems[i], err = p.parseValue(); err != nil {
				return nil, err
			}
		}
		return RefArray(elems...), nil
	case KindFixMap, KindMap16, KindMap32:
		n, err := p.headerLen(b, k)
		if err != nil {
			return nil, err
		}
		pairs := make([]RefPair, n)
		for i := range pairs {
			if pairs[i].Key, err = p.parseValue(); err != nil {
				return nil, err
			}
			if pairs[i].Val, err = p.parseValue(); err != nil {
				return nil, err
			}
		}
		return RefMap(pairs...), nil
	default: // extensions
		n := k.fixExtSize()
		if n < 0 {
			ln, err := p.be(k.PrefixWidth())
			if err != nil {
				return nil, err
			}
			n = int(uint32(ln))
		}
		t, err := p.readByte()
		if err != nil {
			return nil, err
		}
		s, err := p.take(n)
		if err != nil {
			return nil, err
		}
		return RefExt(int8(t), s), nil
	}
}
