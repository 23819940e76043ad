package mpack

// ============================================================
// Marker Model
// ============================================================
//
// The first byte of every encoded value is its marker. Classification
// is a total function: all 256 byte values map to exactly one Kind,
// including the reserved byte 0xc1.

// Raw marker bytes for the non-fix forms.
const (
	mNil      byte = 0xc0
	mReserved byte = 0xc1
	mFalse    byte = 0xc2
	mTrue     byte = 0xc3
	mBin8     byte = 0xc4
	mBin16    byte = 0xc5
	mBin32    byte = 0xc6
	mExt8     byte = 0xc7
	mExt16    byte = 0xc8
	mExt32    byte = 0xc9
	mFloat32  byte = 0xca
	mFloat64  byte = 0xcb
	mUint8    byte = 0xcc
	mUint16   byte = 0xcd
	mUint32   byte = 0xce
	mUint64   byte = 0xcf
	mInt8     byte = 0xd0
	mInt16    byte = 0xd1
	mInt32    byte = 0xd2
	mInt64    byte = 0xd3
	mFixExt1  byte = 0xd4
	mFixExt2  byte = 0xd5
	mFixExt4  byte = 0xd6
	mFixExt8  byte = 0xd7
	mFixExt16 byte = 0xd8
	mStr8     byte = 0xd9
	mStr16    byte = 0xda
	mStr32    byte = 0xdb
	mArray16  byte = 0xdc
	mArray32  byte = 0xdd
	mMap16    byte = 0xde
	mMap32    byte = 0xdf
)

// Kind classifies a marker byte.
type Kind uint8

const (
	KindFixPos   Kind = iota // 0x00-0x7f, value in marker
	KindFixNeg               // 0xe0-0xff, value in marker
	KindNil                  // 0xc0
	KindReserved             // 0xc1, never emitted
	KindFalse                // 0xc2
	KindTrue                 // 0xc3
	KindBin8                 // 0xc4
	KindBin16                // 0xc5
	KindBin32                // 0xc6
	KindExt8                 // 0xc7
	KindExt16                // 0xc8
	KindExt32                // 0xc9
	KindFloat32              // 0xca
	KindFloat64              // 0xcb
	KindUint8                // 0xcc
	KindUint16               // 0xcd
	KindUint32               // 0xce
	KindUint64               // 0xcf
	KindInt8                 // 0xd0
	KindInt16                // 0xd1
	KindInt32                // 0xd2
	KindInt64                // 0xd3
	KindFixExt1              // 0xd4
	KindFixExt2              // 0xd5
	KindFixExt4              // 0xd6
	KindFixExt8              // 0xd7
	KindFixExt16             // 0xd8
	KindFixStr               // 0xa0-0xbf, length in low 5 bits
	KindStr8                 // 0xd9
	KindStr16                // 0xda
	KindStr32                // 0xdb
	KindFixArray             // 0x90-0x9f, count in low 4 bits
	KindArray16              // 0xdc
	KindArray32              // 0xdd
	KindFixMap               // 0x80-0x8f, pair count in low 4 bits
	KindMap16                // 0xde
	KindMap32                // 0xdf
)

// String returns the wire-format name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFixPos:
		return "fixint"
	case KindFixNeg:
		return "negative fixint"
	case KindNil:
		return "nil"
	case KindReserved:
		return "reserved"
	case KindFalse:
		return "false"
	case KindTrue:
		return "true"
	case KindBin8:
		return "bin8"
	case KindBin16:
		return "bin16"
	case KindBin32:
		return "bin32"
	case KindExt8:
		return "ext8"
	case KindExt16:
		return "ext16"
	case KindExt32:
		return "ext32"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFixExt1:
		return "fixext1"
	case KindFixExt2:
		return "fixext2"
	case KindFixExt4:
		return "fixext4"
	case KindFixExt8:
		return "fixext8"
	case KindFixExt16:
		return "fixext16"
	case KindFixStr:
		return "fixstr"
	case KindStr8:
		return "str8"
	case KindStr16:
		return "str16"
	case KindStr32:
		return "str32"
	case KindFixArray:
		return "fixarray"
	case KindArray16:
		return "array16"
	case KindArray32:
		return "array32"
	case KindFixMap:
		return "fixmap"
	case KindMap16:
		return "map16"
	case KindMap32:
		return "map32"
	default:
		return "unknown"
	}
}

// Classify maps a marker byte to its Kind. Total: every byte value has
// exactly one classification.
func Classify(b byte) Kind {
	switch {
	case b <= 0x7f:
		return KindFixPos
	case b <= 0x8f:
		return KindFixMap
	case b <= 0x9f:
		return KindFixArray
	case b <= 0xbf:
		return KindFixStr
	case b >= 0xe0:
		return KindFixNeg
	}
	// 0xc0-0xdf: one kind per byte.
	switch b {
	case mNil:
		return KindNil
	case mReserved:
		return KindReserved
	case mFalse:
		return KindFalse
	case mTrue:
		return KindTrue
	case mBin8:
		return KindBin8
	case mBin16:
		return KindBin16
	case mBin32:
		return KindBin32
	case mExt8:
		return KindExt8
	case mExt16:
		return KindExt16
	case mExt32:
		return KindExt32
	case mFloat32:
		return KindFloat32
	case mFloat64:
		return KindFloat64
	case mUint8:
		return KindUint8
	case mUint16:
		return KindUint16
	case mUint32:
		return KindUint32
	case mUint64:
		return KindUint64
	case mInt8:
		return KindInt8
	case mInt16:
		return KindInt16
	case mInt32:
		return KindInt32
	case mInt64:
		return KindInt64
	case mFixExt1:
		return KindFixExt1
	case mFixExt2:
		return KindFixExt2
	case mFixExt4:
		return KindFixExt4
	case mFixExt8:
		return KindFixExt8
	case mFixExt16:
		return KindFixExt16
	case mStr8:
		return KindStr8
	case mStr16:
		return KindStr16
	case mStr32:
		return KindStr32
	case mArray16:
		return KindArray16
	case mArray32:
		return KindArray32
	case mMap16:
		return KindMap16
	}
	return KindMap32 // 0xdf
}

// PrefixWidth returns how many explicit length/count bytes follow the
// marker: 0 for fixed and scalar forms, 1/2/4 for the prefixed forms.
func (k Kind) PrefixWidth() int {
	switch k {
	case KindBin8, KindStr8, KindExt8:
		return 1
	case KindBin16, KindStr16, KindExt16, KindArray16, KindMap16:
		return 2
	case KindBin32, KindStr32, KindExt32, KindArray32, KindMap32:
		return 4
	}
	return 0
}

// isInt reports whether the kind is any integer form.
func (k Kind) isInt() bool {
	switch k {
	case KindFixPos, KindFixNeg,
		KindUint8, KindUint16, KindUint32, KindUint64,
		KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

// isStr reports whether the kind is any string form.
func (k Kind) isStr() bool {
	switch k {
	case KindFixStr, KindStr8, KindStr16, KindStr32:
		return true
	}
	return false
}

// isBin reports whether the kind is any binary form.
func (k Kind) isBin() bool {
	switch k {
	case KindBin8, KindBin16, KindBin32:
		return true
	}
	return false
}

// fixExtSize returns the payload size of a fixext kind, or -1.
func (k Kind) fixExtSize() int {
	switch k {
	case KindFixExt1:
		return 1
	case KindFixExt2:
		return 2
	case KindFixExt4:
		return 4
	case KindFixExt8:
		return 8
	case KindFixExt16:
		return 16
	}
	return -1
}
