package mpack

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueRef is the borrowing counterpart of Value: the same variant set,
// but string/binary/extension payloads are sub-slices of the buffer the
// tree was decoded from, and array/map elements are themselves
// ValueRefs. Nothing is copied by ParseRef.
//
// Lifetime contract: a ValueRef tree must not be read after the buffer
// it was built from is released or mutated. This is not checked at
// runtime. Promote with Owned to sever the dependency.
type ValueRef struct {
	typ Type

	boolVal  bool
	uintVal  uint64
	intVal   int64
	negInt   bool
	floatVal float64
	payload  []byte // string, binary and extension bytes, borrowed
	arrVal   []*ValueRef
	mapVal   []RefPair
	extType  int8
}

// RefPair is one key/value entry of a borrowed map.
type RefPair struct {
	Key *ValueRef
	Val *ValueRef
}

// ============================================================
// Constructors
// ============================================================
//
// Mostly for building trees to encode; decoded trees come out of
// ParseRef or Value.Ref.

// RefNil creates a nil ref.
func RefNil() *ValueRef {
	return &ValueRef{typ: TypeNil}
}

// RefBool creates a boolean ref.
func RefBool(v bool) *ValueRef {
	return &ValueRef{typ: TypeBool, boolVal: v}
}

// RefInt creates an integer ref, canonicalized like Int.
func RefInt(v int64) *ValueRef {
	if v >= 0 {
		return &ValueRef{typ: TypeInt, uintVal: uint64(v)}
	}
	return &ValueRef{typ: TypeInt, intVal: v, negInt: true}
}

// RefUint creates an integer ref from the unsigned domain.
func RefUint(v uint64) *ValueRef {
	return &ValueRef{typ: TypeInt, uintVal: v}
}

// RefFloat32 creates a 32-bit float ref.
func RefFloat32(v float32) *ValueRef {
	return &ValueRef{typ: TypeFloat32, floatVal: float64(v)}
}

// RefFloat64 creates a 64-bit float ref.
func RefFloat64(v float64) *ValueRef {
	return &ValueRef{typ: TypeFloat64, floatVal: v}
}

// RefStr creates a string ref viewing b, which must be valid UTF-8.
func RefStr(b []byte) *ValueRef {
	return &ValueRef{typ: TypeString, payload: b}
}

// RefBin creates a binary ref viewing b.
func RefBin(b []byte) *ValueRef {
	return &ValueRef{typ: TypeBinary, payload: b}
}

// RefArray creates an array ref.
func RefArray(elems ...*ValueRef) *ValueRef {
	return &ValueRef{typ: TypeArray, arrVal: elems}
}

// RefMap creates a map ref from ordered pairs.
func RefMap(pairs ...RefPair) *ValueRef {
	return &ValueRef{typ: TypeMap, mapVal: pairs}
}

// RefExt creates an extension ref viewing payload.
func RefExt(typ int8, payload []byte) *ValueRef {
	return &ValueRef{typ: TypeExt, extType: typ, payload: payload}
}

// ============================================================
// Accessors
// ============================================================

// Type returns the variant held.
func (v *ValueRef) Type() Type {
	if v == nil {
		return TypeNil
	}
	return v.typ
}

// IsNil returns true for the nil value.
func (v *ValueRef) IsNil() bool {
	return v == nil || v.typ == TypeNil
}

// AsBool returns the boolean value.
func (v *ValueRef) AsBool() (bool, error) {
	if v == nil || v.typ != TypeBool {
		return false, fmt.Errorf("mpack: expected bool, got %s", v.Type())
	}
	return v.boolVal, nil
}

// AsInt returns the integer as int64.
func (v *ValueRef) AsInt() (int64, error) {
	if v == nil || v.typ != TypeInt {
		return 0, fmt.Errorf("mpack: expected int, got %s", v.Type())
	}
	if v.negInt {
		return v.intVal, nil
	}
	if v.uintVal > 1<<63-1 {
		return 0, fmt.Errorf("mpack: integer %d overflows int64", v.uintVal)
	}
	return int64(v.uintVal), nil
}

// AsUint returns the integer as uint64.
func (v *ValueRef) AsUint() (uint64, error) {
	if v == nil || v.typ != TypeInt {
		return 0, fmt.Errorf("mpack: expected int, got %s", v.Type())
	}
	if v.negInt {
		return 0, fmt.Errorf("mpack: integer %d is negative", v.intVal)
	}
	return v.uintVal, nil
}

// AsFloat32 returns the 32-bit float value.
func (v *ValueRef) AsFloat32() (float32, error) {
	if v == nil || v.typ != TypeFloat32 {
		return 0, fmt.Errorf("mpack: expected float32, got %s", v.Type())
	}
	return float32(v.floatVal), nil
}

// AsFloat64 returns the float value, widening float32 losslessly.
func (v *ValueRef) AsFloat64() (float64, error) {
	if v == nil || (v.typ != TypeFloat64 && v.typ != TypeFloat32) {
		return 0, fmt.Errorf("mpack: expected float, got %s", v.Type())
	}
	return v.floatVal, nil
}

// AsStrBytes returns the string payload without copying. The slice
// aliases the source buffer.
func (v *ValueRef) AsStrBytes() ([]byte, error) {
	if v == nil || v.typ != TypeString {
		return nil, fmt.Errorf("mpack: expected string, got %s", v.Type())
	}
	return v.payload, nil
}

// AsStr returns the string payload as a string. This allocates; use
// AsStrBytes on hot paths.
func (v *ValueRef) AsStr() (string, error) {
	b, err := v.AsStrBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AsBin returns the binary payload without copying.
func (v *ValueRef) AsBin() ([]byte, error) {
	if v == nil || v.typ != TypeBinary {
		return nil, fmt.Errorf("mpack: expected binary, got %s", v.Type())
	}
	return v.payload, nil
}

// AsArray returns the array elements.
func (v *ValueRef) AsArray() ([]*ValueRef, error) {
	if v == nil || v.typ != TypeArray {
		return nil, fmt.Errorf("mpack: expected array, got %s", v.Type())
	}
	return v.arrVal, nil
}

// AsMap returns the map pairs in stored order.
func (v *ValueRef) AsMap() ([]RefPair, error) {
	if v == nil || v.typ != TypeMap {
		return nil, fmt.Errorf("mpack: expected map, got %s", v.Type())
	}
	return v.mapVal, nil
}

// AsExt returns the extension type id and payload without copying.
func (v *ValueRef) AsExt() (int8, []byte, error) {
	if v == nil || v.typ != TypeExt {
		return 0, nil, fmt.Errorf("mpack: expected ext, got %s", v.Type())
	}
	return v.extType, v.payload, nil
}

// Len mirrors Value.Len.
func (v *ValueRef) Len() int {
	if v == nil {
		return 0
	}
	switch v.typ {
	case TypeArray:
		return len(v.arrVal)
	case TypeMap:
		return len(v.mapVal)
	case TypeString, TypeBinary, TypeExt:
		return len(v.payload)
	}
	return 0
}

// Index returns the i-th element of an array.
func (v *ValueRef) Index(i int) (*ValueRef, error) {
	if v == nil || v.typ != TypeArray {
		return nil, fmt.Errorf("mpack: not an array")
	}
	if i < 0 || i >= len(v.arrVal) {
		return nil, fmt.Errorf("mpack: index %d out of bounds (len=%d)", i, len(v.arrVal))
	}
	return v.arrVal[i], nil
}

// Get returns the value for the first map pair whose key equals key,
// or nil if absent.
func (v *ValueRef) Get(key *ValueRef) *ValueRef {
	if v == nil || v.typ != TypeMap {
		return nil
	}
	for _, p := range v.mapVal {
		if p.Key.Equal(key) {
			return p.Val
		}
	}
	return nil
}

// GetStr is shorthand for Get with a string key.
func (v *ValueRef) GetStr(key string) *ValueRef {
	return v.Get(RefStr([]byte(key)))
}

// Equal reports deep structural equality, including map pair order.
func (v *ValueRef) Equal(o *ValueRef) bool {
	if v.IsNil() || o.IsNil() {
		return v.IsNil() && o.IsNil()
	}
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeBool:
		return v.boolVal == o.boolVal
	case TypeInt:
		return v.negInt == o.negInt && v.uintVal == o.uintVal && v.intVal == o.intVal
	case TypeFloat32, TypeFloat64:
		return v.floatVal == o.floatVal
	case TypeString, TypeBinary:
		return bytesEqual(v.payload, o.payload)
	case TypeArray:
		if len(v.arrVal) != len(o.arrVal) {
			return false
		}
		for i := range v.arrVal {
			if !v.arrVal[i].Equal(o.arrVal[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		if len(v.mapVal) != len(o.mapVal) {
			return false
		}
		for i := range v.mapVal {
			if !v.mapVal[i].Key.Equal(o.mapVal[i].Key) || !v.mapVal[i].Val.Equal(o.mapVal[i].Val) {
				return false
			}
		}
		return true
	case TypeExt:
		return v.extType == o.extType && bytesEqual(v.payload, o.payload)
	}
	return false
}

// String renders the borrowed tree like Value.String.
func (v *ValueRef) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v *ValueRef) format(sb *strings.Builder) {
	if v == nil {
		sb.WriteString("nil")
		return
	}
	switch v.typ {
	case TypeNil:
		sb.WriteString("nil")
	case TypeBool:
		if v.boolVal {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case TypeInt:
		if v.negInt {
			sb.WriteString(strconv.FormatInt(v.intVal, 10))
		} else {
			sb.WriteString(strconv.FormatUint(v.uintVal, 10))
		}
	case TypeFloat32:
		sb.WriteString(strconv.FormatFloat(v.floatVal, 'g', -1, 32))
	case TypeFloat64:
		sb.WriteString(strconv.FormatFloat(v.floatVal, 'g', -1, 64))
	case TypeString:
		sb.WriteString(strconv.Quote(string(v.payload)))
	case TypeBinary:
		formatBin(sb, v.payload)
	case TypeArray:
		sb.WriteByte('[')
		for i, e := range v.arrVal {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.format(sb)
		}
		sb.WriteByte(']')
	case TypeMap:
		sb.WriteByte('{')
		for i, p := range v.mapVal {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.Key.format(sb)
			sb.WriteString(": ")
			p.Val.format(sb)
		}
		sb.WriteByte('}')
	case TypeExt:
		fmt.Fprintf(sb, "ext(%d, %d bytes)", v.extType, len(v.payload))
	}
}

// ============================================================
// Conversion
// ============================================================

// Owned deep-copies the borrowed tree into an owning Value with no
// remaining ties to the source buffer. It cannot fail: string payloads
// were validated during decode. Structure and map pair order are
// preserved exactly.
func (v *ValueRef) Owned() *Value {
	if v == nil {
		return Nil()
	}
	switch v.typ {
	case TypeNil:
		return Nil()
	case TypeBool:
		return Bool(v.boolVal)
	case TypeInt:
		if v.negInt {
			return Int(v.intVal)
		}
		return Uint(v.uintVal)
	case TypeFloat32:
		return Float32(float32(v.floatVal))
	case TypeFloat64:
		return Float64(v.floatVal)
	case TypeString:
		return Str(string(v.payload))
	case TypeBinary:
		return Bin(append([]byte(nil), v.payload...))
	case TypeArray:
		elems := make([]*Value, len(v.arrVal))
		for i, e := range v.arrVal {
			elems[i] = e.Owned()
		}
		return Array(elems...)
	case TypeMap:
		pairs := make([]MapPair, len(v.mapVal))
		for i, p := range v.mapVal {
			pairs[i] = MapPair{Key: p.Key.Owned(), Val: p.Val.Owned()}
		}
		return Map(pairs...)
	case TypeExt:
		return Ext(v.extType, append([]byte(nil), v.payload...))
	}
	return Nil()
}

// Ref lends the owning tree's storage as a borrowed view. Binary and
// extension payloads alias v's backing storage directly; string
// payloads are the one exception and are copied, since Go offers no
// safe view of a string's bytes. The result is valid for as long as v
// is reachable and unmodified.
func (v *Value) Ref() *ValueRef {
	if v == nil {
		return RefNil()
	}
	switch v.typ {
	case TypeNil:
		return RefNil()
	case TypeBool:
		return RefBool(v.boolVal)
	case TypeInt:
		if v.negInt {
			return RefInt(v.intVal)
		}
		return RefUint(v.uintVal)
	case TypeFloat32:
		return RefFloat32(float32(v.floatVal))
	case TypeFloat64:
		return RefFloat64(v.floatVal)
	case TypeString:
		return RefStr([]byte(v.strVal))
	case TypeBinary:
		return RefBin(v.binVal)
	case TypeArray:
		elems := make([]*ValueRef, len(v.arrVal))
		for i, e := range v.arrVal {
			elems[i] = e.Ref()
		}
		return RefArray(elems...)
	case TypeMap:
		pairs := make([]RefPair, len(v.mapVal))
		for i, p := range v.mapVal {
			pairs[i] = RefPair{Key: p.Key.Ref(), Val: p.Val.Ref()}
		}
		return RefMap(pairs...)
	case TypeExt:
		return RefExt(v.extType, v.binVal)
	}
	return RefNil()
}
