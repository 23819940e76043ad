package mpack

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Type identifies the variant held by a Value or ValueRef.
type Type uint8

const (
	TypeNil Type = iota
	TypeBool
	TypeInt // unified signed/unsigned, exact to 64 bits
	TypeFloat32
	TypeFloat64
	TypeString
	TypeBinary
	TypeArray
	TypeMap
	TypeExt
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	case TypeExt:
		return "ext"
	default:
		return "unknown"
	}
}

// Value is a fully-owning dynamic MessagePack value. Its payloads have
// no lifetime dependency on any decode buffer. Values are built once
// (by decode or by the constructors below) and never mutated.
type Value struct {
	typ Type

	boolVal  bool
	uintVal  uint64 // integer when non-negative
	intVal   int64  // integer when negative
	negInt   bool
	floatVal float64 // float32 values stored widened (lossless)
	strVal   string
	binVal   []byte // binary and extension payloads
	arrVal   []*Value
	mapVal   []MapPair
	extType  int8
}

// MapPair is one key/value entry of a map. Maps preserve insertion
// order and permit duplicate keys; the wire format allows both.
type MapPair struct {
	Key *Value
	Val *Value
}

// ============================================================
// Constructors
// ============================================================

// Nil creates a nil value.
func Nil() *Value {
	return &Value{typ: TypeNil}
}

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{typ: TypeBool, boolVal: v}
}

// Int creates an integer value. Non-negative inputs are canonicalized
// into the unsigned representation so Int(5) and Uint(5) are equal.
func Int(v int64) *Value {
	if v >= 0 {
		return &Value{typ: TypeInt, uintVal: uint64(v)}
	}
	return &Value{typ: TypeInt, intVal: v, negInt: true}
}

// Uint creates an integer value from the unsigned 64-bit domain.
func Uint(v uint64) *Value {
	return &Value{typ: TypeInt, uintVal: v}
}

// Float32 creates a 32-bit float value.
func Float32(v float32) *Value {
	return &Value{typ: TypeFloat32, floatVal: float64(v)}
}

// Float64 creates a 64-bit float value.
func Float64(v float64) *Value {
	return &Value{typ: TypeFloat64, floatVal: v}
}

// Str creates a string value.
func Str(v string) *Value {
	return &Value{typ: TypeString, strVal: v}
}

// Bin creates a binary value. The slice is not copied.
func Bin(v []byte) *Value {
	return &Value{typ: TypeBinary, binVal: v}
}

// Array creates an array value.
func Array(elems ...*Value) *Value {
	return &Value{typ: TypeArray, arrVal: elems}
}

// Map creates a map value from ordered key/value pairs.
func Map(pairs ...MapPair) *Value {
	return &Value{typ: TypeMap, mapVal: pairs}
}

// Pair creates a MapPair for use in Map construction.
func Pair(key, val *Value) MapPair {
	return MapPair{Key: key, Val: val}
}

// Ext creates an extension value. The payload is not copied.
func Ext(typ int8, payload []byte) *Value {
	return &Value{typ: TypeExt, extType: typ, binVal: payload}
}

// ============================================================
// Accessors
// ============================================================

// Type returns the variant held.
func (v *Value) Type() Type {
	if v == nil {
		return TypeNil
	}
	return v.typ
}

// IsNil returns true for the nil value.
func (v *Value) IsNil() bool {
	return v == nil || v.typ == TypeNil
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if v == nil || v.typ != TypeBool {
		return false, fmt.Errorf("mpack: expected bool, got %s", v.Type())
	}
	return v.boolVal, nil
}

// AsInt returns the integer as int64. Fails for unsigned values above
// the int64 range.
func (v *Value) AsInt() (int64, error) {
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

// AsUint returns the integer as uint64. Fails for negative values.
func (v *Value) AsUint() (uint64, error) {
	if v == nil || v.typ != TypeInt {
		return 0, fmt.Errorf("mpack: expected int, got %s", v.Type())
	}
	if v.negInt {
		return 0, fmt.Errorf("mpack: integer %d is negative", v.intVal)
	}
	return v.uintVal, nil
}

// AsFloat32 returns the 32-bit float value.
func (v *Value) AsFloat32() (float32, error) {
	if v == nil || v.typ != TypeFloat32 {
		return 0, fmt.Errorf("mpack: expected float32, got %s", v.Type())
	}
	return float32(v.floatVal), nil
}

// AsFloat64 returns the float value, widening float32 losslessly.
func (v *Value) AsFloat64() (float64, error) {
	if v == nil || (v.typ != TypeFloat64 && v.typ != TypeFloat32) {
		return 0, fmt.Errorf("mpack: expected float, got %s", v.Type())
	}
	return v.floatVal, nil
}

// AsStr returns the string value.
func (v *Value) AsStr() (string, error) {
	if v == nil || v.typ != TypeString {
		return "", fmt.Errorf("mpack: expected string, got %s", v.Type())
	}
	return v.strVal, nil
}

// AsBin returns the binary payload.
func (v *Value) AsBin() ([]byte, error) {
	if v == nil || v.typ != TypeBinary {
		return nil, fmt.Errorf("mpack: expected binary, got %s", v.Type())
	}
	return v.binVal, nil
}

// AsArray returns the array elements.
func (v *Value) AsArray() ([]*Value, error) {
	if v == nil || v.typ != TypeArray {
		return nil, fmt.Errorf("mpack: expected array, got %s", v.Type())
	}
	return v.arrVal, nil
}

// AsMap returns the map pairs in stored order.
func (v *Value) AsMap() ([]MapPair, error) {
	if v == nil || v.typ != TypeMap {
		return nil, fmt.Errorf("mpack: expected map, got %s", v.Type())
	}
	return v.mapVal, nil
}

// AsExt returns the extension type id and payload.
func (v *Value) AsExt() (int8, []byte, error) {
	if v == nil || v.typ != TypeExt {
		return 0, nil, fmt.Errorf("mpack: expected ext, got %s", v.Type())
	}
	return v.extType, v.binVal, nil
}

// Len returns the element count of an array, the pair count of a map,
// or the payload length of a string/binary/extension. Zero otherwise.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.typ {
	case TypeArray:
		return len(v.arrVal)
	case TypeMap:
		return len(v.mapVal)
	case TypeString:
		return len(v.strVal)
	case TypeBinary, TypeExt:
		return len(v.binVal)
	}
	return 0
}

// Index returns the i-th element of an array.
func (v *Value) Index(i int) (*Value, error) {
	if v == nil || v.typ != TypeArray {
		return nil, fmt.Errorf("mpack: not an array")
	}
	if i < 0 || i >= len(v.arrVal) {
		return nil, fmt.Errorf("mpack: index %d out of bounds (len=%d)", i, len(v.arrVal))
	}
	return v.arrVal[i], nil
}

// Get returns the value for the first map pair whose key equals key,
// or nil if absent. Duplicate keys resolve to the first occurrence.
func (v *Value) Get(key *Value) *Value {
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
func (v *Value) GetStr(key string) *Value {
	return v.Get(Str(key))
}

// ============================================================
// Equality
// ============================================================

// Equal reports deep structural equality, including map pair order.
// A nil *Value equals the nil value.
func (v *Value) Equal(o *Value) bool {
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
	case TypeString:
		return v.strVal == o.strVal
	case TypeBinary:
		return bytesEqual(v.binVal, o.binVal)
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
		return v.extType == o.extType && bytesEqual(v.binVal, o.binVal)
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ============================================================
// Display
// ============================================================

// String renders the value as human-readable text: quoted strings,
// bracketed arrays and maps, hex for short binaries and a length
// summary for long ones.
func (v *Value) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v *Value) format(sb *strings.Builder) {
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
		sb.WriteString(strconv.Quote(v.strVal))
	case TypeBinary:
		formatBin(sb, v.binVal)
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
		fmt.Fprintf(sb, "ext(%d, %d bytes)", v.extType, len(v.binVal))
	}
}

// formatBin renders short payloads as hex, long ones as a summary.
func formatBin(sb *strings.Builder, b []byte) {
	if len(b) <= 16 {
		sb.WriteString("bin(")
		sb.WriteString(hex.EncodeToString(b))
		sb.WriteByte(')')
		return
	}
	fmt.Fprintf(sb, "bin(%d bytes)", len(b))
}
