package mpack

import (
	"bytes"
	"io"
)

// ============================================================
// Tree Encoding
// ============================================================
//
// Encoding recurses in the same order decode produced the tree: array
// elements by index, map pairs in stored order, never re-sorted. A
// well-formed tree is always encodable; the only failures are sink
// write errors.

// WriteValue encodes an owning tree.
func (e *Encoder) WriteValue(v *Value) error {
	if v == nil {
		return e.WriteNil()
	}
	switch v.typ {
	case TypeNil:
		return e.WriteNil()
	case TypeBool:
		return e.WriteBool(v.boolVal)
	case TypeInt:
		if v.negInt {
			return e.WriteInt(v.intVal)
		}
		return e.WriteUint(v.uintVal)
	case TypeFloat32:
		return e.WriteFloat32(float32(v.floatVal))
	case TypeFloat64:
		return e.WriteFloat64(v.floatVal)
	case TypeString:
		return e.WriteString(v.strVal)
	case TypeBinary:
		return e.WriteBinary(v.binVal)
	case TypeArray:
		if err := e.WriteArrayHeader(uint32(len(v.arrVal))); err != nil {
			return err
		}
		for _, elem := range v.arrVal {
			if err := e.WriteValue(elem); err != nil {
				return err
			}
		}
		return nil
	case TypeMap:
		if err := e.WriteMapHeader(uint32(len(v.mapVal))); err != nil {
			return err
		}
		for _, p := range v.mapVal {
			if err := e.WriteValue(p.Key); err != nil {
				return err
			}
			if err := e.WriteValue(p.Val); err != nil {
				return err
			}
		}
		return nil
	default: // TypeExt
		return e.WriteExtension(v.extType, v.binVal)
	}
}

// WriteValueRef encodes a borrowed tree. Wire output is identical to
// encoding the promoted tree.
func (e *Encoder) WriteValueRef(v *ValueRef) error {
	if v == nil {
		return e.WriteNil()
	}
	switch v.typ {
	case TypeNil:
		return e.WriteNil()
	case TypeBool:
		return e.WriteBool(v.boolVal)
	case TypeInt:
		if v.negInt {
			return e.WriteInt(v.intVal)
		}
		return e.WriteUint(v.uintVal)
	case TypeFloat32:
		return e.WriteFloat32(float32(v.floatVal))
	case TypeFloat64:
		return e.WriteFloat64(v.floatVal)
	case TypeString:
		if err := e.WriteStringHeader(uint32(len(v.payload))); err != nil {
			return err
		}
		return e.WriteRaw(v.payload)
	case TypeBinary:
		return e.WriteBinary(v.payload)
	case TypeArray:
		if err := e.WriteArrayHeader(uint32(len(v.arrVal))); err != nil {
			return err
		}
		for _, elem := range v.arrVal {
			if err := e.WriteValueRef(elem); err != nil {
				return err
			}
		}
		return nil
	case TypeMap:
		if err := e.WriteMapHeader(uint32(len(v.mapVal))); err != nil {
			return err
		}
		for _, p := range v.mapVal {
			if err := e.WriteValueRef(p.Key); err != nil {
				return err
			}
			if err := e.WriteValueRef(p.Val); err != nil {
				return err
			}
		}
		return nil
	default: // TypeExt
		return e.WriteExtension(v.extType, v.payload)
	}
}

// EncodeValue writes one value to w in wire form.
func EncodeValue(w io.Writer, v *Value) error {
	e := NewEncoder(w)
	if err := e.WriteValue(v); err != nil {
		return err
	}
	return e.Flush()
}

// EncodeValueRef writes one borrowed value to w in wire form.
func EncodeValueRef(w io.Writer, v *ValueRef) error {
	e := NewEncoder(w)
	if err := e.WriteValueRef(v); err != nil {
		return err
	}
	return e.Flush()
}

// AppendValue encodes v and appends the wire bytes to dst.
func AppendValue(dst []byte, v *Value) []byte {
	var buf bytes.Buffer
	// A memory sink cannot fail.
	_ = EncodeValue(&buf, v)
	return append(dst, buf.Bytes()...)
}
