package mpack

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseRef_ZeroCopy(t *testing.T) {
	// ["hello", bin(de ad), ext payload]
	buf := []byte{
		0x93,
		0xa5, 'h', 'e', 'l', 'l', 'o',
		0xc4, 0x02, 0xde, 0xad,
		0xd5, 0x07, 0xbe, 0xef,
	}

	v, n, err := ParseRef(buf)
	if err != nil {
		t.Fatalf("ParseRef failed: %v", err)
	}
	if n != len(buf) {
		t.Errorf("consumed %d bytes, want %d", n, len(buf))
	}

	elems, err := v.AsArray()
	if err != nil {
		t.Fatal(err)
	}

	s, err := elems[0].AsStrBytes()
	if err != nil {
		t.Fatal(err)
	}
	if &s[0] != &buf[2] {
		t.Error("string payload is a copy, want a sub-slice of the input")
	}

	b, err := elems[1].AsBin()
	if err != nil {
		t.Fatal(err)
	}
	if &b[0] != &buf[9] {
		t.Error("binary payload is a copy, want a sub-slice of the input")
	}

	typ, p, err := elems[2].AsExt()
	if err != nil {
		t.Fatal(err)
	}
	if typ != 7 {
		t.Errorf("ext type = %d, want 7", typ)
	}
	if &p[0] != &buf[13] {
		t.Error("ext payload is a copy, want a sub-slice of the input")
	}
}

func TestParseRef_Consumed(t *testing.T) {
	// Trailing bytes are not consumed.
	buf := []byte{0x01, 0x02, 0x03}
	v, n, err := ParseRef(buf)
	if err != nil {
		t.Fatalf("ParseRef failed: %v", err)
	}
	if n != 1 {
		t.Errorf("consumed = %d, want 1", n)
	}
	if u, _ := v.AsUint(); u != 1 {
		t.Errorf("value = %v, want 1", v)
	}
}

func TestParseRef_MatchesOwnedDecode(t *testing.T) {
	var buf bytes.Buffer
	tree := Map(
		Pair(Str("name"), Str("arthur")),
		Pair(Str("ids"), Array(Int(-7), Uint(300), Nil())),
		Pair(Str("blob"), Bin([]byte{0, 1, 2})),
		Pair(Str("f"), Float32(2.5)),
	)
	if err := EncodeValue(&buf, tree); err != nil {
		t.Fatal(err)
	}

	direct, err := NewDecoderBytes(buf.Bytes()).ReadValue()
	if err != nil {
		t.Fatalf("owned decode failed: %v", err)
	}

	ref, _, err := ParseRef(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseRef failed: %v", err)
	}

	if promoted := ref.Owned(); !promoted.Equal(direct) {
		t.Errorf("promoted tree %v differs from direct decode %v", promoted, direct)
	}
}

func TestParseRef_Tolerant(t *testing.T) {
	v, _, err := ParseRef([]byte{0xc1})
	if err != nil {
		t.Fatalf("ParseRef(0xc1) failed: %v", err)
	}
	if !v.IsNil() {
		t.Errorf("ParseRef(0xc1) = %v, want nil", v)
	}
}

func TestParseRef_Truncated(t *testing.T) {
	tests := [][]byte{
		nil,
		{0xcc},
		{0xa3, 'a'},
		{0x92, 0x01},
		{0x81, 0xa1, 'k'},
		{0xc7, 0x05, 0x01, 0xaa},
		{0xdc, 0x00},
	}
	for _, in := range tests {
		if _, _, err := ParseRef(in); !errors.Is(err, ErrUnexpectedEOF) {
			t.Errorf("ParseRef(% x) error = %v, want ErrUnexpectedEOF", in, err)
		}
	}
}

func TestParseRef_InvalidUtf8(t *testing.T) {
	_, _, err := ParseRef([]byte{0xa1, 0xff})
	var u8 *Utf8Error
	if !errors.As(err, &u8) {
		t.Fatalf("error = %v, want Utf8Error", err)
	}
	if u8.Offset != 0 {
		t.Errorf("offset = %d, want 0", u8.Offset)
	}
}

func TestValueRef_Encode(t *testing.T) {
	buf := []byte{0x82, 0xa1, 'a', 0x01, 0xa1, 'b', 0x92, 0xc3, 0xc0}
	ref, _, err := ParseRef(buf)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := EncodeValueRef(&out, ref); err != nil {
		t.Fatalf("EncodeValueRef failed: %v", err)
	}
	if !bytes.Equal(out.Bytes(), buf) {
		t.Errorf("re-encoded = % x, want % x", out.Bytes(), buf)
	}
}

func TestValueRef_IndexAndGet(t *testing.T) {
	buf := []byte{0x82, 0xa1, 'a', 0x01, 0xa1, 'a', 0x02}
	ref, _, err := ParseRef(buf)
	if err != nil {
		t.Fatal(err)
	}
	// Duplicate keys: first match wins.
	got := ref.GetStr("a")
	if u, _ := got.AsUint(); u != 1 {
		t.Errorf("GetStr(a) = %v, want 1", got)
	}

	arr := RefArray(RefInt(1), RefInt(2))
	e, err := arr.Index(1)
	if err != nil {
		t.Fatal(err)
	}
	if i, _ := e.AsInt(); i != 2 {
		t.Errorf("Index(1) = %v, want 2", e)
	}
	if _, err := arr.Index(2); err == nil {
		t.Error("Index(2) should fail")
	}
}

func TestValue_RefRoundTrip(t *testing.T) {
	tree := Map(
		Pair(Str("s"), Str("text")),
		Pair(Str("b"), Bin([]byte{9, 8})),
		Pair(Str("e"), Ext(3, []byte{1})),
		Pair(Int(-5), Float64(0.25)),
	)
	back := tree.Ref().Owned()
	if !back.Equal(tree) {
		t.Errorf("Ref().Owned() = %v, want %v", back, tree)
	}

	// Binary payloads are lent, not copied.
	r := tree.GetStr("b").Ref()
	b, err := r.AsBin()
	if err != nil {
		t.Fatal(err)
	}
	orig, _ := tree.GetStr("b").AsBin()
	if &b[0] != &orig[0] {
		t.Error("Ref copied the binary payload, want aliased storage")
	}
}
