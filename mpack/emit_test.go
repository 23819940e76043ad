package mpack

import (
	"bytes"
	"errors"
	"testing"
)

// encBytes runs one encoder operation and returns the wire bytes.
func encBytes(t *testing.T, fn func(e *Encoder) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	if err := fn(e); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	return buf.Bytes()
}

func TestWriteInt_Compact(t *testing.T) {
	tests := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{-1, []byte{0xff}},
		{-32, []byte{0xe0}},
		{-33, []byte{0xd0, 0xdf}},
		{128, []byte{0xcc, 0x80}},
		{255, []byte{0xcc, 0xff}},
		{256, []byte{0xcd, 0x01, 0x00}},
		{-128, []byte{0xd0, 0x80}},
		{-129, []byte{0xd1, 0xff, 0x7f}},
		{-32768, []byte{0xd1, 0x80, 0x00}},
		{-32769, []byte{0xd2, 0xff, 0xff, 0x7f, 0xff}},
		{65535, []byte{0xcd, 0xff, 0xff}},
		{65536, []byte{0xce, 0x00, 0x01, 0x00, 0x00}},
		{1<<31 - 1, []byte{0xce, 0x7f, 0xff, 0xff, 0xff}},
		{1 << 31, []byte{0xce, 0x80, 0x00, 0x00, 0x00}},
		{1<<32 - 1, []byte{0xce, 0xff, 0xff, 0xff, 0xff}},
		{1 << 32, []byte{0xcf, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
		{-2147483648, []byte{0xd2, 0x80, 0x00, 0x00, 0x00}},
		{-2147483649, []byte{0xd3, 0xff, 0xff, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff}},
		{1<<63 - 1, []byte{0xcf, 0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{-1 << 63, []byte{0xd3, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		got := encBytes(t, func(e *Encoder) error { return e.WriteInt(tt.v) })
		if !bytes.Equal(got, tt.want) {
			t.Errorf("WriteInt(%d) = % x, want % x", tt.v, got, tt.want)
		}
	}
}

func TestWriteUint_Compact(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0xcc, 0x80}},
		{255, []byte{0xcc, 0xff}},
		{256, []byte{0xcd, 0x01, 0x00}},
		{65535, []byte{0xcd, 0xff, 0xff}},
		{65536, []byte{0xce, 0x00, 0x01, 0x00, 0x00}},
		{1<<32 - 1, []byte{0xce, 0xff, 0xff, 0xff, 0xff}},
		{1 << 32, []byte{0xcf, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
		{1<<64 - 1, []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		got := encBytes(t, func(e *Encoder) error { return e.WriteUint(tt.v) })
		if !bytes.Equal(got, tt.want) {
			t.Errorf("WriteUint(%d) = % x, want % x", tt.v, got, tt.want)
		}
	}
}

func TestWrite_ExplicitWidths(t *testing.T) {
	tests := []struct {
		name string
		fn   func(e *Encoder) error
		want []byte
	}{
		{"uint8 small", func(e *Encoder) error { return e.WriteUint8(1) }, []byte{0xcc, 0x01}},
		{"uint16", func(e *Encoder) error { return e.WriteUint16(1) }, []byte{0xcd, 0x00, 0x01}},
		{"uint32", func(e *Encoder) error { return e.WriteUint32(1) }, []byte{0xce, 0x00, 0x00, 0x00, 0x01}},
		{"uint64", func(e *Encoder) error { return e.WriteUint64(1) }, []byte{0xcf, 0, 0, 0, 0, 0, 0, 0, 1}},
		{"int8", func(e *Encoder) error { return e.WriteInt8(-1) }, []byte{0xd0, 0xff}},
		{"int16", func(e *Encoder) error { return e.WriteInt16(-1) }, []byte{0xd1, 0xff, 0xff}},
		{"int32", func(e *Encoder) error { return e.WriteInt32(-1) }, []byte{0xd2, 0xff, 0xff, 0xff, 0xff}},
		{"int64", func(e *Encoder) error { return e.WriteInt64(-1) }, []byte{0xd3, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{"posfix", func(e *Encoder) error { return e.WritePosFix(127) }, []byte{0x7f}},
		{"negfix", func(e *Encoder) error { return e.WriteNegFix(-32) }, []byte{0xe0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encBytes(t, tt.fn)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestWriteFix_Range(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	if err := e.WritePosFix(128); err == nil {
		t.Error("WritePosFix(128) should fail")
	}
	if err := e.WriteNegFix(-33); err == nil {
		t.Error("WriteNegFix(-33) should fail")
	}
	if err := e.WriteNegFix(0); err == nil {
		t.Error("WriteNegFix(0) should fail")
	}
}

func TestWrite_NilBoolFloats(t *testing.T) {
	tests := []struct {
		name string
		fn   func(e *Encoder) error
		want []byte
	}{
		{"nil", func(e *Encoder) error { return e.WriteNil() }, []byte{0xc0}},
		{"false", func(e *Encoder) error { return e.WriteBool(false) }, []byte{0xc2}},
		{"true", func(e *Encoder) error { return e.WriteBool(true) }, []byte{0xc3}},
		{"float32", func(e *Encoder) error { return e.WriteFloat32(1.5) }, []byte{0xca, 0x3f, 0xc0, 0x00, 0x00}},
		{"float64", func(e *Encoder) error { return e.WriteFloat64(1.5) }, []byte{0xcb, 0x3f, 0xf8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encBytes(t, tt.fn)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestWriteHeaders_Compact(t *testing.T) {
	tests := []struct {
		name string
		fn   func(e *Encoder) error
		want []byte
	}{
		{"fixstr 0", func(e *Encoder) error { return e.WriteStringHeader(0) }, []byte{0xa0}},
		{"fixstr 31", func(e *Encoder) error { return e.WriteStringHeader(31) }, []byte{0xbf}},
		{"str8 32", func(e *Encoder) error { return e.WriteStringHeader(32) }, []byte{0xd9, 0x20}},
		{"str8 255", func(e *Encoder) error { return e.WriteStringHeader(255) }, []byte{0xd9, 0xff}},
		{"str16 256", func(e *Encoder) error { return e.WriteStringHeader(256) }, []byte{0xda, 0x01, 0x00}},
		{"str32 65536", func(e *Encoder) error { return e.WriteStringHeader(65536) }, []byte{0xdb, 0x00, 0x01, 0x00, 0x00}},
		{"bin8 0", func(e *Encoder) error { return e.WriteBinaryHeader(0) }, []byte{0xc4, 0x00}},
		{"bin8 255", func(e *Encoder) error { return e.WriteBinaryHeader(255) }, []byte{0xc4, 0xff}},
		{"bin16 256", func(e *Encoder) error { return e.WriteBinaryHeader(256) }, []byte{0xc5, 0x01, 0x00}},
		{"bin32 65536", func(e *Encoder) error { return e.WriteBinaryHeader(65536) }, []byte{0xc6, 0x00, 0x01, 0x00, 0x00}},
		{"fixarray 0", func(e *Encoder) error { return e.WriteArrayHeader(0) }, []byte{0x90}},
		{"fixarray 15", func(e *Encoder) error { return e.WriteArrayHeader(15) }, []byte{0x9f}},
		{"array16 16", func(e *Encoder) error { return e.WriteArrayHeader(16) }, []byte{0xdc, 0x00, 0x10}},
		{"array32 65536", func(e *Encoder) error { return e.WriteArrayHeader(65536) }, []byte{0xdd, 0x00, 0x01, 0x00, 0x00}},
		{"fixmap 0", func(e *Encoder) error { return e.WriteMapHeader(0) }, []byte{0x80}},
		{"fixmap 15", func(e *Encoder) error { return e.WriteMapHeader(15) }, []byte{0x8f}},
		{"map16 16", func(e *Encoder) error { return e.WriteMapHeader(16) }, []byte{0xde, 0x00, 0x10}},
		{"map32 65536", func(e *Encoder) error { return e.WriteMapHeader(65536) }, []byte{0xdf, 0x00, 0x01, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encBytes(t, tt.fn)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestWriteExtensionHeader(t *testing.T) {
	tests := []struct {
		name string
		typ  int8
		n    uint32
		want []byte
	}{
		{"fixext1", 5, 1, []byte{0xd4, 0x05}},
		{"fixext2", 5, 2, []byte{0xd5, 0x05}},
		{"fixext4", -1, 4, []byte{0xd6, 0xff}},
		{"fixext8", 5, 8, []byte{0xd7, 0x05}},
		{"fixext16", 5, 16, []byte{0xd8, 0x05}},
		{"ext8 len3", 5, 3, []byte{0xc7, 0x03, 0x05}},
		{"ext8 len0", 5, 0, []byte{0xc7, 0x00, 0x05}},
		{"ext16", 5, 256, []byte{0xc8, 0x01, 0x00, 0x05}},
		{"ext32", 5, 65536, []byte{0xc9, 0x00, 0x01, 0x00, 0x00, 0x05}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encBytes(t, func(e *Encoder) error { return e.WriteExtensionHeader(tt.typ, tt.n) })
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestWriteString_Complete(t *testing.T) {
	got := encBytes(t, func(e *Encoder) error { return e.WriteString("abc") })
	want := []byte{0xa3, 'a', 'b', 'c'}
	if !bytes.Equal(got, want) {
		t.Errorf("WriteString(abc) = % x, want % x", got, want)
	}

	got = encBytes(t, func(e *Encoder) error { return e.WriteBinary([]byte{1, 2}) })
	want = []byte{0xc4, 0x02, 0x01, 0x02}
	if !bytes.Equal(got, want) {
		t.Errorf("WriteBinary = % x, want % x", got, want)
	}

	got = encBytes(t, func(e *Encoder) error { return e.WriteExtension(7, []byte{0xaa, 0xbb, 0xcc}) })
	want = []byte{0xc7, 0x03, 0x07, 0xaa, 0xbb, 0xcc}
	if !bytes.Equal(got, want) {
		t.Errorf("WriteExtension = % x, want % x", got, want)
	}
}

// failWriter fails after n bytes.
type failWriter struct {
	n   int
	err error
}

func (w *failWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		n := w.n
		w.n = 0
		return n, w.err
	}
	w.n -= len(p)
	return len(p), nil
}

func TestEncode_SinkErrorPropagated(t *testing.T) {
	sinkErr := errors.New("sink closed")
	e := NewEncoderSize(&failWriter{n: 2, err: sinkErr}, 16)
	err := e.WriteString("this does not fit")
	if err == nil {
		err = e.Flush()
	}
	if !errors.Is(err, sinkErr) {
		t.Fatalf("sink error not propagated, got %v", err)
	}
}
