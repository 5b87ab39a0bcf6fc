// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package postcard

import "testing"

func TestVarintBoundaries(t *testing.T) {
	cases := []struct {
		v     uint32
		nByte int
	}{
		{0, 1},
		{1, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{0xffffffff, 5},
	}
	for _, c := range cases {
		buf, n := PutUvarint32(nil, c.v)
		if n != c.nByte {
			t.Fatalf("PutUvarint32(%d): got %d bytes, want %d", c.v, n, c.nByte)
		}
		got, consumed, err := Uvarint32(buf)
		if err != nil {
			t.Fatalf("Uvarint32(%d): %v", c.v, err)
		}
		if got != c.v || consumed != c.nByte {
			t.Fatalf("Uvarint32(%d): got (%d,%d)", c.v, got, consumed)
		}
	}
}

func TestUvarintOverlong(t *testing.T) {
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01} // 6 continuation-marked bytes
	_, _, err := Uvarint(buf, 5)
	if err != ErrOverlongVarint {
		t.Fatalf("expected ErrOverlongVarint, got %v", err)
	}
}

func TestUvarintShortBuffer(t *testing.T) {
	buf := []byte{0x80, 0x80}
	_, _, err := Uvarint(buf, 5)
	if err != ErrShortBuffer {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.U32(42)
	e.String("hello")
	e.Bool(true)
	e.OptionSome()
	e.I32(-7)
	e.SeqLen(2)
	e.U8(1)
	e.U8(2)

	d := NewDecoder(e.Bytes())
	if v, err := d.U32(); err != nil || v != 42 {
		t.Fatalf("U32: %v %v", v, err)
	}
	if s, err := d.String(); err != nil || s != "hello" {
		t.Fatalf("String: %v %v", s, err)
	}
	if b, err := d.Bool(); err != nil || b != true {
		t.Fatalf("Bool: %v %v", b, err)
	}
	if some, err := d.OptionIsSome(); err != nil || !some {
		t.Fatalf("OptionIsSome: %v %v", some, err)
	}
	if v, err := d.I32(); err != nil || v != -7 {
		t.Fatalf("I32: %v %v", v, err)
	}
	n, err := d.SeqLen()
	if err != nil || n != 2 {
		t.Fatalf("SeqLen: %v %v", n, err)
	}
	for i := 0; i < n; i++ {
		if _, err := d.U8(); err != nil {
			t.Fatalf("U8[%d]: %v", i, err)
		}
	}
	if d.Remaining() != 0 {
		t.Fatalf("expected exhausted decoder, %d bytes left", d.Remaining())
	}
}

func TestZigzagRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, -128, 1 << 40, -(1 << 40)} {
		buf, _ := PutVarint(nil, v)
		got, _, err := Varint(buf)
		if err != nil {
			t.Fatalf("Varint(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("Varint round trip: got %d want %d", got, v)
		}
	}
}
