// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package postcardrpc

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	var k Key
	copy(k[:], []byte{1, 2, 3, 4, 5, 6, 7, 8})
	for _, seq := range []uint32{0, 1, 127, 128, 16383, 16384, 0xffffffff} {
		buf, n := EncodeHeader(nil, WireHeader{Key: k, SeqNo: seq})
		if n != len(buf) {
			t.Fatalf("EncodeHeader(%d): n=%d len(buf)=%d", seq, n, len(buf))
		}
		got, rest, err := DecodeHeader(buf)
		if err != nil {
			t.Fatalf("DecodeHeader(%d): %v", seq, err)
		}
		if got.Key != k || got.SeqNo != seq {
			t.Fatalf("DecodeHeader(%d): got %+v", seq, got)
		}
		if len(rest) != 0 {
			t.Fatalf("DecodeHeader(%d): leftover bytes %d", seq, len(rest))
		}
	}
}

func TestHeaderByteBoundaries(t *testing.T) {
	cases := []struct {
		seq       uint32
		extraLen  int // bytes after the 8 key bytes
	}{
		{0, 1},
		{1, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{0xffffffff, 5},
	}
	var k Key
	for _, c := range cases {
		_, n := EncodeHeader(nil, WireHeader{Key: k, SeqNo: c.seq})
		if n != 8+c.extraLen {
			t.Fatalf("seq=%d: got %d total bytes, want %d", c.seq, n, 8+c.extraLen)
		}
	}
}

func TestDecodeHeaderMalformed(t *testing.T) {
	if _, _, err := DecodeHeader([]byte{1, 2, 3}); err != ErrMalformedHeader {
		t.Fatalf("too-short buffer: got %v", err)
	}
	// 8 key bytes + an unterminated varint (all continuation bits set).
	buf := append(make([]byte, 8), 0x80, 0x80, 0x80, 0x80, 0x80, 0x80)
	if _, _, err := DecodeHeader(buf); err != ErrMalformedHeader {
		t.Fatalf("overlong varint: got %v", err)
	}
}

func TestMaxHeaderLen(t *testing.T) {
	var k Key
	for i := range k {
		k[i] = 0xff
	}
	buf, n := EncodeHeader(nil, WireHeader{Key: k, SeqNo: 0xffffffff})
	if n != HeaderMaxLen || len(buf) != HeaderMaxLen {
		t.Fatalf("expected max header length %d, got %d", HeaderMaxLen, n)
	}
}
