// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package postcard is a narrow, self-contained encoder/decoder for the
// subset of the postcard wire format this module needs: unsigned/signed
// LEB128 varints and a handful of primitive types. A full postcard
// serializer is an out-of-scope external collaborator; this package exists
// only to exercise the wire contract end to end in examples and tests.
package postcard

import "errors"

// ErrOverlongVarint reports a varint that did not terminate within the
// maximum number of bytes for its width.
var ErrOverlongVarint = errors.New("postcard: overlong varint")

// ErrShortBuffer reports a buffer that ended before a varint terminated.
var ErrShortBuffer = errors.New("postcard: short buffer")

const maxVarintBytesU32 = 5
const maxVarintBytesU64 = 10

// PutUvarint appends the unsigned LEB128 encoding of v to buf and returns
// the result along with the number of bytes written.
func PutUvarint(buf []byte, v uint64) ([]byte, int) {
	start := len(buf)
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	buf = append(buf, byte(v))
	return buf, len(buf) - start
}

// Uvarint decodes an unsigned LEB128 varint from the front of buf, bounded
// by maxBytes (5 for a u32-width seq_no per the wire header, 10 for a
// general u64). It returns the value, the number of bytes consumed, and an
// error if the buffer was too short or the varint was overlong.
func Uvarint(buf []byte, maxBytes int) (uint64, int, error) {
	var v uint64
	for i := 0; i < len(buf); i++ {
		if i == maxBytes {
			return 0, 0, ErrOverlongVarint
		}
		b := buf[i]
		v |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrShortBuffer
}

// PutUvarint32 appends the unsigned LEB128 encoding of a u32 value.
func PutUvarint32(buf []byte, v uint32) ([]byte, int) {
	return PutUvarint(buf, uint64(v))
}

// Uvarint32 decodes a u32-width unsigned LEB128 varint (at most 5 bytes).
func Uvarint32(buf []byte) (uint32, int, error) {
	v, n, err := Uvarint(buf, maxVarintBytesU32)
	if err != nil {
		return 0, 0, err
	}
	if v > 0xffffffff {
		return 0, 0, ErrOverlongVarint
	}
	return uint32(v), n, nil
}

// zigzag maps signed integers to unsigned so small magnitudes stay small.
func zigzagEncode64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// PutVarint appends the zigzag-encoded signed LEB128 encoding of v.
func PutVarint(buf []byte, v int64) ([]byte, int) {
	return PutUvarint(buf, zigzagEncode64(v))
}

// Varint decodes a zigzag-encoded signed LEB128 varint.
func Varint(buf []byte) (int64, int, error) {
	u, n, err := Uvarint(buf, maxVarintBytesU64)
	if err != nil {
		return 0, 0, err
	}
	return zigzagDecode64(u), n, nil
}
