// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package postcardrpc

import (
	"errors"

	"code.hybscloud.com/postcardrpc/postcard"
)

// ErrMalformedHeader reports a frame too short to contain a key, or an
// incomplete/overlong seq_no varint.
var ErrMalformedHeader = errors.New("postcardrpc: malformed header")

// HeaderMaxLen is the maximum possible encoded WireHeader size: 8 key bytes
// plus a 5-byte (u32-width) seq_no varint.
const HeaderMaxLen = 8 + 5

// WireHeader is the (key, seq_no) pair at the start of every frame. seq_no
// is opaque on the wire; its meaning is assigned by the initiator of the
// exchange.
type WireHeader struct {
	Key   Key
	SeqNo uint32
}

// EncodeHeader appends the wire encoding of h (8 key bytes followed by
// seq_no as a postcard varint) to buf and returns the result along with the
// number of bytes written (9..13).
func EncodeHeader(buf []byte, h WireHeader) (out []byte, n int) {
	start := len(buf)
	buf = append(buf, h.Key[:]...)
	buf, _ = postcard.PutUvarint32(buf, h.SeqNo)
	return buf, len(buf) - start
}

// DecodeHeader parses a WireHeader from the front of buf, returning the
// header, the remaining (post-header) bytes, and an error if buf is too
// short to contain a key or the seq_no varint is incomplete or overlong
// (more than 5 bytes).
func DecodeHeader(buf []byte) (h WireHeader, rest []byte, err error) {
	if len(buf) < 9 {
		return WireHeader{}, nil, ErrMalformedHeader
	}
	copy(h.Key[:], buf[:8])
	seq, n, err := postcard.Uvarint32(buf[8:])
	if err != nil {
		return WireHeader{}, nil, ErrMalformedHeader
	}
	h.SeqNo = seq
	return h, buf[8+n:], nil
}
