// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
)

// ErrZeroLengthFrame reports a COBS-decoded frame of zero length, which is
// a protocol error per the wire contract (a legitimate zero-byte payload
// still carries a non-empty header once postcardrpc wraps it).
var ErrZeroLengthFrame = errors.New("transport: zero-length decoded frame")

// Codec stuffs/unstuffs a frame for transmission over a terminator-framed
// byte stream. COBS framing as a standalone codec is an out-of-scope
// external collaborator for this module; DefaultCodec is a small,
// self-contained implementation provided so NewCOBSStream is exercisable
// without requiring callers to bring their own.
type Codec interface {
	// Encode returns the stuffed representation of frame, NOT including the
	// 0x00 terminator.
	Encode(frame []byte) []byte
	// Decode reverses Encode. encoded must not include the terminator.
	Decode(encoded []byte) ([]byte, error)
}

type cobsCodec struct{}

// DefaultCodec is the COBS (Consistent Overhead Byte Stuffing) codec used
// by NewCOBSStream when no Codec is supplied.
var DefaultCodec Codec = cobsCodec{}

func (cobsCodec) Encode(frame []byte) []byte {
	out := make([]byte, 0, len(frame)+len(frame)/254+2)
	out = append(out, 0) // placeholder for the first code byte
	codeIdx := 0
	code := byte(1)
	for _, b := range frame {
		if b == 0 {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xff {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return out
}

func (cobsCodec) Decode(enc []byte) ([]byte, error) {
	out := make([]byte, 0, len(enc))
	i := 0
	for i < len(enc) {
		code := enc[i]
		if code == 0 {
			return nil, errors.New("transport: unexpected zero byte in COBS block")
		}
		i++
		end := i + int(code) - 1
		if end > len(enc) {
			return nil, errors.New("transport: malformed COBS block")
		}
		out = append(out, enc[i:end]...)
		i = end
		if code < 0xff && i < len(enc) {
			out = append(out, 0)
		}
	}
	return out, nil
}

// cobsTransport implements Transport over a byte stream using COBS framing
// terminated by a single 0x00 byte per frame.
type cobsTransport struct {
	r         *bufio.Reader
	w         io.Writer
	codec     Codec
	readLimit int64

	readMu  sync.Mutex
	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

// NewCOBSStream returns a Transport that frames messages with COBS byte
// stuffing and a 0x00 terminator, suitable for byte-oriented serial links
// that cannot carry an in-band length prefix cheaply (or where a
// synchronization marker is preferred for recovery after noise).
func NewCOBSStream(rw io.ReadWriter, opts ...Option) Transport {
	o := resolveOptions(opts)
	return &cobsTransport{
		r:         bufio.NewReader(rw),
		w:         rw,
		codec:     DefaultCodec,
		readLimit: int64(o.ReadLimit),
	}
}

// NewCOBSStreamWithCodec is like NewCOBSStream but overrides the stuffing
// codec. Exposed as a direct constructor parameter (rather than a
// transport.Option) because it is specific to the COBS adapter.
func NewCOBSStreamWithCodec(rw io.ReadWriter, codec Codec, opts ...Option) Transport {
	t := NewCOBSStream(rw, opts...).(*cobsTransport)
	t.codec = codec
	return t
}

func (t *cobsTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *cobsTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *cobsTransport) RecvFrame(ctx context.Context) ([]byte, error) {
	if t.isClosed() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.readMu.Lock()
	defer t.readMu.Unlock()

	encoded, err := t.r.ReadBytes(0x00)
	if err != nil {
		if err == io.EOF {
			return nil, ErrClosed
		}
		return nil, err
	}
	encoded = encoded[:len(encoded)-1] // drop terminator

	frame, err := t.codec.Decode(encoded)
	if err != nil {
		return nil, err
	}
	if len(frame) == 0 {
		return nil, ErrZeroLengthFrame
	}
	if t.readLimit > 0 && int64(len(frame)) > t.readLimit {
		return nil, ErrTooLong
	}
	return frame, nil
}

func (t *cobsTransport) SendFrame(ctx context.Context, frame []byte) error {
	if t.isClosed() {
		return ErrClosed
	}
	if len(frame) == 0 {
		return ErrZeroLengthFrame
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	encoded := t.codec.Encode(frame)
	encoded = append(encoded, 0x00)
	_, err := writeSome(t.w, encoded)
	return err
}
