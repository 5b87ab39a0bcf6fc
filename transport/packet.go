// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"io"
	"sync"
)

const defaultPacketCap = 64 * 1024

// packetTransport is a pass-through adapter for boundary-preserving
// transports (USB bulk, SCTP, WebSocket, UDP, Unix datagram sockets): one
// Read/Write call already delivers exactly one message.
type packetTransport struct {
	rw        io.ReadWriter
	readLimit int64

	readMu  sync.Mutex
	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

func newPacket(rw io.ReadWriter, o Options) Transport {
	return &packetTransport{rw: rw, readLimit: int64(o.ReadLimit)}
}

func (t *packetTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *packetTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	if c, ok := t.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *packetTransport) RecvFrame(ctx context.Context) ([]byte, error) {
	if t.isClosed() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.readMu.Lock()
	defer t.readMu.Unlock()

	cap := t.readLimit
	if cap <= 0 {
		cap = defaultPacketCap
	}
	buf := make([]byte, cap)
	n, err := t.rw.Read(buf)
	if err != nil && n == 0 {
		if err == io.EOF {
			return nil, ErrClosed
		}
		return nil, err
	}
	if t.readLimit > 0 && int64(n) > t.readLimit {
		return nil, ErrTooLong
	}
	return buf[:n], nil
}

func (t *packetTransport) SendFrame(ctx context.Context, frame []byte) error {
	if t.isClosed() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	n, err := t.rw.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return io.ErrShortWrite
	}
	return nil
}
