// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"code.hybscloud.com/iox"
)

// Wire format (Stream protocol): a 1-byte header followed by optional
// extended length bytes and then the payload. Let L be payload length in
// bytes:
//   - 0 <= L <= 253: header[0] = L (no extended length)
//   - 254 <= L <= 65535: header[0] = 0xFE; next 2 bytes encode L
//   - 65536 <= L <= 2^56-1: header[0] = 0xFF; next 7 bytes encode the lower
//     56 bits of L
//
// This format is adapted here to read/write a whole frame per call instead
// of satisfying io.Reader/io.Writer.
const (
	streamHeaderLen  = 1
	streamMaxLen8Bit = 1<<8 - 3
	streamMaxLen16   = 1<<16 - 1
	streamMaxLen56   = 1<<56 - 1
)

// ErrWouldBlock and ErrMore re-export iox's non-blocking control-flow
// sentinels: an underlying io.Reader/io.Writer wrapping a non-blocking
// descriptor returns one of these instead of blocking. Both RecvFrame and
// SendFrame preserve partial progress across such a return, so a caller
// retries the same call (for SendFrame, with the identical frame) once the
// descriptor is ready again, rather than re-sending or re-parsing from
// scratch.
var (
	ErrWouldBlock = iox.ErrWouldBlock
	ErrMore       = iox.ErrMore
)

func isNonBlockingSignal(err error) bool {
	return errors.Is(err, iox.ErrWouldBlock) || errors.Is(err, iox.ErrMore)
}

type streamTransport struct {
	rw        io.ReadWriter
	byteOrder binary.ByteOrder
	readLimit int64

	readMu  sync.Mutex
	writeMu sync.Mutex

	closed bool
	mu     sync.Mutex

	// recvHdr/recvPayload accumulate a frame across RecvFrame calls when
	// the underlying reader returns ErrWouldBlock/ErrMore mid-frame.
	recvHdr     [8]byte
	recvHdrDone int
	recvHdrLen  int // 0 until the extended-length byte count is known
	recvPayload []byte
	recvPayDone int

	// sendPending holds the unsent tail of a frame (header+payload) after a
	// prior SendFrame call hit ErrWouldBlock/ErrMore on the underlying
	// writer.
	sendPending []byte
}

// newStream returns a Transport that adds/removes a length prefix around
// each frame on a boundary-less byte stream (TCP, Unix stream sockets,
// in-process pipes).
func newStream(rw io.ReadWriter, o Options) Transport {
	return &streamTransport{
		rw:        rw,
		byteOrder: o.ByteOrder,
		readLimit: int64(o.ReadLimit),
	}
}

func (t *streamTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *streamTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	if c, ok := t.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// readSome reads into p until full or the underlying reader returns an
// error. A non-blocking signal (ErrWouldBlock/ErrMore) carries whatever
// partial count was made; the caller folds that count into the
// transport's resumable read state instead of discarding it.
func (t *streamTransport) readSome(ctx context.Context, p []byte) (int, error) {
	got := 0
	for got < len(p) {
		if err := ctx.Err(); err != nil {
			return got, err
		}
		n, err := t.rw.Read(p[got:])
		got += n
		if err != nil {
			return got, err
		}
	}
	return got, nil
}

// resetRecv discards any in-progress partial frame, e.g. after a fatal
// (non-resumable) read error.
func (t *streamTransport) resetRecv() {
	t.recvHdrDone = 0
	t.recvHdrLen = 0
	t.recvPayload = nil
	t.recvPayDone = 0
}

// recvErr classifies an error from readSome. A non-blocking signal is
// returned unchanged, leaving the transport's partial-read state intact so
// the next RecvFrame call resumes exactly where this one left off. Any
// other error discards that state; io.EOF with no header/payload bytes yet
// consumed is a clean close, otherwise it is an unexpected mid-frame EOF.
func (t *streamTransport) recvErr(err error) error {
	if isNonBlockingSignal(err) {
		return err
	}
	inProgress := t.recvHdrDone > 0 || t.recvPayload != nil
	t.resetRecv()
	if err == io.EOF {
		if inProgress {
			return io.ErrUnexpectedEOF
		}
		return ErrClosed
	}
	return err
}

// RecvFrame reads one length-prefixed frame. On ErrWouldBlock/ErrMore from
// the underlying reader, RecvFrame returns that error immediately and
// resumes from the same position on the next call.
func (t *streamTransport) RecvFrame(ctx context.Context) ([]byte, error) {
	if t.isClosed() {
		return nil, ErrClosed
	}
	t.readMu.Lock()
	defer t.readMu.Unlock()

	if t.recvHdrDone < streamHeaderLen {
		n, err := t.readSome(ctx, t.recvHdr[t.recvHdrDone:streamHeaderLen])
		t.recvHdrDone += n
		if err != nil {
			return nil, t.recvErr(err)
		}
	}

	if t.recvHdrLen == 0 {
		switch t.recvHdr[0] {
		case streamMaxLen8Bit + 1:
			t.recvHdrLen = streamHeaderLen + 2
		case streamMaxLen8Bit + 2:
			t.recvHdrLen = streamHeaderLen + 7
		default:
			t.recvHdrLen = streamHeaderLen
		}
	}

	if t.recvHdrDone < t.recvHdrLen {
		n, err := t.readSome(ctx, t.recvHdr[t.recvHdrDone:t.recvHdrLen])
		t.recvHdrDone += n
		if err != nil {
			return nil, t.recvErr(err)
		}
	}

	if t.recvPayload == nil {
		exLen := t.recvHdrLen - streamHeaderLen
		var length int64
		switch exLen {
		case 0:
			length = int64(t.recvHdr[0])
		case 2:
			length = int64(t.byteOrder.Uint16(t.recvHdr[streamHeaderLen : streamHeaderLen+exLen]))
		case 7:
			u64 := t.byteOrder.Uint64(t.recvHdr[:])
			if t.byteOrder == binary.LittleEndian {
				length = int64(u64 >> 8)
			} else {
				length = int64(u64 & streamMaxLen56)
			}
		}
		if length < 0 || length > streamMaxLen56 {
			t.resetRecv()
			return nil, ErrTooLong
		}
		if t.readLimit > 0 && length > t.readLimit {
			t.resetRecv()
			return nil, ErrTooLong
		}
		t.recvPayload = make([]byte, length)
	}

	if t.recvPayDone < len(t.recvPayload) {
		n, err := t.readSome(ctx, t.recvPayload[t.recvPayDone:])
		t.recvPayDone += n
		if err != nil {
			return nil, t.recvErr(err)
		}
	}

	payload := t.recvPayload
	t.resetRecv()
	return payload, nil
}

// writeSome writes all of p, returning partial progress alongside any
// error so the caller can resume a non-blocking write.
func writeSome(w io.Writer, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := w.Write(p[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

// SendFrame writes one length-prefixed frame. On ErrWouldBlock/ErrMore from
// the underlying writer, SendFrame returns that error immediately; the
// caller must retry with the identical frame, and the already-written
// prefix is not re-sent.
func (t *streamTransport) SendFrame(ctx context.Context, frame []byte) error {
	if t.isClosed() {
		return ErrClosed
	}
	if int64(len(frame)) > streamMaxLen56 {
		return ErrTooLong
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.sendPending == nil {
		var hdr [8]byte
		var hdrSize int
		length := int64(len(frame))
		switch {
		case length <= streamMaxLen8Bit:
			hdr[0] = byte(length)
			hdrSize = streamHeaderLen
		case length <= streamMaxLen16:
			hdr[0] = streamMaxLen8Bit + 1
			t.byteOrder.PutUint16(hdr[streamHeaderLen:streamHeaderLen+2], uint16(length))
			hdrSize = streamHeaderLen + 2
		default:
			if t.byteOrder == binary.LittleEndian {
				t.byteOrder.PutUint64(hdr[:], uint64(length)<<8)
			} else {
				t.byteOrder.PutUint64(hdr[:], uint64(length)&streamMaxLen56)
			}
			hdr[0] = streamMaxLen8Bit + 2
			hdrSize = streamHeaderLen + 7
		}
		buf := make([]byte, 0, hdrSize+len(frame))
		buf = append(buf, hdr[:hdrSize]...)
		buf = append(buf, frame...)
		t.sendPending = buf
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	n, err := writeSome(t.rw, t.sendPending)
	t.sendPending = t.sendPending[n:]
	if err != nil {
		if isNonBlockingSignal(err) {
			return err
		}
		t.sendPending = nil
		if t.isClosed() {
			return ErrClosed
		}
		return err
	}
	t.sendPending = nil
	return nil
}
