// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package transport provides the abstract duplex byte-frame interface both
// the host client and device server dispatch engines depend on, plus
// concrete adapters for message-based transports (USB bulk, WebSocket,
// SCTP, UDP — boundaries preserved, pass-through) and byte-stream
// transports (TCP, Unix stream, COBS-framed serial — boundaries added).
//
// The stream adapter's length-prefix algorithm (see stream.go) uses a
// 1/2/7-byte extended-length scheme adapted from an io.Reader/io.Writer
// shape into a whole-frame RecvFrame/SendFrame shape, since the dispatch
// engines need complete frames to parse headers and route keys rather than
// a continuous byte stream.
package transport

import (
	"context"
	"errors"
)

// ErrClosed reports that the transport's underlying link has ended (clean
// EOF or the peer hung up) or been explicitly closed.
var ErrClosed = errors.New("transport: closed")

// ErrTooLong reports a frame length exceeding the configured ReadLimit or
// the format's maximum supported length.
var ErrTooLong = errors.New("transport: frame too long")

// ErrInvalidArgument reports a nil reader/writer or other misconfiguration.
var ErrInvalidArgument = errors.New("transport: invalid argument")

// Transport is the narrow contract both dispatch engines depend on: it
// delivers and accepts exactly one frame per call, with frame boundaries it
// is responsible for establishing.
type Transport interface {
	// RecvFrame yields exactly one frame as delivered by the underlying
	// link. It blocks until a frame is available or the link ends
	// (ErrClosed). ctx is checked before each read of the underlying link;
	// a read already blocked there is not interrupted when ctx is done.
	// An implementation wrapping a non-blocking
	// descriptor may instead return ErrWouldBlock/ErrMore; the caller
	// retries and the implementation resumes mid-frame rather than
	// restarting.
	RecvFrame(ctx context.Context) ([]byte, error)

	// SendFrame transmits one frame atomically. It blocks until the frame
	// is fully written or the link fails (ErrClosed). ctx is checked before
	// the write starts; a write already blocked in the underlying link is
	// not interrupted when ctx is done. An
	// implementation wrapping a non-blocking descriptor may instead return
	// ErrWouldBlock/ErrMore; the caller retries with the identical frame
	// and the implementation resumes from the already-written prefix.
	SendFrame(ctx context.Context, frame []byte) error

	// Close releases the transport's underlying resources. After Close,
	// RecvFrame and SendFrame return ErrClosed.
	Close() error
}
