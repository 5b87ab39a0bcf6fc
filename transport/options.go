// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import "encoding/binary"

// Protocol describes the expected message-boundary behavior of the
// underlying link.
//
//   - Stream: boundaries are not preserved (TCP, Unix stream sockets). New
//     adds a length prefix.
//   - Packet: boundaries are preserved (USB bulk, SCTP, WebSocket, UDP,
//     Unix datagram sockets). New is pass-through.
type Protocol uint8

const (
	Stream Protocol = 1
	Packet Protocol = 2
)

// Options configures a Transport constructed via New.
type Options struct {
	Protocol  Protocol
	ByteOrder binary.ByteOrder

	// ReadLimit caps the maximum allowed frame size in bytes. Zero means
	// no limit beyond the wire format's own maximum (2^56-1 for Stream).
	ReadLimit int
}

var defaultOptions = Options{
	Protocol:  Stream,
	ByteOrder: binary.BigEndian,
	ReadLimit: 0,
}

// Option configures Options.
type Option func(*Options)

// WithProtocol selects Stream or Packet framing.
func WithProtocol(p Protocol) Option {
	return func(o *Options) { o.Protocol = p }
}

// WithByteOrder selects the byte order used for Stream's extended length
// fields.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *Options) { o.ByteOrder = order }
}

// WithReadLimit caps the maximum accepted frame size.
func WithReadLimit(limit int) Option {
	return func(o *Options) { o.ReadLimit = limit }
}

func resolveOptions(opts []Option) Options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
