// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"encoding/binary"

	"code.hybscloud.com/postcardrpc/internal/bo"
)

// Network option helpers: a single-source-of-truth table mapping a
// transport kind to (Protocol, ByteOrder):
//
//   - TCP / Unix (stream)   -> Stream, BigEndian (network byte order)
//   - UDP / Unix (datagram) -> Packet, BigEndian
//   - WebSocket / SCTP      -> Packet, BigEndian  // boundaries preserved
//   - Local (in-process)    -> Stream, native byte order
//   - USB bulk              -> Packet, native byte order  // one frame per transfer

// ForTCP configures New for a TCP connection: Stream framing, BigEndian
// (network byte order) extended-length fields.
func ForTCP() Option {
	return func(o *Options) { o.Protocol = Stream; o.ByteOrder = binary.BigEndian }
}

// ForUnix configures New for a Unix stream socket: Stream framing, BigEndian.
func ForUnix() Option {
	return func(o *Options) { o.Protocol = Stream; o.ByteOrder = binary.BigEndian }
}

// ForUDP configures New for UDP: Packet framing (pass-through), BigEndian.
func ForUDP() Option {
	return func(o *Options) { o.Protocol = Packet; o.ByteOrder = binary.BigEndian }
}

// ForUnixPacket configures New for a Unix datagram socket: Packet framing,
// BigEndian.
func ForUnixPacket() Option {
	return func(o *Options) { o.Protocol = Packet; o.ByteOrder = binary.BigEndian }
}

// ForWebSocket configures New for a WebSocket connection: Packet framing
// (each WebSocket message is one frame), BigEndian.
func ForWebSocket() Option {
	return func(o *Options) { o.Protocol = Packet; o.ByteOrder = binary.BigEndian }
}

// ForSCTP configures New for an SCTP one-to-one stream socket: Packet
// framing (SCTP preserves message boundaries), BigEndian.
func ForSCTP() Option {
	return func(o *Options) { o.Protocol = Packet; o.ByteOrder = binary.BigEndian }
}

// ForUSBBulk configures New for a USB bulk endpoint: Packet framing (one
// frame per transfer), native byte order.
func ForUSBBulk() Option {
	return func(o *Options) { o.Protocol = Packet; o.ByteOrder = bo.Native() }
}

// ForLocal configures New for an in-process transport (e.g. NewMemoryPipe
// or a WebUSB-style bridge on the same machine): Stream framing, native
// byte order.
func ForLocal() Option {
	return func(o *Options) { o.Protocol = Stream; o.ByteOrder = bo.Native() }
}
