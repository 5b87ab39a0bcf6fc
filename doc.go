// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package postcardrpc is a bidirectional request/response and
// publish/subscribe framing layer that runs symmetrically between a
// resource-constrained device (the server) and a general-purpose host (the
// client) over a byte-oriented transport.
//
// This package holds the wire contract shared by both peers: deterministic
// 8-byte key derivation from a path and a postcard schema, and the
// WireHeader layout (key + seq_no). The concrete dispatch engines live in
// the client and server subpackages; transport adapters live in transport.
//
// Wire frame (bit-exact):
//
//	offset 0 .. 8   : key bytes [K0..K7]        (stable across builds/peers)
//	offset 8 .. 8+n : seq_no as postcard varint (1 <= n <= 5)
//	offset 8+n..end : postcard(payload)         (rest of frame)
//
// There is no trailing padding and no in-frame length field; frame
// boundaries are the responsibility of the transport (see package
// transport).
package postcardrpc
