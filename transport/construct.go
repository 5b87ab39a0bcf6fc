// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import "io"

// New wraps rw as a Transport, selecting Stream (length-prefixed) or
// Packet (pass-through) framing per opts (see WithProtocol and the
// ForXxx helpers in netopts.go). Defaults to Stream/BigEndian, matching
// TCP's defaults.
func New(rw io.ReadWriter, opts ...Option) Transport {
	o := resolveOptions(opts)
	if o.Protocol == Packet {
		return newPacket(rw, o)
	}
	return newStream(rw, o)
}
