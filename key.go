// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package postcardrpc

import (
	"encoding/binary"
	"hash/fnv"

	"code.hybscloud.com/postcardrpc/schema"
)

// Key is the 8-byte deterministic hash of a (path, schema) pair identifying
// the payload kind on the wire.
type Key [8]byte

// String renders the key as lowercase hex, for logging and diagnostics.
func (k Key) String() string {
	const hex = "0123456789abcdef"
	out := make([]byte, 16)
	for i, b := range k {
		out[2*i] = hex[b>>4]
		out[2*i+1] = hex[b&0xf]
	}
	return string(out)
}

// DeriveKey computes the wire key for path and sch.
//
// Algorithm: 64-bit FNV-1a, offset basis 0xcbf29ce484222325, prime
// 0x00000100000001b3, updated with the UTF-8 bytes of path followed by the
// canonical schema encoding (schema.Schema.Encode). Two independent
// computations over the same (path, sch) MUST produce identical output;
// this is the cross-peer interoperability contract the whole wire protocol
// rests on, so the computation is deliberately pure and allocation-light.
//
// Go's hash/fnv.New64a implements exactly this algorithm and these exact
// constants, so it is used directly rather than hand-rolled or swapped for
// a faster non-FNV hash: any other hash produces wire-incompatible keys.
func DeriveKey(path string, sch schema.Schema) Key {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	_, _ = h.Write(sch.Encode())

	var k Key
	binary.LittleEndian.PutUint64(k[:], h.Sum64())
	return k
}
