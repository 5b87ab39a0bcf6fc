// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package postcardrpc

import "code.hybscloud.com/postcardrpc/schema"

// Message is satisfied by a pointer-to-T that can marshal/unmarshal itself
// to/from a postcard payload and describe its own schema. Go has no derive
// macro, so this is the idiomatic stand-in for postcard-rpc's generic
// request/response/topic-message trait bound: callers implement these three
// methods (usually a handful of lines each) on *T.
type Message[T any] interface {
	*T
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
	Schema() schema.Schema
}

// Endpoint is a compile-time descriptor for a named request/response pair
// at a path. Req/Resp keys are distinct whenever the two schemas differ,
// because they hash distinct schema encodings.
type Endpoint[Req, Resp any, PReq Message[Req], PResp Message[Resp]] struct {
	Name string
	Path string

	reqKey  Key
	respKey Key
}

// NewEndpoint builds an Endpoint descriptor, deriving its request and
// response keys immediately. Construct these as package-level vars so the
// derivation happens once, at program start.
func NewEndpoint[Req, Resp any, PReq Message[Req], PResp Message[Resp]](name, path string) *Endpoint[Req, Resp, PReq, PResp] {
	var reqZero Req
	var respZero Resp
	return &Endpoint[Req, Resp, PReq, PResp]{
		Name:    name,
		Path:    path,
		reqKey:  DeriveKey(path, PReq(&reqZero).Schema()),
		respKey: DeriveKey(path, PResp(&respZero).Schema()),
	}
}

// RequestKey returns the wire key for this endpoint's request payload.
func (e *Endpoint[Req, Resp, PReq, PResp]) RequestKey() Key { return e.reqKey }

// ResponseKey returns the wire key for this endpoint's response payload.
func (e *Endpoint[Req, Resp, PReq, PResp]) ResponseKey() Key { return e.respKey }
