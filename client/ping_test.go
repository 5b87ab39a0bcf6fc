// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client_test

import (
	"code.hybscloud.com/postcardrpc/postcard"
	"code.hybscloud.com/postcardrpc/schema"
)

// u32Msg is a bare uint32 request/response/topic payload, used throughout
// the tests in this package to stand in for a generated postcard message
// type (Marshal/Unmarshal/Schema implemented on the pointer receiver, per
// the Message[T] constraint).
type u32Msg uint32

func (m *u32Msg) Marshal() ([]byte, error) {
	enc := postcard.NewEncoder()
	enc.U32(uint32(*m))
	return enc.Bytes(), nil
}

func (m *u32Msg) Unmarshal(b []byte) error {
	dec := postcard.NewDecoder(b)
	v, err := dec.U32()
	if err != nil {
		return err
	}
	*m = u32Msg(v)
	return nil
}

func (m *u32Msg) Schema() schema.Schema {
	return schema.NewtypeStruct("u32Msg", schema.U32())
}

// durationMsg carries a sleep duration in milliseconds, used by the
// concurrent-sleeps scenario test.
type durationMsg uint32

func (m *durationMsg) Marshal() ([]byte, error) {
	enc := postcard.NewEncoder()
	enc.U32(uint32(*m))
	return enc.Bytes(), nil
}

func (m *durationMsg) Unmarshal(b []byte) error {
	dec := postcard.NewDecoder(b)
	v, err := dec.U32()
	if err != nil {
		return err
	}
	*m = durationMsg(v)
	return nil
}

func (m *durationMsg) Schema() schema.Schema {
	return schema.NewtypeStruct("durationMsg", schema.U32())
}
