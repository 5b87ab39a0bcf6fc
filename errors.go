// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package postcardrpc

import (
	"fmt"

	"code.hybscloud.com/postcardrpc/postcard"
	"code.hybscloud.com/postcardrpc/schema"
)

// WireErrorKind enumerates the standard wire errors a device dispatch
// engine can reply with. These are the only errors that ever cross the
// wire; everything else in the taxonomy (Timeout, Canceled, TooManyInFlight,
// SerializeFailed, TransportClosed, SchemaMismatch) is purely host-local.
type WireErrorKind uint8

const (
	WireErrUnknownKey WireErrorKind = iota + 1
	WireErrDeserializeFailed
	WireErrBusy
	WireErrReplyTooLarge
)

func (k WireErrorKind) String() string {
	switch k {
	case WireErrUnknownKey:
		return "UnknownKey"
	case WireErrDeserializeFailed:
		return "DeserializeFailed"
	case WireErrBusy:
		return "Busy"
	case WireErrReplyTooLarge:
		return "ReplyTooLarge"
	default:
		return fmt.Sprintf("WireErrorKind(%d)", uint8(k))
	}
}

// WireError is the well-known error payload type exchanged on the
// configured error path. Both peers must agree on using this type (or an
// equivalent) for their link's error key; it is the default this module
// ships so callers need not define their own for the common case.
type WireError struct {
	Kind    WireErrorKind
	Message string
}

// Error implements the error interface.
func (e *WireError) Error() string {
	if e.Message == "" {
		return "postcardrpc: remote error: " + e.Kind.String()
	}
	return fmt.Sprintf("postcardrpc: remote error: %s: %s", e.Kind, e.Message)
}

// Marshal implements Message[WireError].
func (e *WireError) Marshal() ([]byte, error) {
	enc := postcard.NewEncoder()
	enc.U8(uint8(e.Kind))
	enc.String(e.Message)
	return enc.Bytes(), nil
}

// Unmarshal implements Message[WireError].
func (e *WireError) Unmarshal(b []byte) error {
	dec := postcard.NewDecoder(b)
	kind, err := dec.U8()
	if err != nil {
		return err
	}
	msg, err := dec.String()
	if err != nil {
		return err
	}
	e.Kind = WireErrorKind(kind)
	e.Message = msg
	return nil
}

// Schema implements Message[WireError].
func (e *WireError) Schema() schema.Schema {
	return schema.Struct("WireError",
		schema.Field{Name: "kind", Type: schema.U8()},
		schema.Field{Name: "message", Type: schema.String()},
	)
}

// ErrorKey derives the wire key for the well-known error path. Both the
// host client and the device dispatcher must be constructed with the same
// path (commonly "error") for RemoteError decoding to work.
func ErrorKey(path string) Key {
	return DeriveKey(path, (&WireError{}).Schema())
}
