// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import (
	"errors"
	"fmt"

	postcardrpc "code.hybscloud.com/postcardrpc"
	"code.hybscloud.com/postcardrpc/transport"
)

// ErrTransportClosed is returned by every operation once the underlying
// transport has reported end-of-stream, a fatal error, or Close has been
// called.
var ErrTransportClosed = errors.New("client: transport closed")

// ErrTimeout is returned by SendRequest when its context deadline elapses
// before a matching response arrives.
var ErrTimeout = errors.New("client: timeout")

// ErrCanceled is returned by SendRequest when its context is canceled
// before a matching response arrives. The device is not notified; a late
// response is silently discarded by the pump.
var ErrCanceled = errors.New("client: canceled")

// ErrTooManyInFlight is returned by SendRequest when the in-flight table is
// already at its configured ceiling.
var ErrTooManyInFlight = errors.New("client: too many requests in flight")

// ErrSerializeFailed wraps a failure to marshal an outbound request or
// publish payload. No frame is sent when this error is returned.
type ErrSerializeFailed struct{ Err error }

func (e *ErrSerializeFailed) Error() string { return "client: serialize failed: " + e.Err.Error() }
func (e *ErrSerializeFailed) Unwrap() error  { return e.Err }

// ErrSchemaMismatch reports that a response frame's key matched neither the
// expected response key nor the expected error key of the pending request
// it was retired against. The frame is discarded.
type ErrSchemaMismatch struct {
	Want postcardrpc.Key
	Got  postcardrpc.Key
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("client: schema mismatch: want key %s, got %s", e.Want, e.Got)
}

// ErrRemote wraps a decoded WireError reply from the device.
type ErrRemote struct {
	Inner *postcardrpc.WireError
}

func (e *ErrRemote) Error() string { return e.Inner.Error() }
func (e *ErrRemote) Unwrap() error  { return e.Inner }

// ErrDuplicateSeqNo reports that the skip-forward allocator could not find a
// free seq_no despite room in the in-flight table. This is a programmer-
// error condition the allocator is designed to make unreachable; the table
// never silently overwrites a live entry.
var ErrDuplicateSeqNo = errors.New("client: duplicate seq_no registration")

// wrapTransportErr maps a raw transport.Transport error onto the client
// package's own taxonomy so callers never need to import transport just to
// check for closure.
func wrapTransportErr(err error) error {
	if errors.Is(err, transport.ErrClosed) {
		return ErrTransportClosed
	}
	return err
}
