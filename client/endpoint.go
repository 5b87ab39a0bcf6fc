// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import (
	"context"

	postcardrpc "code.hybscloud.com/postcardrpc"
)

// SendRequest serialises req under endpoint's request key with a freshly
// allocated seq_no, registers a pending entry expecting the endpoint's
// response key (or this client's configured error key), sends the frame,
// and blocks until a matching reply arrives, ctx is done, or the transport
// closes.
func SendRequest[Req, Resp any, PReq postcardrpc.Message[Req], PResp postcardrpc.Message[Resp]](
	ctx context.Context,
	c *Client,
	endpoint *postcardrpc.Endpoint[Req, Resp, PReq, PResp],
	req Req,
) (Resp, error) {
	var zero Resp

	payload, err := PReq(&req).Marshal()
	if err != nil {
		return zero, &ErrSerializeFailed{Err: err}
	}

	op := &pendingOp{
		seqNo:           c.nextSeqNo(),
		expectedRespKey: endpoint.ResponseKey(),
		expectedErrKey:  c.errorKey,
		done:            make(chan opResult, 1),
		registered:      make(chan registerResult, 1),
	}

	select {
	case c.register <- op:
	case <-c.closing:
		return zero, ErrTransportClosed
	case <-c.closed:
		return zero, ErrTransportClosed
	case <-ctx.Done():
		return zero, canceledOrTimeout(ctx)
	}

	result := <-op.registered
	if result.err != nil {
		return zero, result.err
	}
	seqNo := result.seqNo

	frame, _ := postcardrpc.EncodeHeader(nil, postcardrpc.WireHeader{Key: endpoint.RequestKey(), SeqNo: seqNo})
	frame = append(frame, payload...)

	// SendFrame runs on its own goroutine so that ctx still bounds the call
	// when the transport's write blocks (e.g. a synchronous pipe nobody is
	// reading); an abandoned write finishes or fails on that goroutine.
	sent := make(chan error, 1)
	go func() { sent <- c.tr.SendFrame(ctx, frame) }()
	var sendErr error
	select {
	case sendErr = <-sent:
	case <-ctx.Done():
		c.deregister(seqNo)
		return zero, canceledOrTimeout(ctx)
	}
	if sendErr != nil {
		c.deregister(seqNo)
		return zero, wrapTransportErr(sendErr)
	}

	select {
	case res := <-op.done:
		return finishResult[Resp, PResp](res)
	case <-ctx.Done():
		c.deregister(seqNo)
		// A racing pump delivery may have already queued a result; drain
		// it non-blockingly so the entry's done channel doesn't leak a
		// buffered value nobody reads (harmless, but tidy).
		select {
		case <-op.done:
		default:
		}
		return zero, canceledOrTimeout(ctx)
	case <-c.closing:
		return zero, ErrTransportClosed
	}
}

func finishResult[Resp any, PResp postcardrpc.Message[Resp]](res opResult) (Resp, error) {
	var zero Resp
	switch {
	case res.err != nil:
		return zero, res.err
	case res.remote != nil:
		return zero, &ErrRemote{Inner: res.remote}
	default:
		var resp Resp
		if err := PResp(&resp).Unmarshal(res.payload); err != nil {
			return zero, &ErrSerializeFailed{Err: err}
		}
		return resp, nil
	}
}

func (c *Client) deregister(seqNo uint32) {
	select {
	case c.cancel <- seqNo:
	case <-c.closing:
	case <-c.closed:
	}
}

func canceledOrTimeout(ctx context.Context) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrTimeout
	}
	return ErrCanceled
}
