// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import (
	"context"

	postcardrpc "code.hybscloud.com/postcardrpc"
)

// Subscribe registers a subscription against topic's key with a bounded
// inbox of capacity messages, applying policy when the inbox is full. The
// returned Subscription yields messages until it is closed or the client's
// transport closes.
func Subscribe[Msg any, PMsg postcardrpc.Message[Msg]](
	ctx context.Context,
	c *Client,
	topic *postcardrpc.Topic[Msg, PMsg],
	capacity int,
	policy OverflowPolicy,
) (*Subscription, error) {
	entry := newSubEntry(topic.Key(), capacity, policy)
	op := &subscribeOp{entry: entry, registered: make(chan error, 1)}

	select {
	case c.subscribe <- op:
	case <-c.closing:
		return nil, ErrTransportClosed
	case <-c.closed:
		return nil, ErrTransportClosed
	case <-ctx.Done():
		return nil, canceledOrTimeout(ctx)
	}

	if err := <-op.registered; err != nil {
		return nil, err
	}

	return &Subscription{c: c, inbox: entry.inbox}, nil
}

// Publish serialises msg and sends it as a one-shot frame on topic's key,
// using the client's own sequence counter (informational on topic frames).
func Publish[Msg any, PMsg postcardrpc.Message[Msg]](
	ctx context.Context,
	c *Client,
	topic *postcardrpc.Topic[Msg, PMsg],
	msg Msg,
) error {
	payload, err := PMsg(&msg).Marshal()
	if err != nil {
		return &ErrSerializeFailed{Err: err}
	}

	seqNo := c.nextSeqNo()
	frame, _ := postcardrpc.EncodeHeader(nil, postcardrpc.WireHeader{Key: topic.Key(), SeqNo: seqNo})
	frame = append(frame, payload...)

	if err := c.tr.SendFrame(ctx, frame); err != nil {
		return wrapTransportErr(err)
	}
	return nil
}

// DecodeMessage is a convenience helper for consuming a Subscription's raw
// payload bytes into a typed message value.
func DecodeMessage[Msg any, PMsg postcardrpc.Message[Msg]](payload []byte) (Msg, error) {
	var msg Msg
	err := PMsg(&msg).Unmarshal(payload)
	return msg, err
}
