// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import postcardrpc "code.hybscloud.com/postcardrpc"

// pump is the receiver pump: the single goroutine that owns the in-flight
// table and the subscription registry. Every other goroutine reaches this
// state only by sending on register/cancel/subscribe/unsubscribe; pump is
// their sole reader, so there is never a data race over the tables
// themselves.
func (c *Client) pump() {
	inflight := make(inflightTable)
	subs := make(subRegistry)

	defer func() {
		for _, op := range inflight {
			op.done <- opResult{err: ErrTransportClosed}
		}
		subs.closeAll()
		c.log.WithField("discarded", c.discarded.Load()).Debug("client: transport closed, pump exiting")
		close(c.closed)
	}()

	for {
		select {
		case op := <-c.register:
			seqNo, err := inflight.register(op, op.seqNo, c.maxInFlight)
			op.registered <- registerResult{seqNo: seqNo, err: err}

		case seqNo := <-c.cancel:
			inflight.retire(seqNo)

		case sop := <-c.subscribe:
			subs.add(sop.entry)
			sop.registered <- nil

		case inbox := <-c.unsubscribe:
			subs.remove(inbox)

		case fe := <-c.frames:
			if fe.err != nil {
				return
			}
			c.handleFrame(fe.frame, inflight, subs)

		case <-c.closing:
			return
		}
	}
}

// handleFrame decodes one inbound frame and routes it to a subscription, a
// pending request, or the discard counter, per the receiver pump contract.
func (c *Client) handleFrame(frame []byte, inflight inflightTable, subs subRegistry) {
	h, payload, err := postcardrpc.DecodeHeader(frame)
	if err != nil {
		c.discarded.Add(1)
		return
	}

	if entries, ok := subs[h.Key]; ok {
		for _, e := range entries {
			dup := make([]byte, len(payload))
			copy(dup, payload)
			if !e.deliver(dup) {
				subs.remove(e.inbox)
			}
		}
		return
	}

	op, ok := inflight[h.SeqNo]
	if !ok {
		c.discarded.Add(1)
		return
	}

	switch h.Key {
	case op.expectedRespKey:
		inflight.retire(h.SeqNo)
		dup := make([]byte, len(payload))
		copy(dup, payload)
		op.done <- opResult{payload: dup}
	case op.expectedErrKey:
		inflight.retire(h.SeqNo)
		we := &postcardrpc.WireError{}
		if err := we.Unmarshal(payload); err != nil {
			op.done <- opResult{err: &ErrSerializeFailed{Err: err}}
			return
		}
		op.done <- opResult{remote: we}
	default:
		// seq_no is live but the frame's key is neither the expected
		// response key nor the expected error key: a schema mismatch,
		// per the error taxonomy. The entry is retired with that error
		// rather than left pending indefinitely.
		inflight.retire(h.SeqNo)
		op.done <- opResult{err: &ErrSchemaMismatch{Want: op.expectedRespKey, Got: h.Key}}
	}
}
