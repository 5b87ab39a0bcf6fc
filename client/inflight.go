// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import postcardrpc "code.hybscloud.com/postcardrpc"

// pendingOp is a pending request entry, registered with the pump over
// Client.register and retired exactly once by the pump: on a matching
// response or error frame, on transport closure, or on cancel/timeout
// (removed via Client.cancel before any reply arrives).
type pendingOp struct {
	seqNo uint32

	expectedRespKey postcardrpc.Key
	expectedErrKey  postcardrpc.Key

	// done receives exactly one result. Buffered so the pump never blocks
	// delivering it.
	done chan opResult

	// registered receives the seq_no actually assigned (which may differ
	// from any candidate the caller proposed, since the pump's allocator
	// skips forward past collisions) and any registration error.
	registered chan registerResult
}

// registerResult is the pump's reply to a registration request: the live
// seq_no assigned to the entry, or an error if registration failed.
type registerResult struct {
	seqNo uint32
	err   error
}

// opResult is the single value ever sent on a pendingOp's done channel.
type opResult struct {
	payload []byte
	remote  *postcardrpc.WireError
	err     error
}

// inflightTable is mutated only by the pump goroutine; this is a plain map,
// not guarded by a mutex, on purpose (see package doc).
type inflightTable map[uint32]*pendingOp

// register assigns op a live seq_no and inserts it into the table. candidate
// is tried first; if it collides with an already-registered entry, register
// skips forward (wrapping on uint32 overflow) until it finds a free slot, per
// the allocator's collision rule. Because len(t) < maxInFlight on entry, a
// free slot exists within maxInFlight probes, so the scan always finds one
// in correct operation; register fails with ErrTooManyInFlight only when the
// table is already at its configured ceiling.
//
// The bounded loop below exists to surface, rather than silently overwrite,
// the degenerate case where the scan still can't find a free slot despite
// room in the table — a programmer-error condition the allocator is
// supposed to make unreachable.
func (t inflightTable) register(op *pendingOp, candidate uint32, maxInFlight int) (uint32, error) {
	if len(t) >= maxInFlight {
		return 0, ErrTooManyInFlight
	}
	seqNo := candidate
	for i := 0; i <= maxInFlight; i++ {
		if _, exists := t[seqNo]; !exists {
			op.seqNo = seqNo
			t[seqNo] = op
			return seqNo, nil
		}
		seqNo++
	}
	return 0, ErrDuplicateSeqNo
}

func (t inflightTable) retire(seqNo uint32) *pendingOp {
	op, ok := t[seqNo]
	if !ok {
		return nil
	}
	delete(t, seqNo)
	return op
}
