// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package server

import (
	"context"

	postcardrpc "code.hybscloud.com/postcardrpc"
)

// spawnJob is one unit of work handed to a spawnPool worker.
type spawnJob[Ctx any] struct {
	h       postcardrpc.WireHeader
	payload []byte
}

// spawnPool is a bounded worker pool for one Spawn Entry, grounded on the
// bounded work-channel pattern aistore's transport layer uses to cap
// concurrent in-flight sends: at most size jobs are accepted at a time
// (queued or running), tracked by slots. When every slot is taken, try
// never blocks the dispatch goroutine — it reports exhaustion immediately
// so the caller can reply Busy.
type spawnPool[Ctx any] struct {
	workCh chan spawnJob[Ctx]
	slots  chan struct{}
	ctx    Ctx
	fn     Thunk[Ctx]
	sender *Sender
}

func newSpawnPool[Ctx any](size int, ctx Ctx, fn Thunk[Ctx], sender *Sender) *spawnPool[Ctx] {
	p := &spawnPool[Ctx]{
		workCh: make(chan spawnJob[Ctx], size),
		slots:  make(chan struct{}, size),
		ctx:    ctx,
		fn:     fn,
		sender: sender,
	}
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *spawnPool[Ctx]) worker() {
	for job := range p.workCh {
		p.runOne(job)
		<-p.slots
	}
}

func (p *spawnPool[Ctx]) runOne(job spawnJob[Ctx]) {
	defer func() {
		recover() // a spawned handler's panic must not take down the pool
	}()
	p.fn(p.ctx, job.h, job.payload, p.sender)
}

// try enqueues a job without blocking. It reports false if all size jobs
// the pool accepts are already queued or running, meaning dispatch must
// reply Busy synchronously rather than wait for a worker.
func (p *spawnPool[Ctx]) try(_ context.Context, h postcardrpc.WireHeader, payload []byte) bool {
	select {
	case p.slots <- struct{}{}:
	default:
		return false
	}
	dup := make([]byte, len(payload))
	copy(dup, payload)
	// A held slot guarantees room in workCh, so this send never blocks.
	p.workCh <- spawnJob[Ctx]{h: h, payload: dup}
	return true
}
