// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package server implements the device-side dispatch engine: a routing
// layer that maps an inbound key to one of a static set of handlers
// (blocking, async, or task-spawning), with bounded buffering,
// back-pressure on the outbound transport, and an automatic error-reply
// path.
//
// The handler table is built once at construction and never mutated
// afterward. The outbound sink is a single shared resource behind a scoped
// lock: exactly one writer touches the shared outbound buffer at a time,
// and the lock is always released on every exit path, including a recovered
// spawned-handler panic.
package server

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	postcardrpc "code.hybscloud.com/postcardrpc"
	"code.hybscloud.com/postcardrpc/transport"
)

// HandlerKind selects how a Dispatcher runs an Entry's thunk.
type HandlerKind uint8

const (
	// Blocking runs the thunk synchronously on the dispatch goroutine; it
	// must not suspend for long, since it holds up all other frames.
	Blocking HandlerKind = iota + 1
	// Async is awaited before the next frame is processed, exactly like
	// Blocking; it receives no context of its own. Go's single dispatch
	// goroutine makes Blocking and Async behave identically here (there is
	// no separate "suspend without
	// blocking" primitive below goroutines), so Async exists to preserve
	// the three-way handler-kind taxonomy for callers building handler
	// tables.
	Async
	// Spawn runs the thunk on a bounded per-entry worker pool; dispatch
	// returns immediately once the pool accepts the request (it accepts at
	// most PoolSize at a time, queued or running), or replies Busy
	// synchronously if the pool is exhausted.
	Spawn
)

// Thunk is a type-erased handler: it receives the shared Ctx, the decoded
// header, the raw payload bytes (still postcard-encoded), and the sender
// to reply on. It performs its own decode and its own reply.
type Thunk[Ctx any] func(ctx Ctx, h postcardrpc.WireHeader, payload []byte, s *Sender)

// Entry is one row of a Dispatcher's static handler table.
type Entry[Ctx any] struct {
	Key  postcardrpc.Key
	Kind HandlerKind
	Fn   Thunk[Ctx]

	// PoolSize bounds the number of concurrent Spawn workers for this
	// entry. Ignored for Blocking/Async. Zero means DefaultSpawnPoolSize.
	PoolSize int
}

// DefaultSpawnPoolSize is used for a Spawn Entry with PoolSize == 0.
const DefaultSpawnPoolSize = 8

// Dispatcher routes inbound frames to a static handler table.
type Dispatcher[Ctx any] struct {
	ctx Ctx
	log logrus.FieldLogger

	errorKey postcardrpc.Key

	entries []Entry[Ctx]       // sorted by Key for binary search
	pools   map[postcardrpc.Key]*spawnPool[Ctx]

	sender *Sender
}

// Option configures a Dispatcher at construction.
type Option func(*config)

type config struct {
	errorPath        string
	logger           logrus.FieldLogger
	outboundCapacity int
}

func defaultConfig() config {
	return config{
		errorPath:        "error",
		logger:           logrus.StandardLogger(),
		outboundCapacity: DefaultOutboundCapacity,
	}
}

// WithErrorPath sets the well-known path used to derive the error key.
// Both peers must be configured with the same path. Defaults to "error".
func WithErrorPath(path string) Option {
	return func(c *config) { c.errorPath = path }
}

// WithOutboundCapacity sets the fixed size of the Dispatcher's reusable
// outbound buffer. A handler response whose encoded frame exceeds this
// capacity is rejected with ErrReplyTooLarge rather than truncated.
// Defaults to DefaultOutboundCapacity.
func WithOutboundCapacity(n int) Option {
	return func(c *config) { c.outboundCapacity = n }
}

// WithLogger overrides the logger used for malformed-frame/unknown-key/busy/
// error-reply diagnostics. Defaults to logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) { c.logger = l }
}

// New builds a Dispatcher from a static entry list, a shared context value,
// and an outbound sender (any transport.Transport satisfies this, via
// SendFrame alone — Dispatch never needs to read). Entries are sorted by
// key once, here; lookup thereafter is a binary search.
func New[Ctx any](ctx Ctx, tr transportSender, entries []Entry[Ctx], opts ...Option) *Dispatcher[Ctx] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sorted := make([]Entry[Ctx], len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return lessKey(sorted[i].Key, sorted[j].Key)
	})

	d := &Dispatcher[Ctx]{
		ctx:      ctx,
		log:      cfg.logger,
		errorKey: postcardrpc.ErrorKey(cfg.errorPath),
		entries:  sorted,
		pools:    make(map[postcardrpc.Key]*spawnPool[Ctx]),
		sender:   newSenderWithCapacity(tr, cfg.outboundCapacity),
	}

	for i := range sorted {
		e := &sorted[i]
		if e.Kind == Spawn {
			size := e.PoolSize
			if size <= 0 {
				size = DefaultSpawnPoolSize
			}
			d.pools[e.Key] = newSpawnPool(size, d.ctx, e.Fn, d.sender)
		}
	}

	return d
}

func lessKey(a, b postcardrpc.Key) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func (d *Dispatcher[Ctx]) lookup(key postcardrpc.Key) (*Entry[Ctx], bool) {
	i := sort.Search(len(d.entries), func(i int) bool {
		return !lessKey(d.entries[i].Key, key)
	})
	if i < len(d.entries) && d.entries[i].Key == key {
		return &d.entries[i], true
	}
	return nil, false
}

// Dispatch decodes one inbound frame and routes it: to a matching handler
// thunk (synchronously for Blocking/Async, to a spawn pool for Spawn), or
// to an automatic UnknownKey error reply. Malformed frames are discarded
// without a reply, since there is no seq_no to reply to.
func (d *Dispatcher[Ctx]) Dispatch(ctx context.Context, frame []byte) {
	h, payload, err := postcardrpc.DecodeHeader(frame)
	if err != nil {
		d.log.WithError(err).Debug("server: malformed frame discarded")
		return
	}

	entry, ok := d.lookup(h.Key)
	if !ok {
		d.log.WithField("key", h.Key).Debug("server: unknown key")
		d.emitError(ctx, h.SeqNo, postcardrpc.WireErrUnknownKey, "")
		return
	}

	switch entry.Kind {
	case Spawn:
		pool := d.pools[entry.Key]
		if !pool.try(ctx, h, payload) {
			d.log.WithField("key", h.Key).Warn("server: spawn pool exhausted")
			d.emitError(ctx, h.SeqNo, postcardrpc.WireErrBusy, "")
		}
	default: // Blocking, Async
		d.runHandler(entry.Fn, h, payload)
	}
}

// runHandler invokes fn synchronously. A Blocking or Async handler's panic
// is not recovered: it propagates to the caller of Dispatch and takes the
// dispatch goroutine down with it. A Thunk returns no value, so the
// dispatcher sends no reply on a handler's behalf; any response or error
// frame is the thunk's own to send through the Sender.
func (d *Dispatcher[Ctx]) runHandler(fn Thunk[Ctx], h postcardrpc.WireHeader, payload []byte) {
	fn(d.ctx, h, payload, d.sender)
}

func (d *Dispatcher[Ctx]) emitError(ctx context.Context, seqNo uint32, kind postcardrpc.WireErrorKind, msg string) {
	we := &postcardrpc.WireError{Kind: kind, Message: msg}
	payload, err := we.Marshal()
	if err != nil {
		d.log.WithError(err).Error("server: failed to marshal error reply")
		return
	}
	if err := d.sender.send(ctx, postcardrpc.WireHeader{Key: d.errorKey, SeqNo: seqNo}, payload); err != nil {
		d.log.WithError(err).Warn("server: failed to send error reply")
	}
}

// Run reads frames from tr until it closes or ctx is done, dispatching
// each one. Run is the device-side analogue of the host's receiver pump,
// except dispatch and read share one goroutine: a Blocking or Async
// handler holds up the dispatch loop by design, so it must not suspend for
// long.
func Run[Ctx any](ctx context.Context, tr transport.Transport, d *Dispatcher[Ctx]) error {
	for {
		frame, err := tr.RecvFrame(ctx)
		if err != nil {
			return err
		}
		d.Dispatch(ctx, frame)
	}
}
