// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package client implements the host-side dispatch engine: a concurrent
// in-flight-request table keyed by sequence number, multiplexing an
// arbitrary number of pending endpoint calls and topic subscriptions over a
// single transport.
//
// The receiver pump is the sole writer of the in-flight table and the
// subscription registry; every other goroutine communicates with it
// through registration channels, the same single-writer discipline
// go-ethereum's rpc.Client dispatch loop uses for its request/subscription
// bookkeeping.
package client

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	postcardrpc "code.hybscloud.com/postcardrpc"
	"code.hybscloud.com/postcardrpc/transport"
)

// Client multiplexes endpoint calls and topic subscriptions over a single
// transport.Transport. A Client owns one receiver pump goroutine and one
// reader goroutine; both exit when the transport closes or Close is called.
type Client struct {
	tr  transport.Transport
	log logrus.FieldLogger

	errorKey  postcardrpc.Key
	newRemote func() *postcardrpc.WireError

	maxInFlight int
	seqCounter  uint32

	register    chan *pendingOp
	cancel      chan uint32
	subscribe   chan *subscribeOp
	unsubscribe chan chan []byte

	frames chan frameOrErr

	closing  chan struct{}
	closed   chan struct{}
	closeErr atomic.Value // error

	discarded atomic.Uint64
}

type frameOrErr struct {
	frame []byte
	err   error
}

// Option configures a Client at construction.
type Option func(*config)

type config struct {
	errorPath   string
	maxInFlight int
	logger      logrus.FieldLogger
}

func defaultConfig() config {
	return config{
		errorPath:   "error",
		maxInFlight: 32,
		logger:      logrus.StandardLogger(),
	}
}

// WithErrorPath sets the well-known path used to derive the error key.
// Both peers must be configured with the same path. Defaults to "error".
func WithErrorPath(path string) Option {
	return func(c *config) { c.errorPath = path }
}

// WithMaxInFlight bounds the number of simultaneously pending send_request
// calls. Exceeding it fails SendRequest with ErrTooManyInFlight rather than
// blocking. Defaults to 32.
func WithMaxInFlight(n int) Option {
	return func(c *config) { c.maxInFlight = n }
}

// WithLogger overrides the logger used for discard/close diagnostics.
// Defaults to logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) { c.logger = l }
}

// New constructs a Client reading and writing frames over tr. The receiver
// pump and reader goroutines start immediately.
func New(tr transport.Transport, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Client{
		tr:          tr,
		log:         cfg.logger,
		errorKey:    postcardrpc.ErrorKey(cfg.errorPath),
		newRemote:   func() *postcardrpc.WireError { return &postcardrpc.WireError{} },
		maxInFlight: cfg.maxInFlight,
		register:    make(chan *pendingOp),
		cancel:      make(chan uint32),
		subscribe:   make(chan *subscribeOp),
		unsubscribe: make(chan chan []byte),
		frames:      make(chan frameOrErr),
		closing:     make(chan struct{}),
		closed:      make(chan struct{}),
	}

	go c.readLoop()
	go c.pump()
	return c
}

// nextSeqNo allocates a fresh sequence number. Collisions against the
// in-flight table are resolved by the pump itself (see pump.go); this just
// produces a monotonically increasing candidate that wraps on overflow.
func (c *Client) nextSeqNo() uint32 {
	return atomic.AddUint32(&c.seqCounter, 1)
}

// readLoop pumps transport.RecvFrame into c.frames so the dispatch loop can
// select on it alongside registration channels. RecvFrame blocks, so it
// cannot run on the same goroutine as the select-driven pump.
func (c *Client) readLoop() {
	ctx := context.Background()
	for {
		frame, err := c.tr.RecvFrame(ctx)
		select {
		case c.frames <- frameOrErr{frame: frame, err: err}:
		case <-c.closing:
			return
		}
		if err != nil {
			return
		}
	}
}

// Close stops the receiver pump, fails every pending request with
// ErrTransportClosed, and closes every subscription inbox. Close is
// idempotent and safe to call from any goroutine.
func (c *Client) Close() error {
	select {
	case <-c.closing:
	default:
		close(c.closing)
	}
	<-c.closed
	c.tr.Close()
	return nil
}

// isClosed reports whether the client has finished shutting down.
func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
