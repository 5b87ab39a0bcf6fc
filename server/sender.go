// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"errors"
	"sync"

	postcardrpc "code.hybscloud.com/postcardrpc"
)

// DefaultOutboundCapacity is the size of a Sender's reusable outbound
// buffer when none is given at construction.
const DefaultOutboundCapacity = 4096

// ErrReplyTooLarge reports that a handler's response (header + payload)
// exceeds the Sender's configured outbound capacity. No partial frame is
// sent to the transport.
var ErrReplyTooLarge = errors.New("server: reply too large")

// Sender is the device's single outbound sink, shared by the dispatch
// goroutine and every spawned handler task. Access to the reusable buffer
// is serialised by acquire/release: exactly one owner holds the buffer at
// a time, and release is guaranteed on every exit path via defer,
// including a recovered spawned-handler panic.
type Sender struct {
	tr       transportSender
	capacity int

	mu  sync.Mutex
	buf []byte
}

// transportSender is the subset of transport.Transport Sender needs; kept
// narrow so tests can substitute a fake without pulling in the transport
// package's Options machinery.
type transportSender interface {
	SendFrame(ctx context.Context, frame []byte) error
}

func newSender(tr transportSender) *Sender {
	return newSenderWithCapacity(tr, DefaultOutboundCapacity)
}

func newSenderWithCapacity(tr transportSender, capacity int) *Sender {
	if capacity <= 0 {
		capacity = DefaultOutboundCapacity
	}
	return &Sender{tr: tr, capacity: capacity, buf: make([]byte, 0, capacity)}
}

// acquire locks the Sender and returns its reusable buffer, truncated to
// zero length. release must be called exactly once, typically via defer,
// before the buffer is usable by another caller.
func (s *Sender) acquire() []byte {
	s.mu.Lock()
	return s.buf[:0]
}

func (s *Sender) release(buf []byte) {
	s.buf = buf
	s.mu.Unlock()
}

// send serialises (header, payload) into the shared outbound buffer and
// pushes exactly one frame to the transport, under the scoped lock.
func (s *Sender) send(ctx context.Context, h postcardrpc.WireHeader, payload []byte) error {
	buf := s.acquire()
	defer func() { s.release(buf) }()

	buf, _ = postcardrpc.EncodeHeader(buf, h)
	if len(buf)+len(payload) > s.capacity {
		return ErrReplyTooLarge
	}
	buf = append(buf, payload...)

	return s.tr.SendFrame(ctx, buf)
}

// Reply serialises and sends a response frame under respKey and the
// inbound seq_no. Handlers call this on success.
func (s *Sender) Reply(ctx context.Context, respKey postcardrpc.Key, seqNo uint32, payload []byte) error {
	return s.send(ctx, postcardrpc.WireHeader{Key: respKey, SeqNo: seqNo}, payload)
}

// Publish serialises and sends a one-shot topic frame. seqNo is
// informational; a typical caller uses a per-topic counter.
func (s *Sender) Publish(ctx context.Context, topicKey postcardrpc.Key, seqNo uint32, payload []byte) error {
	return s.send(ctx, postcardrpc.WireHeader{Key: topicKey, SeqNo: seqNo}, payload)
}
