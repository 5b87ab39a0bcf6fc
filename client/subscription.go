// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import postcardrpc "code.hybscloud.com/postcardrpc"

// OverflowPolicy selects what happens to a subscription's bounded inbox
// when a publisher outpaces its consumer.
type OverflowPolicy uint8

const (
	// DropOldest discards the oldest buffered message to make room for the
	// new one. This is the default.
	DropOldest OverflowPolicy = iota
	// DropNewest discards the incoming message, keeping the buffer as-is.
	DropNewest
	// Disconnect closes the subscription's inbox and deregisters it.
	Disconnect
)

// subEntry is a subscription entry, registered with the pump over
// Client.subscribe and owned exclusively by it thereafter.
type subEntry struct {
	topicKey postcardrpc.Key
	policy   OverflowPolicy
	capacity int

	// inbox is what Subscription.Messages() reads from and is itself the
	// bounded buffer: deliver writes into it directly, applying the
	// overflow policy when it is full. buf is not used.
	buf   [][]byte
	inbox chan []byte

	closed bool
}

func newSubEntry(key postcardrpc.Key, capacity int, policy OverflowPolicy) *subEntry {
	return &subEntry{
		topicKey: key,
		policy:   policy,
		capacity: capacity,
		inbox:    make(chan []byte, capacity),
	}
}

// deliver attempts to hand payload to the subscriber, applying the
// overflow policy when the inbox channel is full. Returns false if the
// entry should be dropped (Disconnect fired).
func (s *subEntry) deliver(payload []byte) (keep bool) {
	select {
	case s.inbox <- payload:
		return true
	default:
	}

	switch s.policy {
	case DropNewest:
		return true
	case Disconnect:
		return false
	case DropOldest:
		fallthrough
	default:
		select {
		case <-s.inbox:
		default:
		}
		select {
		case s.inbox <- payload:
		default:
		}
		return true
	}
}

// subscribeOp is the registration request sent to the pump by Subscribe.
type subscribeOp struct {
	entry      *subEntry
	registered chan error
}

// subRegistry maps topic key to the set of live subscriptions on it.
// Mutated only by the pump goroutine.
type subRegistry map[postcardrpc.Key][]*subEntry

func (r subRegistry) add(e *subEntry) {
	r[e.topicKey] = append(r[e.topicKey], e)
}

func (r subRegistry) remove(inbox chan []byte) {
	for key, entries := range r {
		for i, e := range entries {
			if e.inbox == inbox {
				r[key] = append(entries[:i], entries[i+1:]...)
				close(e.inbox)
				if len(r[key]) == 0 {
					delete(r, key)
				}
				return
			}
		}
	}
}

func (r subRegistry) closeAll() {
	for key, entries := range r {
		for _, e := range entries {
			close(e.inbox)
		}
		delete(r, key)
	}
}

// Subscription is a handle to a live topic subscription. Messages yields
// decoded payload bytes in arrival order, subject to the subscription's
// overflow policy. Close deregisters the subscription synchronously; a
// dropped handle that is never closed leaks its pump-side registration
// until the client itself closes.
type Subscription struct {
	c     *Client
	inbox chan []byte
}

// Messages returns the channel of inbound payload bytes for this
// subscription. The channel is closed when the subscription is closed
// (directly, by Disconnect overflow policy, or by the client closing).
func (s *Subscription) Messages() <-chan []byte { return s.inbox }

// Close deregisters the subscription. Safe to call more than once; a
// second call is a no-op once the pump has already removed the entry (its
// inbox is closed, so the send below either succeeds harmlessly or the
// client itself has shut down).
func (s *Subscription) Close() {
	select {
	case s.c.unsubscribe <- s.inbox:
	case <-s.c.closing:
	case <-s.c.closed:
	}
}
