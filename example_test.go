// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package postcardrpc_test

import (
	"context"
	"testing"
	"time"

	postcardrpc "code.hybscloud.com/postcardrpc"
	"code.hybscloud.com/postcardrpc/client"
	"code.hybscloud.com/postcardrpc/postcard"
	"code.hybscloud.com/postcardrpc/schema"
	"code.hybscloud.com/postcardrpc/server"
	"code.hybscloud.com/postcardrpc/transport"
)

// u32 is a bare uint32 payload, standing in for a generated postcard
// message type across every scenario below.
type u32 uint32

func (m *u32) Marshal() ([]byte, error) {
	enc := postcard.NewEncoder()
	enc.U32(uint32(*m))
	return enc.Bytes(), nil
}

func (m *u32) Unmarshal(b []byte) error {
	dec := postcard.NewDecoder(b)
	v, err := dec.U32()
	if err != nil {
		return err
	}
	*m = u32(v)
	return nil
}

func (m *u32) Schema() schema.Schema {
	return schema.NewtypeStruct("u32", schema.U32())
}

var pingEndpoint = postcardrpc.NewEndpoint[u32, u32, *u32, *u32]("ping", "ping")
var sleepEndpoint = postcardrpc.NewEndpoint[u32, u32, *u32, *u32]("sleep", "sleep")
var accelTopic = postcardrpc.NewTopic[u32, *u32]("accel", "accel", postcardrpc.ToHost)

func withDeadline(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 2*time.Second)
}

// TestPingEcho covers the "ping echo" end-to-end scenario: a single
// request/response round trip where the device echoes the payload back.
func TestPingEcho(t *testing.T) {
	hostTr, devTr := transport.NewMemoryPipe()
	defer hostTr.Close()
	defer devTr.Close()

	entries := []server.Entry[struct{}]{
		{
			Key:  pingEndpoint.RequestKey(),
			Kind: server.Blocking,
			Fn: func(_ struct{}, h postcardrpc.WireHeader, payload []byte, s *server.Sender) {
				_ = s.Reply(context.Background(), pingEndpoint.ResponseKey(), h.SeqNo, payload)
			},
		},
	}
	dispatcher := server.New[struct{}](struct{}{}, devTr, entries)
	go server.Run(context.Background(), devTr, dispatcher)

	c := client.New(hostTr)
	defer c.Close()

	ctx, cancel := withDeadline(t)
	defer cancel()

	resp, err := client.SendRequest(ctx, c, pingEndpoint, u32(42))
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if resp != 42 {
		t.Fatalf("resp = %d, want 42", resp)
	}
}

// TestUnknownKey covers the "unknown key" scenario: the host calls an
// endpoint the device's handler table does not know about, and the
// resulting RemoteError(UnknownKey) surfaces from SendRequest.
func TestUnknownKey(t *testing.T) {
	hostTr, devTr := transport.NewMemoryPipe()
	defer hostTr.Close()
	defer devTr.Close()

	unknown := postcardrpc.NewEndpoint[u32, u32, *u32, *u32]("unknown", "unknown")

	dispatcher := server.New[struct{}](struct{}{}, devTr, nil)
	go server.Run(context.Background(), devTr, dispatcher)

	c := client.New(hostTr)
	defer c.Close()

	ctx, cancel := withDeadline(t)
	defer cancel()

	_, err := client.SendRequest(ctx, c, unknown, u32(1))
	var remote *client.ErrRemote
	if err == nil {
		t.Fatal("expected an error")
	}
	if !asRemote(err, &remote) {
		t.Fatalf("err = %v, want *client.ErrRemote", err)
	}
	if remote.Inner.Kind != postcardrpc.WireErrUnknownKey {
		t.Fatalf("kind = %v, want UnknownKey", remote.Inner.Kind)
	}
}

func asRemote(err error, target **client.ErrRemote) bool {
	if re, ok := err.(*client.ErrRemote); ok {
		*target = re
		return true
	}
	return false
}

// TestConcurrentSleepsCompleteOutOfOrder covers the "concurrent sleeps"
// scenario: three requests are issued together, the device replies out of
// order, and every caller still receives its own matching result.
func TestConcurrentSleepsCompleteOutOfOrder(t *testing.T) {
	hostTr, devTr := transport.NewMemoryPipe()
	defer hostTr.Close()
	defer devTr.Close()

	entries := []server.Entry[struct{}]{
		{
			Key:  sleepEndpoint.RequestKey(),
			Kind: server.Spawn,
			Fn: func(_ struct{}, h postcardrpc.WireHeader, payload []byte, s *server.Sender) {
				var ms u32
				_ = (&ms).Unmarshal(payload)
				time.Sleep(time.Duration(ms) * time.Millisecond)
				out, _ := (&ms).Marshal()
				_ = s.Reply(context.Background(), sleepEndpoint.ResponseKey(), h.SeqNo, out)
			},
		},
	}
	dispatcher := server.New[struct{}](struct{}{}, devTr, entries)
	go server.Run(context.Background(), devTr, dispatcher)

	c := client.New(hostTr, client.WithMaxInFlight(8))
	defer c.Close()

	type result struct {
		idx int
		val u32
		err error
	}
	durations := []u32{300, 100, 200}
	results := make(chan result, len(durations))

	for i, d := range durations {
		go func(i int, d u32) {
			ctx, cancel := withDeadline(t)
			defer cancel()
			v, err := client.SendRequest(ctx, c, sleepEndpoint, d)
			results <- result{idx: i, val: v, err: err}
		}(i, d)
	}

	seen := make(map[int]bool)
	for range durations {
		r := <-results
		if r.err != nil {
			t.Fatalf("request %d failed: %v", r.idx, r.err)
		}
		if r.val != durations[r.idx] {
			t.Fatalf("request %d got %d, want %d", r.idx, r.val, durations[r.idx])
		}
		seen[r.idx] = true
	}
	if len(seen) != len(durations) {
		t.Fatalf("expected all %d requests to complete, got %d", len(durations), len(seen))
	}
}

// TestTopicFanOutWithOverflow covers the "topic fan-out" scenario: two
// subscribers on the same topic, one keeping up and one not; the slow
// subscriber's DropOldest policy keeps only its most recent messages.
func TestTopicFanOutWithOverflow(t *testing.T) {
	hostTr, devTr := transport.NewMemoryPipe()
	defer hostTr.Close()
	defer devTr.Close()

	c := client.New(hostTr)
	defer c.Close()

	ctx, cancel := withDeadline(t)
	defer cancel()

	fast, err := client.Subscribe(ctx, c, accelTopic, 4, client.DropOldest)
	if err != nil {
		t.Fatalf("Subscribe(fast): %v", err)
	}
	defer fast.Close()

	slow, err := client.Subscribe(ctx, c, accelTopic, 2, client.DropOldest)
	if err != nil {
		t.Fatalf("Subscribe(slow): %v", err)
	}
	defer slow.Close()

	values := []u32{1, 2, 3, 4}
	for _, v := range values {
		payload, _ := (&v).Marshal()
		frame, _ := postcardrpc.EncodeHeader(nil, postcardrpc.WireHeader{Key: accelTopic.Key(), SeqNo: uint32(v)})
		frame = append(frame, payload...)
		if err := devTr.SendFrame(ctx, frame); err != nil {
			t.Fatalf("SendFrame: %v", err)
		}

		got, err := client.DecodeMessage[u32, *u32](<-fast.Messages())
		if err != nil {
			t.Fatalf("fast decode: %v", err)
		}
		if got != v {
			t.Fatalf("fast got %d, want %d", got, v)
		}
	}

	var slowSeen []u32
	for i := 0; i < 2; i++ {
		got, err := client.DecodeMessage[u32, *u32](<-slow.Messages())
		if err != nil {
			t.Fatalf("slow decode: %v", err)
		}
		slowSeen = append(slowSeen, got)
	}
	if len(slowSeen) != 2 || slowSeen[0] != 3 || slowSeen[1] != 4 {
		t.Fatalf("slow subscriber saw %v, want [3 4]", slowSeen)
	}
}

// TestCancellationDiscardsLateResponse covers the "cancellation" scenario:
// the host cancels a pending request before the device replies; the late
// reply is silently discarded and no caller sees it.
func TestCancellationDiscardsLateResponse(t *testing.T) {
	hostTr, devTr := transport.NewMemoryPipe()
	defer hostTr.Close()
	defer devTr.Close()

	release := make(chan struct{})
	entries := []server.Entry[struct{}]{
		{
			Key:  sleepEndpoint.RequestKey(),
			Kind: server.Spawn,
			Fn: func(_ struct{}, h postcardrpc.WireHeader, payload []byte, s *server.Sender) {
				<-release
				_ = s.Reply(context.Background(), sleepEndpoint.ResponseKey(), h.SeqNo, payload)
			},
		},
	}
	dispatcher := server.New[struct{}](struct{}{}, devTr, entries)
	go server.Run(context.Background(), devTr, dispatcher)

	c := client.New(hostTr)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.SendRequest(ctx, c, sleepEndpoint, u32(9))
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	if err := <-done; err != client.ErrCanceled {
		t.Fatalf("err = %v, want ErrCanceled", err)
	}

	close(release) // let the device reply arrive after cancellation
	time.Sleep(50 * time.Millisecond)
}

// TestTransportLossFailsInFlightRequestsAndSubscriptions covers the
// "transport loss mid-flight" scenario.
func TestTransportLossFailsInFlightRequestsAndSubscriptions(t *testing.T) {
	hostTr, devTr := transport.NewMemoryPipe()
	defer devTr.Close()

	c := client.New(hostTr)

	ctx, cancel := withDeadline(t)
	defer cancel()
	sub, err := client.Subscribe(ctx, c, accelTopic, 2, client.DropOldest)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := client.SendRequest(context.Background(), c, sleepEndpoint, u32(1000))
			results <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)

	hostTr.Close() // simulate link loss: the peer transport is torn down

	for i := 0; i < 2; i++ {
		if err := <-results; err != client.ErrTransportClosed {
			t.Fatalf("err = %v, want ErrTransportClosed", err)
		}
	}

	if _, ok := <-sub.Messages(); ok {
		t.Fatal("expected subscription inbox to be closed")
	}

	if _, err := client.SendRequest(context.Background(), c, pingEndpoint, u32(1)); err != client.ErrTransportClosed {
		t.Fatalf("post-close SendRequest err = %v, want ErrTransportClosed", err)
	}
}
