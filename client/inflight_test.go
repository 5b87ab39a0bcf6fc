// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package client

import "testing"

func newOp() *pendingOp {
	return &pendingOp{done: make(chan opResult, 1), registered: make(chan registerResult, 1)}
}

func TestInflightRegisterSkipsForwardOnCollision(t *testing.T) {
	t.Parallel()

	table := make(inflightTable)
	if _, err := table.register(newOp(), 5, 8); err != nil {
		t.Fatalf("register(5): %v", err)
	}
	if _, err := table.register(newOp(), 6, 8); err != nil {
		t.Fatalf("register(6): %v", err)
	}

	seqNo, err := table.register(newOp(), 5, 8)
	if err != nil {
		t.Fatalf("register(5) again: %v", err)
	}
	if seqNo != 7 {
		t.Fatalf("seqNo = %d, want 7 (first free slot after the 5,6 collisions)", seqNo)
	}
	if len(table) != 3 {
		t.Fatalf("len(table) = %d, want 3", len(table))
	}
}

func TestInflightRegisterSkipsForwardAcrossUint32Wraparound(t *testing.T) {
	t.Parallel()

	table := make(inflightTable)
	const maxU32 = ^uint32(0)
	if _, err := table.register(newOp(), maxU32, 8); err != nil {
		t.Fatalf("register(maxU32): %v", err)
	}

	seqNo, err := table.register(newOp(), maxU32, 8)
	if err != nil {
		t.Fatalf("register(maxU32) again: %v", err)
	}
	if seqNo != 0 {
		t.Fatalf("seqNo = %d, want 0 (wrapped past maxU32)", seqNo)
	}
}

func TestInflightRegisterFailsWhenTableAtCeiling(t *testing.T) {
	t.Parallel()

	table := make(inflightTable)
	for i := uint32(0); i < 3; i++ {
		if _, err := table.register(newOp(), i, 3); err != nil {
			t.Fatalf("register(%d): %v", i, err)
		}
	}

	if _, err := table.register(newOp(), 0, 3); err != ErrTooManyInFlight {
		t.Fatalf("err = %v, want ErrTooManyInFlight", err)
	}
}

func TestInflightRegisterAssignsCandidateWhenFree(t *testing.T) {
	t.Parallel()

	table := make(inflightTable)
	op := newOp()
	seqNo, err := table.register(op, 42, 8)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if seqNo != 42 || op.seqNo != 42 {
		t.Fatalf("seqNo = %d, op.seqNo = %d, want 42", seqNo, op.seqNo)
	}
}
