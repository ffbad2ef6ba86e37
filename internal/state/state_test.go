package state

import (
	"math"
	"testing"

	"github.com/motorcyle-spec/TrinityChain/internal/geometry"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

func mustCoinbase(t *testing.T, s *TriangleState, beneficiary string, height uint64, reward float64) OutputID {
	t.Helper()
	cb := txn.Coinbase{Beneficiary: beneficiary, RewardArea: reward, BlockHeight: height}
	txHash := txn.Hash(cb)
	if err := s.ApplyCoinbase(cb, txHash); err != nil {
		t.Fatalf("ApplyCoinbase: %v", err)
	}
	return NewOutputID(txHash, 0)
}

func TestApplyCoinbaseIndexedByOutputID(t *testing.T) {
	s := New()
	id := mustCoinbase(t, s, "alice", 1, 10)

	tri, ok := s.Get(id)
	if !ok {
		t.Fatal("expected coinbase output to be present")
	}
	if tri.Owner != "alice" {
		t.Fatalf("owner = %q, want alice", tri.Owner)
	}
	if got := s.TrianglesOf("alice"); len(got) != 1 || got[0] != id {
		t.Fatalf("address index = %v, want [%x]", got, id)
	}
}

func TestTransferFeeDeduction(t *testing.T) {
	s := New()
	id := mustCoinbase(t, s, "alice", 1, 10)

	transfer := txn.Transfer{InputHash: [32]byte(id), NewOwner: "bob", Sender: "alice", FeeArea: 0.1, PublicKey: []byte{1}, Signature: []byte{1}}
	txHash := txn.Hash(transfer)
	if err := s.ApplyTransfer(transfer, txHash); err != nil {
		t.Fatalf("ApplyTransfer: %v", err)
	}

	if _, ok := s.Get(id); ok {
		t.Fatal("input output id should no longer be present")
	}

	newID := NewOutputID(txHash, 0)
	tri, ok := s.Get(newID)
	if !ok {
		t.Fatal("expected successor output to be present")
	}
	if tri.Owner != "bob" {
		t.Fatalf("owner = %q, want bob", tri.Owner)
	}
	if got := tri.EffectiveValue(); math.Abs(got-9.9) > geometry.Tolerance {
		t.Fatalf("effective value = %v, want 9.9", got)
	}
}

func TestTransferRejectsWhenRemainingBelowTolerance(t *testing.T) {
	s := New()
	id := mustCoinbase(t, s, "alice", 1, 0.05)

	transfer := txn.Transfer{InputHash: [32]byte(id), NewOwner: "bob", Sender: "alice", FeeArea: 0.05, PublicKey: []byte{1}, Signature: []byte{1}}
	err := s.ApplyTransfer(transfer, txn.Hash(transfer))
	if err == nil {
		t.Fatal("expected transfer leaving remaining value below tolerance to fail")
	}
	if _, ok := s.Get(id); !ok {
		t.Fatal("failed transfer must not mutate state: input should still be present")
	}
}

func TestSubdivisionAppliesAndRemovesParent(t *testing.T) {
	s := New()
	cb := txn.Coinbase{Beneficiary: "alice", RewardArea: 10, BlockHeight: 1}
	txHash := txn.Hash(cb)
	if err := s.ApplyCoinbase(cb, txHash); err != nil {
		t.Fatalf("ApplyCoinbase: %v", err)
	}
	parentID := NewOutputID(txHash, 0)
	parent, _ := s.Get(parentID)

	kids := parent.Subdivide()
	sub := txn.Subdivision{
		ParentHash:   [32]byte(parentID),
		OwnerAddress: "alice",
		PublicKey:    []byte{1},
		Signature:    []byte{1},
	}
	for i, k := range kids {
		sub.Children[i] = txn.ChildSpec{A: k.A, B: k.B, C: k.C}
	}

	subHash := txn.Hash(sub)
	if err := s.ApplySubdivision(sub, subHash); err != nil {
		t.Fatalf("ApplySubdivision: %v", err)
	}
	if _, ok := s.Get(parentID); ok {
		t.Fatal("parent output id should be removed after subdivision")
	}
	for i := 0; i < 3; i++ {
		if _, ok := s.Get(NewOutputID(subHash, uint32(i))); !ok {
			t.Fatalf("expected child %d to be present", i)
		}
	}
}

func TestSubdivisionRejectsBadMidpoint(t *testing.T) {
	s := New()
	cb := txn.Coinbase{Beneficiary: "alice", RewardArea: 10, BlockHeight: 1}
	txHash := txn.Hash(cb)
	_ = s.ApplyCoinbase(cb, txHash)
	parentID := NewOutputID(txHash, 0)
	parent, _ := s.Get(parentID)

	kids := parent.Subdivide()
	kids[1].A.X += 2e-9 // beyond tolerance

	sub := txn.Subdivision{ParentHash: [32]byte(parentID), OwnerAddress: "alice", PublicKey: []byte{1}, Signature: []byte{1}}
	for i, k := range kids {
		sub.Children[i] = txn.ChildSpec{A: k.A, B: k.B, C: k.C}
	}
	if err := s.ApplySubdivision(sub, txn.Hash(sub)); err == nil {
		t.Fatal("expected subdivision with off-tolerance midpoint to be rejected")
	}
}
