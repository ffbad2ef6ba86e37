package mempool

import (
	"testing"

	"github.com/motorcyle-spec/TrinityChain/internal/state"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

func alwaysVerify(publicKey, message, signature []byte) bool { return true }

func seedUTXO(t *testing.T, s *state.TriangleState, owner string) [32]byte {
	t.Helper()
	cb := txn.Coinbase{Beneficiary: owner, RewardArea: 10, BlockHeight: 1}
	h := txn.Hash(cb)
	if err := s.ApplyCoinbase(cb, h); err != nil {
		t.Fatalf("ApplyCoinbase: %v", err)
	}
	return [32]byte(state.NewOutputID(h, 0))
}

func TestAddAndSelectTopOrdersByFee(t *testing.T) {
	s := state.New()
	mp := New(alwaysVerify)

	in1 := seedUTXO(t, s, "alice")
	in2 := seedUTXO(t, s, "bob")

	low := txn.Transfer{InputHash: in1, NewOwner: "carol", Sender: "alice", FeeArea: 0.1, PublicKey: []byte{1}, Signature: []byte{1}, TxNonce: 1}
	high := txn.Transfer{InputHash: in2, NewOwner: "carol", Sender: "bob", FeeArea: 1.0, PublicKey: []byte{1}, Signature: []byte{1}, TxNonce: 1}

	if _, err := mp.Add(low, s); err != nil {
		t.Fatalf("Add(low): %v", err)
	}
	if _, err := mp.Add(high, s); err != nil {
		t.Fatalf("Add(high): %v", err)
	}

	top := mp.SelectTop(2)
	if len(top) != 2 {
		t.Fatalf("SelectTop returned %d, want 2", len(top))
	}
	first, ok := top[0].(txn.Transfer)
	if !ok || first.FeeArea != 1.0 {
		t.Fatalf("expected the higher-fee transaction first, got %+v", top[0])
	}
}

func TestAddRejectsDuplicateAndUnknownInput(t *testing.T) {
	s := state.New()
	mp := New(alwaysVerify)
	in := seedUTXO(t, s, "alice")

	tr := txn.Transfer{InputHash: in, NewOwner: "bob", Sender: "alice", FeeArea: 0.1, PublicKey: []byte{1}, Signature: []byte{1}}
	if _, err := mp.Add(tr, s); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := mp.Add(tr, s); err == nil {
		t.Fatal("expected duplicate transaction to be rejected")
	}

	var unknown [32]byte
	bad := txn.Transfer{InputHash: unknown, NewOwner: "bob", Sender: "alice", FeeArea: 0.1, PublicKey: []byte{1}, Signature: []byte{1}, TxNonce: 7}
	if _, err := mp.Add(bad, s); err == nil {
		t.Fatal("expected transfer of an unknown input to be rejected")
	}
}

func TestEvictionAtNinetyPercentThreshold(t *testing.T) {
	if testing.Short() {
		t.Skip("fills the mempool to its 10,000-entry capacity; skipped in -short")
	}
	s := state.New()
	mp := New(alwaysVerify)

	threshold := int(evictionLoadHigh * MaxTransactions)
	for i := 0; i < threshold; i++ {
		owner := fmtOwner(i)
		in := seedUTXO(t, s, owner)
		tr := txn.Transfer{InputHash: in, NewOwner: "sink", Sender: owner, FeeArea: 1, PublicKey: []byte{1}, Signature: []byte{1}, TxNonce: uint64(i)}
		if _, err := mp.Add(tr, s); err != nil {
			t.Fatalf("Add(fee=1 #%d): %v", i, err)
		}
	}
	if got := mp.Size(); got != threshold {
		t.Fatalf("pool size = %d, want %d after filling to the eviction threshold", got, threshold)
	}

	hotOwner := fmtOwner(threshold)
	hotIn := seedUTXO(t, s, hotOwner)
	hot := txn.Transfer{InputHash: hotIn, NewOwner: "sink", Sender: hotOwner, FeeArea: 5, PublicKey: []byte{1}, Signature: []byte{1}}
	if _, err := mp.Add(hot, s); err != nil {
		t.Fatalf("Add(fee=5): %v", err)
	}

	wantEvicted := threshold / evictionBatchDen
	wantSize := threshold - wantEvicted + 1
	if got := mp.Size(); got != wantSize {
		t.Fatalf("pool size after eviction = %d, want %d (evicted %d, admitted the fee=5 tx)", got, wantSize, wantEvicted)
	}
}

func TestEvictionRemovesLowestFeeEntriesFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("fills the mempool to its 10,000-entry capacity; skipped in -short")
	}
	s := state.New()
	mp := New(alwaysVerify)

	threshold := int(evictionLoadHigh * MaxTransactions)
	txs := make([]txn.Transfer, threshold)
	for i := 0; i < threshold; i++ {
		owner := fmtOwner(i)
		in := seedUTXO(t, s, owner)
		tr := txn.Transfer{
			InputHash: in, NewOwner: "sink", Sender: owner,
			FeeArea: float64(i) * 0.0001, PublicKey: []byte{1}, Signature: []byte{1}, TxNonce: uint64(i),
		}
		txs[i] = tr
		if _, err := mp.Add(tr, s); err != nil {
			t.Fatalf("Add(#%d): %v", i, err)
		}
	}

	hotOwner := fmtOwner(threshold)
	hotIn := seedUTXO(t, s, hotOwner)
	hot := txn.Transfer{
		InputHash: hotIn, NewOwner: "sink", Sender: hotOwner,
		FeeArea: float64(threshold) * 0.0001, PublicKey: []byte{1}, Signature: []byte{1},
	}
	if _, err := mp.Add(hot, s); err != nil {
		t.Fatalf("Add(hot): %v", err)
	}

	// Eviction must have dropped the lowest-fee entries (fee index 0)
	// and kept the highest-fee one (fee index threshold-1): re-adding
	// the evicted transaction must succeed, re-adding the survivor must
	// report a duplicate.
	if _, err := mp.Add(txs[0], s); err != nil {
		t.Fatalf("expected lowest-fee transaction to have been evicted: %v", err)
	}
	if _, err := mp.Add(txs[threshold-1], s); err == nil {
		t.Fatalf("expected highest-fee transaction to have survived eviction, still be pooled")
	}
}

func fmtOwner(i int) string {
	b := make([]byte, 0, 12)
	b = append(b, 'o')
	for i > 0 {
		b = append(b, byte('0'+i%10))
		i /= 10
	}
	return string(b)
}
