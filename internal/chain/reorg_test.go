package chain

import (
	"testing"

	"github.com/motorcyle-spec/TrinityChain/internal/mempool"
	"github.com/motorcyle-spec/TrinityChain/internal/state"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

// TestReorganizeToLongerForkSwitchesTipAndRevalidatesMempool builds a
// 5-block main chain, then feeds in a competing branch that forks
// after block 1 and eventually accumulates more cumulative work,
// exercising reorganizeToForkLocked end to end: tip switch, state
// matching a from-genesis replay of the winning branch, and mempool
// revalidation of a transaction whose input the reorg disconnects.
func TestReorganizeToLongerForkSwitchesTipAndRevalidatesMempool(t *testing.T) {
	pool := mempool.New(alwaysVerify)
	c := New(alwaysVerify, pool)
	genesis := c.Tip()

	coinbase := func(beneficiary string, height uint64) txn.Coinbase {
		return txn.Coinbase{Beneficiary: beneficiary, RewardArea: float64(Emission(height)), BlockHeight: height}
	}

	// Main chain: genesis -> b1 -> b2 -> b3 -> b4 -> b5.
	b1 := buildBlock(genesis, 1, []txn.Transaction{coinbase("alice", 1)})
	if err := c.ApplyBlock(b1); err != nil {
		t.Fatalf("ApplyBlock(b1): %v", err)
	}
	b2cb := coinbase("alice", 2)
	b2 := buildBlock(b1, 1, []txn.Transaction{b2cb})
	if err := c.ApplyBlock(b2); err != nil {
		t.Fatalf("ApplyBlock(b2): %v", err)
	}
	b3 := buildBlock(b2, 1, []txn.Transaction{coinbase("alice", 3)})
	if err := c.ApplyBlock(b3); err != nil {
		t.Fatalf("ApplyBlock(b3): %v", err)
	}
	b4 := buildBlock(b3, 1, []txn.Transaction{coinbase("alice", 4)})
	if err := c.ApplyBlock(b4); err != nil {
		t.Fatalf("ApplyBlock(b4): %v", err)
	}
	b5 := buildBlock(b4, 1, []txn.Transaction{coinbase("alice", 5)})
	if err := c.ApplyBlock(b5); err != nil {
		t.Fatalf("ApplyBlock(b5): %v", err)
	}
	if c.Height() != 5 {
		t.Fatalf("height = %d, want 5", c.Height())
	}

	// Pool a transfer spending b2's coinbase output, which only the
	// main branch mints. Once the reorg disconnects b2, this input no
	// longer exists and RevalidateAgainst must drop it.
	spend := txn.Transfer{
		InputHash: [32]byte(state.NewOutputID(txn.Hash(b2cb), 0)),
		NewOwner:  "carol",
		Sender:    "alice",
		FeeArea:   0,
		TxNonce:   1,
		PublicKey: []byte{1},
		Signature: []byte{1},
	}
	if _, err := pool.Add(spend, c.State()); err != nil {
		t.Fatalf("pool.Add(spend): %v", err)
	}
	if pool.Size() != 1 {
		t.Fatalf("pool size = %d before reorg, want 1", pool.Size())
	}

	// Competing branch forking right after b1: genesis -> b1 -> fb2 ->
	// fb3 -> fb4 -> fb5 -> fb6. Every block here carries the same
	// difficulty as the main chain, so cumulative work is purely a
	// function of block count; the fork only overtakes main once it
	// has strictly more blocks beyond the common ancestor (5 vs 4).
	fb2 := buildBlock(b1, 1, []txn.Transaction{coinbase("bob", 2)})
	if err := c.ApplyBlock(fb2); err != nil {
		t.Fatalf("ApplyBlock(fb2): %v", err)
	}
	if c.Tip().Hash != b5.Hash {
		t.Fatalf("tip switched early at fb2, still want main tip b5")
	}

	fb3 := buildBlock(fb2, 1, []txn.Transaction{coinbase("bob", 3)})
	if err := c.ApplyBlock(fb3); err != nil {
		t.Fatalf("ApplyBlock(fb3): %v", err)
	}
	fb4 := buildBlock(fb3, 1, []txn.Transaction{coinbase("bob", 4)})
	if err := c.ApplyBlock(fb4); err != nil {
		t.Fatalf("ApplyBlock(fb4): %v", err)
	}
	fb5 := buildBlock(fb4, 1, []txn.Transaction{coinbase("bob", 5)})
	if err := c.ApplyBlock(fb5); err != nil {
		t.Fatalf("ApplyBlock(fb5): %v", err)
	}
	if c.Tip().Hash != b5.Hash {
		t.Fatalf("tip switched at fb5 on a tie, still want main tip b5")
	}

	fb6 := buildBlock(fb5, 1, []txn.Transaction{coinbase("bob", 6)})
	if err := c.ApplyBlock(fb6); err != nil {
		t.Fatalf("ApplyBlock(fb6): %v", err)
	}

	// The fork now has 5 blocks beyond the common ancestor (b1) against
	// main's 4, so reorganizeToForkLocked must have fired.
	if c.Tip().Hash != fb6.Hash {
		t.Fatalf("tip = %x, want fork tip %x", c.Tip().Hash, fb6.Hash)
	}
	if c.Height() != 6 {
		t.Fatalf("height = %d, want 6", c.Height())
	}

	// State must equal a from-genesis replay of the winning branch.
	replay := New(alwaysVerify, mempool.New(alwaysVerify))
	for _, b := range []Block{b1, fb2, fb3, fb4, fb5, fb6} {
		if err := replay.ApplyBlock(b); err != nil {
			t.Fatalf("replay ApplyBlock(%x): %v", b.Hash, err)
		}
	}
	if c.State().Len() != replay.State().Len() {
		t.Fatalf("state size = %d after reorg, want %d (from-genesis replay)", c.State().Len(), replay.State().Len())
	}
	for _, cb := range []txn.Coinbase{coinbase("bob", 2), coinbase("bob", 3), coinbase("bob", 4), coinbase("bob", 5), coinbase("bob", 6)} {
		id := state.NewOutputID(txn.Hash(cb), 0)
		got, ok := c.State().Get(id)
		want, wantOk := replay.State().Get(id)
		if ok != wantOk || !ok {
			t.Fatalf("fork coinbase output %x missing after reorg: got ok=%v, want ok=%v", id, ok, wantOk)
		}
		if got.Owner != want.Owner || got.A != want.A || got.B != want.B || got.C != want.C {
			t.Fatalf("fork coinbase output %x mismatch after reorg: got %+v, want %+v", id, got, want)
		}
	}

	// b2's coinbase output must no longer be reachable: it only existed
	// on the disconnected main branch.
	if _, ok := c.State().Get(state.NewOutputID(txn.Hash(b2cb), 0)); ok {
		t.Fatalf("disconnected main-chain output still present in state after reorg")
	}

	// The pooled transfer spent an output the reorg disconnected, so
	// RevalidateAgainst must have dropped it.
	if pool.Size() != 0 {
		t.Fatalf("pool size = %d after reorg, want 0 (spend on disconnected output revalidated away)", pool.Size())
	}
}
