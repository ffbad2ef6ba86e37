package netp2p

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/motorcyle-spec/TrinityChain/internal/chain"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

func coinbaseFixture() txn.Coinbase {
	return txn.Coinbase{Beneficiary: "alice", RewardArea: 1000, BlockHeight: 1, TxNonce: 1}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	hello := Hello{NodeID: [32]byte{1, 2, 3}, Version: Version, TipHeight: 7, TipHash: [32]byte{9}}
	if err := WriteFrame(&buf, CmdHello, hello); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	frame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if frame.Command != CmdHello {
		t.Fatalf("command = %v, want CmdHello", frame.Command)
	}

	var decoded Hello
	if err := frame.Decode(&decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.TipHeight != 7 || decoded.NodeID != hello.NodeID {
		t.Fatalf("decoded Hello mismatch:\ngot:\n%swant:\n%s", spew.Sdump(decoded), spew.Sdump(hello))
	}
}

func TestReadFrameRejectsOversizeLength(t *testing.T) {
	var buf bytes.Buffer
	// A length prefix claiming more than MaxMessageSize must be
	// rejected before any payload bytes are read.
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatalf("expected oversize frame to be rejected")
	}
}

func TestOrphanPoolResolvesWaitingChildren(t *testing.T) {
	pool := NewOrphanPool()
	parentHash := [32]byte{1}
	child := chain.Block{Header: chain.Header{PreviousHash: parentHash, Height: 5}, Hash: [32]byte{2}}
	pool.Add(child)

	if pool.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", pool.Len())
	}

	ready := pool.Resolve(parentHash)
	if len(ready) != 1 || ready[0].Hash != child.Hash {
		t.Fatalf("Resolve returned %+v, want [child]", ready)
	}
	if pool.Len() != 0 {
		t.Fatalf("Len() = %d after resolve, want 0", pool.Len())
	}
}

func TestOrphanPoolEvictsOldestBeyondCap(t *testing.T) {
	pool := NewOrphanPool()
	for i := 0; i < MaxOrphans+1; i++ {
		h := [32]byte{byte(i), byte(i >> 8)}
		pool.Add(chain.Block{Header: chain.Header{PreviousHash: [32]byte{9}, Height: uint64(i)}, Hash: h})
	}
	if pool.Len() != MaxOrphans {
		t.Fatalf("Len() = %d, want %d after exceeding cap", pool.Len(), MaxOrphans)
	}
}

func TestNewBlockFrameRoundTripWithCoinbase(t *testing.T) {
	cb := coinbaseFixture()
	block := chain.Block{
		Header:       chain.Header{Height: 1, PreviousHash: [32]byte{7}, Timestamp: 1_704_067_260, Difficulty: 1},
		Hash:         [32]byte{42},
		Transactions: []txn.Transaction{cb},
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, CmdNewBlock, NewBlock{Block: WrapBlock(block)}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	frame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	var decoded NewBlock
	if err := frame.Decode(&decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got, err := decoded.Block.Unwrap()
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if got.Hash != block.Hash || len(got.Transactions) != 1 {
		t.Fatalf("decoded block mismatch:\ngot:\n%swant:\n%s", spew.Sdump(got), spew.Sdump(block))
	}
	gotCoinbase, ok := got.Transactions[0].(txn.Coinbase)
	if !ok || gotCoinbase.Beneficiary != cb.Beneficiary {
		t.Fatalf("decoded coinbase mismatch: %+v", got.Transactions[0])
	}
}

func TestTransactionEnvelopeRoundTrip(t *testing.T) {
	// Covered indirectly via WrapTransaction/Unwrap: a Coinbase should
	// survive the tag/untag cycle unchanged.
	cb := coinbaseFixture()
	env := WrapTransaction(cb)
	tx, err := env.Unwrap()
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if tx.Kind() != cb.Kind() || tx.Nonce() != cb.Nonce() {
		t.Fatalf("round-tripped transaction mismatch")
	}
}
