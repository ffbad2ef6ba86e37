package store

import (
	"path/filepath"
	"testing"

	"github.com/motorcyle-spec/TrinityChain/internal/chain"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

func openTestStore(t *testing.T) *BlockStore {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "blocks"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func blockWithCoinbase(height uint64, prev [32]byte) chain.Block {
	cb := txn.Coinbase{Beneficiary: "alice", RewardArea: float64(chain.Emission(height)), BlockHeight: height}
	hashes := [][32]byte{txn.Hash(cb)}
	h := chain.Header{
		Height:       height,
		PreviousHash: prev,
		Timestamp:    chain.GenesisTimestamp + int64(height)*60,
		Difficulty:   1,
		MerkleRoot:   chain.MerkleRoot(hashes),
	}
	return chain.Block{Header: h, Hash: h.CanonicalHash(), Transactions: []txn.Transaction{cb}}
}

func TestAppendAndLoadAll(t *testing.T) {
	s := openTestStore(t)

	genesis := chain.GenesisBlock()
	b1 := blockWithCoinbase(1, genesis.Hash)
	b2 := blockWithCoinbase(2, b1.Hash)

	for _, b := range []chain.Block{genesis, b1, b2} {
		if err := s.Append(b); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	loaded, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("LoadAll returned %d blocks, want 3", len(loaded))
	}
	for i, b := range loaded {
		if b.Hash != []chain.Block{genesis, b1, b2}[i].Hash {
			t.Fatalf("block %d hash mismatch after round trip", i)
		}
	}
	if loaded[2].Transactions[0].(txn.Coinbase).Beneficiary != "alice" {
		t.Fatalf("coinbase beneficiary lost across round trip")
	}

	height, err := s.Height()
	if err != nil || height != 2 {
		t.Fatalf("Height() = %d, %v; want 2, nil", height, err)
	}
	tip, err := s.Tip()
	if err != nil || tip != b2.Hash {
		t.Fatalf("Tip() = %x, %v; want %x, nil", tip, err, b2.Hash)
	}
}

func TestHeightOnEmptyStoreErrors(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Height(); err == nil {
		t.Fatalf("expected error on empty store")
	}
}
