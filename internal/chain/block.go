// Package chain implements TrinityChain's block/chain engine:
// validation, atomic application, fork tracking, longest-chain
// reorganization, difficulty retargeting, and the emission schedule.
package chain

import (
	"encoding/binary"

	"github.com/motorcyle-spec/TrinityChain/internal/geometry"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

// Header is a block's fixed-size committing fields.
type Header struct {
	Height        uint64
	PreviousHash  [32]byte
	Timestamp     int64
	Difficulty    uint64
	Nonce         uint64
	MerkleRoot    [32]byte
}

// CanonicalHash is the SHA-256 digest of the header's canonical
// encoding; a block's Hash is always this value.
func (h Header) CanonicalHash() [32]byte {
	w := geometry.NewHashWriter()
	var buf [8]byte
	put64 := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		w.Write(buf[:])
	}
	put64(h.Height)
	w.Write(h.PreviousHash[:])
	put64(uint64(h.Timestamp))
	put64(h.Difficulty)
	put64(h.Nonce)
	w.Write(h.MerkleRoot[:])
	return w.Finalize()
}

// Block is an immutable, applied block: a header plus its ordered
// transactions. The first transaction of every non-genesis block is
// a Coinbase.
type Block struct {
	Header       Header
	Hash         [32]byte
	Transactions []txn.Transaction
}

// TxHashes returns the transaction hashes in block order, the input
// to merkle root computation.
func (b Block) TxHashes() [][32]byte {
	out := make([][32]byte, len(b.Transactions))
	for i, tx := range b.Transactions {
		out[i] = txn.Hash(tx)
	}
	return out
}
