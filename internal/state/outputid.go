package state

import (
	"encoding/binary"

	"github.com/motorcyle-spec/TrinityChain/internal/geometry"
)

// OutputID is the synthetic key under which a triangle lives in the
// UTXO set: derived from the hash of the transaction that produced it
// plus an output index, never from the triangle's own geometric hash.
// Geometry is preserved unchanged by Transfer, so keying by geometry
// hash alone would collide the old and new UTXO. The transaction hash
// excludes the signature, so a copy of a transaction that differs only
// in its signature bytes has the same hash and therefore the same
// OutputIDs as the original: it cannot mint a second, distinct set of
// outputs.
type OutputID [32]byte

// NewOutputID derives the output id for the index-th output produced
// by the transaction hashing to txHash.
func NewOutputID(txHash [32]byte, index uint32) OutputID {
	w := geometry.NewHashWriter()
	w.Write(txHash[:])
	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], index)
	w.Write(idxBuf[:])
	return OutputID(w.Finalize())
}
