// Package txn implements TrinityChain's transaction tagged union
// (Coinbase, Transfer, Subdivision), their canonical encodings, and
// their stateless validation. Stateful validation against the UTXO
// set lives in package state, which consumes these types.
package txn

import (
	"io"

	"github.com/motorcyle-spec/TrinityChain/internal/geometry"
)

// Kind discriminates the closed set of transaction variants.
type Kind uint8

// The three transaction kinds.
const (
	KindCoinbase Kind = iota
	KindTransfer
	KindSubdivision
)

func (k Kind) String() string {
	switch k {
	case KindCoinbase:
		return "Coinbase"
	case KindTransfer:
		return "Transfer"
	case KindSubdivision:
		return "Subdivision"
	default:
		return "Unknown"
	}
}

// MaxMemoBytes bounds a Transfer's memo field.
const MaxMemoBytes = 256

// Transaction is implemented by Coinbase, Transfer and Subdivision.
// Kind() names the variant; callers dispatch either on Kind() or with
// a type switch over these three concrete types.
type Transaction interface {
	Kind() Kind
	// Nonce returns the transaction's nonce, used as a mempool
	// selection tie-breaker.
	Nonce() uint64
	// encodeCanonical writes every committing field, in a fixed
	// order, excluding the signature.
	encodeCanonical(w io.Writer) error
}

// Hash returns the canonical transaction hash: SHA-256 over the
// canonical encoding of every committing field, excluding the
// signature. This is an acknowledged malleability surface (spec §9);
// UTXOs are keyed by synthetic output ids derived from this hash, not
// by it alone, so malleating a signature cannot forge ownership of an
// already-produced output.
func Hash(tx Transaction) [32]byte {
	w := geometry.NewHashWriter()
	// encodeCanonical never errors: every field written is a fixed
	// numeric/string/byte encoding with no fallible step.
	_ = tx.encodeCanonical(w)
	return w.Finalize()
}

// SignableBytes returns the exact bytes a Signer must sign: the
// canonical encoding of every committing field, excluding the
// signature. It is identical to what Hash hashes, exposed separately
// so callers can sign the pre-image directly if their Signer
// implementation hashes internally.
func SignableBytes(tx Transaction) []byte {
	var buf sliceWriter
	_ = tx.encodeCanonical(&buf)
	return buf.b
}

type sliceWriter struct{ b []byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
