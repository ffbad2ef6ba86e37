package txn

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// Transfer reassigns ownership of an existing triangle, optionally
// paying a fee (a coordinate-space quantity deducted from the input's
// effective value).
type Transfer struct {
	InputHash [32]byte
	NewOwner  string
	Sender    string
	FeeArea   float64
	TxNonce   uint64
	Memo      []byte
	Signature []byte
	PublicKey []byte
}

// Kind implements Transaction.
func (Transfer) Kind() Kind { return KindTransfer }

// Nonce implements Transaction.
func (t Transfer) Nonce() uint64 { return t.TxNonce }

func (t Transfer) encodeCanonical(w io.Writer) error {
	return writeElements(w, uint64(KindTransfer), t.InputHash, t.NewOwner, t.Sender,
		t.FeeArea, t.TxNonce, t.Memo, t.PublicKey)
}

// ValidateStateless checks everything that doesn't require chain
// state: field ranges, memo length, fee finiteness and sign, and the
// signature over SignableBytes.
func (t Transfer) ValidateStateless(verify func(publicKey, message, signature []byte) bool) error {
	if t.NewOwner == "" {
		return errors.New("transfer new owner must not be empty")
	}
	if t.Sender == "" {
		return errors.New("transfer sender must not be empty")
	}
	if len(t.Memo) > MaxMemoBytes {
		return errors.Errorf("transfer memo is %d bytes, exceeds max %d", len(t.Memo), MaxMemoBytes)
	}
	if math.IsNaN(t.FeeArea) || math.IsInf(t.FeeArea, 0) {
		return errors.New("transfer fee area must be finite")
	}
	if t.FeeArea < 0 {
		return errors.New("transfer fee area must be non-negative")
	}
	if len(t.PublicKey) == 0 || len(t.Signature) == 0 {
		return errors.New("transfer is missing a signature or public key")
	}
	if verify != nil && !verify(t.PublicKey, SignableBytes(t), t.Signature) {
		return errors.New("transfer signature does not verify")
	}
	return nil
}
