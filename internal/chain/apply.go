package chain

import (
	"github.com/motorcyle-spec/TrinityChain/internal/errs"
	"github.com/motorcyle-spec/TrinityChain/internal/state"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

// VerifyFunc is the signature-verification callback threaded down
// from the Signer collaborator into per-transaction stateless checks.
type VerifyFunc func(publicKey, message, signature []byte) bool

// runTransactionsAgainst clones base and walks b's transactions in
// order, validating each one statelessly then applying it to the
// clone, so intra-block dependencies (a Transfer spending an output a
// prior transaction in the same block minted) resolve correctly. It
// returns the resulting scratch state and the sum of declared fees,
// or an error from the first transaction that fails; on error the
// clone is discarded and base is never mutated.
func runTransactionsAgainst(base *state.TriangleState, b Block, verify VerifyFunc) (*state.TriangleState, float64, error) {
	scratch := base.Clone()
	var totalFees float64

	for i, tx := range b.Transactions {
		txHash := txn.Hash(tx)

		switch t := tx.(type) {
		case txn.Coinbase:
			if i != 0 {
				return nil, 0, errs.New(errs.ErrInvalidTransaction, "coinbase transaction must be first in the block")
			}
			if err := t.ValidateStateless(); err != nil {
				return nil, 0, errs.New(errs.ErrInvalidTransaction, "%s", err)
			}
			if err := scratch.ApplyCoinbase(t, txHash); err != nil {
				return nil, 0, err
			}
		case txn.Transfer:
			if i == 0 {
				return nil, 0, errs.New(errs.ErrInvalidTransaction, "first transaction in block must be a coinbase")
			}
			if err := t.ValidateStateless(verify); err != nil {
				return nil, 0, errs.New(errs.ErrInvalidTransaction, "%s", err)
			}
			if err := scratch.ApplyTransfer(t, txHash); err != nil {
				return nil, 0, err
			}
			totalFees += t.FeeArea
		case txn.Subdivision:
			if i == 0 {
				return nil, 0, errs.New(errs.ErrInvalidTransaction, "first transaction in block must be a coinbase")
			}
			if err := t.ValidateStateless(verify); err != nil {
				return nil, 0, errs.New(errs.ErrInvalidTransaction, "%s", err)
			}
			if err := scratch.ApplySubdivision(t, txHash); err != nil {
				return nil, 0, err
			}
			totalFees += float64(t.Fee)
		default:
			return nil, 0, errs.New(errs.ErrInvalidTransaction, "unsupported transaction kind")
		}
	}

	return scratch, totalFees, nil
}
