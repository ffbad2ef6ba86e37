package netp2p

import (
	"github.com/motorcyle-spec/TrinityChain/internal/chain"
	"github.com/motorcyle-spec/TrinityChain/internal/errs"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

// TransactionEnvelope carries any of the three closed transaction
// variants across the wire as a tagged payload: txn.Transaction's
// encodeCanonical method is deliberately unexported (spec §9's closed
// tagged union), so the wire can't serialize the interface directly
// and instead tags which concrete field is populated.
type TransactionEnvelope struct {
	Kind        txn.Kind
	Coinbase    *txn.Coinbase    `cbor:",omitempty"`
	Transfer    *txn.Transfer    `cbor:",omitempty"`
	Subdivision *txn.Subdivision `cbor:",omitempty"`
}

// WrapTransaction builds the envelope for tx.
func WrapTransaction(tx txn.Transaction) TransactionEnvelope {
	env := TransactionEnvelope{Kind: tx.Kind()}
	switch t := tx.(type) {
	case txn.Coinbase:
		env.Coinbase = &t
	case txn.Transfer:
		env.Transfer = &t
	case txn.Subdivision:
		env.Subdivision = &t
	}
	return env
}

// Unwrap extracts the concrete transaction the envelope carries.
func (e TransactionEnvelope) Unwrap() (txn.Transaction, error) {
	switch e.Kind {
	case txn.KindCoinbase:
		if e.Coinbase == nil {
			return nil, errs.New(errs.ErrNetworkError, "envelope tagged Coinbase but carries no payload")
		}
		return *e.Coinbase, nil
	case txn.KindTransfer:
		if e.Transfer == nil {
			return nil, errs.New(errs.ErrNetworkError, "envelope tagged Transfer but carries no payload")
		}
		return *e.Transfer, nil
	case txn.KindSubdivision:
		if e.Subdivision == nil {
			return nil, errs.New(errs.ErrNetworkError, "envelope tagged Subdivision but carries no payload")
		}
		return *e.Subdivision, nil
	default:
		return nil, errs.New(errs.ErrNetworkError, "unknown transaction kind %d in envelope", e.Kind)
	}
}

// WireBlock is a Block's on-wire representation: its transactions
// cross through TransactionEnvelope for the same reason a single
// transaction does, since cbor.Unmarshal cannot decode into the
// non-empty txn.Transaction interface without a concrete type behind
// it (see TransactionEnvelope's doc comment above).
type WireBlock struct {
	Header       chain.Header
	Hash         [32]byte
	Transactions []TransactionEnvelope
}

// WrapBlock builds the wire representation of b.
func WrapBlock(b chain.Block) WireBlock {
	envs := make([]TransactionEnvelope, len(b.Transactions))
	for i, tx := range b.Transactions {
		envs[i] = WrapTransaction(tx)
	}
	return WireBlock{Header: b.Header, Hash: b.Hash, Transactions: envs}
}

// Unwrap extracts the chain.Block wb carries.
func (wb WireBlock) Unwrap() (chain.Block, error) {
	transactions := make([]txn.Transaction, len(wb.Transactions))
	for i, env := range wb.Transactions {
		tx, err := env.Unwrap()
		if err != nil {
			return chain.Block{}, err
		}
		transactions[i] = tx
	}
	return chain.Block{Header: wb.Header, Hash: wb.Hash, Transactions: transactions}, nil
}
