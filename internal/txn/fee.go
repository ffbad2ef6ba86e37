package txn

// Fee returns the fee a transaction declares: Transfer's fee_area,
// Subdivision's integer fee (as a float for uniform arithmetic with
// other fees in a block), and 0 for Coinbase (which pays no fee, it
// collects them).
func Fee(tx Transaction) float64 {
	switch t := tx.(type) {
	case Transfer:
		return t.FeeArea
	case Subdivision:
		return float64(t.Fee)
	default:
		return 0
	}
}

// AttributedAddress returns the address a pooled transaction counts
// against for the mempool's per-address cap: Transfer's sender,
// Subdivision's owner, Coinbase's beneficiary (Coinbase is never
// mempool-eligible), or the empty string for any other kind.
func AttributedAddress(tx Transaction) string {
	switch t := tx.(type) {
	case Transfer:
		return t.Sender
	case Subdivision:
		return t.OwnerAddress
	case Coinbase:
		return t.Beneficiary
	default:
		return ""
	}
}
