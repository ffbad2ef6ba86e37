package chain

// Constants exposed to operators (spec §6).
const (
	BaseReward      = 1000
	HalvingInterval = 210_000
	MaxSupply       = 420_000_000
)

// Emission returns the base coinbase reward for a block at the given
// height: BaseReward halved once per HalvingInterval blocks, until
// the integer reward would drop to zero.
func Emission(height uint64) uint64 {
	halvings := height / HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return BaseReward >> halvings
}
