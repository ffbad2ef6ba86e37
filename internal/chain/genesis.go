package chain

import (
	"github.com/motorcyle-spec/TrinityChain/internal/geometry"
	"github.com/motorcyle-spec/TrinityChain/internal/state"
)

// GenesisTimestamp is 2024-01-01 00:00:00 UTC (spec §6).
const GenesisTimestamp = 1_704_067_200

// GenesisDifficulty is the initial difficulty every chain starts at.
const GenesisDifficulty = 1

// GenesisOwner is the designated null owner of the genesis triangle.
// Transfer requires a non-empty sender and Subdivision a non-empty
// owner, so no transaction can spend the genesis output.
const GenesisOwner = ""

// genesisSeed is hashed to derive the genesis triangle's fixed,
// deterministic geometry; it is not a transaction hash (the genesis
// triangle is seeded directly, not minted by a Coinbase), but it
// plays the same role an output id would: every node that computes it
// gets byte-identical coordinates.
var genesisSeed = [32]byte{'t', 'r', 'i', 'n', 'i', 't', 'y', 'c', 'h', 'a', 'i', 'n', '-', 'g', 'e', 'n', 'e', 's', 'i', 's'}

// GenesisOutputID is the output id of the genesis triangle.
var GenesisOutputID = state.NewOutputID(genesisSeed, 0)

// GenesisTriangle returns the fixed genesis triangle. Its geometry is
// constant across every run so independently started nodes agree on
// it without any negotiation.
func GenesisTriangle() geometry.Triangle {
	return geometry.Triangle{
		A:     geometry.Point{X: 0, Y: 0},
		B:     geometry.Point{X: 1_000_000, Y: 0},
		C:     geometry.Point{X: 0, Y: 1_000_000},
		Owner: GenesisOwner,
	}
}

// GenesisBlock returns the fixed genesis block: height 0, a
// zero-valued previous hash, the fixed GenesisTimestamp, no
// transactions (the genesis triangle is seeded directly into state,
// not minted by a Coinbase), and a header hash that is the same on
// every conforming node.
func GenesisBlock() Block {
	header := Header{
		Height:       0,
		PreviousHash: [32]byte{},
		Timestamp:    GenesisTimestamp,
		Difficulty:   GenesisDifficulty,
		Nonce:        0,
		MerkleRoot:   MerkleRoot(nil),
	}
	return Block{
		Header:       header,
		Hash:         header.CanonicalHash(),
		Transactions: nil,
	}
}

// NewGenesisState returns a TriangleState seeded with only the
// genesis triangle.
func NewGenesisState() *state.TriangleState {
	s := state.New()
	// The genesis triangle is seeded directly; ApplyCoinbase is not
	// used here because there is no preceding transaction to hash and
	// no miner to reward at height 0.
	tri := GenesisTriangle()
	if err := s.Seed(GenesisOutputID, tri); err != nil {
		// Seeding a fresh, empty state can never collide.
		panic(err)
	}
	return s
}
