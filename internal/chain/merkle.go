package chain

import "github.com/motorcyle-spec/TrinityChain/internal/geometry"

// hashMerkleBranches hashes the concatenation of two child hashes,
// mirroring the teacher's hashMerkleBranches helper.
func hashMerkleBranches(left, right [32]byte) [32]byte {
	w := geometry.NewHashWriter()
	w.Write(left[:])
	w.Write(right[:])
	return w.Finalize()
}

// MerkleRoot computes the merkle root of txHashes, pairing siblings
// left-to-right at each level and duplicating the last leaf when a
// level has an odd count (spec §4.3), rather than the teacher's
// nil-padded power-of-two layout.
func MerkleRoot(txHashes [][32]byte) [32]byte {
	if len(txHashes) == 0 {
		return geometry.NewHashWriter().Finalize()
	}
	level := make([][32]byte, len(txHashes))
	copy(level, txHashes)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][32]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashMerkleBranches(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}
