package chain

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/motorcyle-spec/TrinityChain/internal/errs"
	"github.com/motorcyle-spec/TrinityChain/internal/state"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

// maxClockDriftSeconds is how far a block's timestamp may lie ahead
// of the local wall clock and still be accepted (spec §4.3 step 3).
const maxClockDriftSeconds = 2 * 60 * 60

// CheckProofOfWork reports whether hash's leading difficulty hex
// nibbles are all zero, the nibble-count predicate kept deliberately
// instead of a 256-bit big.Int target.
func CheckProofOfWork(hash [32]byte, difficulty uint64) bool {
	hexHash := hex.EncodeToString(hash[:])
	if difficulty > uint64(len(hexHash)) {
		return false
	}
	return strings.Count(hexHash[:difficulty], "0") == int(difficulty)
}

// validateBlockLocked runs the ordered checks of spec §4.3 against b
// using the chain's current state as the base to walk transactions
// against. Callers must hold c.mu (for reading or writing).
func (c *Chain) validateBlockLocked(b Block, parent Block) error {
	return c.validateBlockAgainstState(c.state, b, parent)
}

// validateBlockAgainstState is validateBlockLocked generalized over an
// explicit base state, so fork-branch replay (which validates against
// a scratch state, not c.state) can share the same checks.
func (c *Chain) validateBlockAgainstState(base *state.TriangleState, b Block, parent Block) error {
	// 1. Linkage: the caller locates parent by previous_hash in
	// block_index or forks before calling this function; an
	// unlocatable parent is reported as OrphanBlock there.

	// 2. Height.
	if b.Header.Height != parent.Header.Height+1 {
		return errs.New(errs.ErrInvalidBlockLinkage, "block height %d is not parent height %d + 1", b.Header.Height, parent.Header.Height)
	}

	// 3. Time strict-monotone, with wall-clock slack.
	if b.Header.Timestamp <= parent.Header.Timestamp {
		return errs.New(errs.ErrInvalidTransaction, "block timestamp %d does not exceed parent timestamp %d", b.Header.Timestamp, parent.Header.Timestamp)
	}
	if b.Header.Timestamp > time.Now().Unix()+maxClockDriftSeconds {
		return errs.New(errs.ErrInvalidTransaction, "block timestamp %d is more than %ds ahead of wall clock", b.Header.Timestamp, maxClockDriftSeconds)
	}

	// 4. Proof-of-work.
	if b.Header.CanonicalHash() != b.Hash {
		return errs.New(errs.ErrInvalidProofOfWork, "block hash does not match header canonical hash")
	}
	if !CheckProofOfWork(b.Hash, b.Header.Difficulty) {
		return errs.New(errs.ErrInvalidProofOfWork, "block hash does not satisfy difficulty %d", b.Header.Difficulty)
	}

	// 5. Merkle root.
	if MerkleRoot(b.TxHashes()) != b.Header.MerkleRoot {
		return errs.New(errs.ErrInvalidMerkleRoot, "merkle root does not match transactions")
	}

	// 6. Coinbase position: exactly one, at index 0.
	if len(b.Transactions) == 0 || b.Transactions[0].Kind() != txn.KindCoinbase {
		return errs.New(errs.ErrInvalidTransaction, "block has no coinbase transaction at index 0")
	}
	for _, tx := range b.Transactions[1:] {
		if tx.Kind() == txn.KindCoinbase {
			return errs.New(errs.ErrInvalidTransaction, "block has more than one coinbase transaction")
		}
	}

	// 7. Per-transaction stateless+stateful validity, walking a
	// scratch copy of base so intra-block dependencies resolve; this
	// also yields the fee total the coinbase reward bound needs.
	_, totalFees, err := runTransactionsAgainst(base, b, c.verify)
	if err != nil {
		return err
	}

	// 6 (cont'd). Coinbase reward bound.
	return c.checkCoinbaseReward(b, totalFees)
}
