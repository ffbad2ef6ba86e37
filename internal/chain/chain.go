package chain

import (
	"math/big"
	"sync"

	"github.com/motorcyle-spec/TrinityChain/internal/errs"
	"github.com/motorcyle-spec/TrinityChain/internal/logger"
	"github.com/motorcyle-spec/TrinityChain/internal/mempool"
	"github.com/motorcyle-spec/TrinityChain/internal/state"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

// Chain is TrinityChain's block/chain engine: the ordered main-chain
// blocks, the block index, known alternative-branch blocks, the
// current UTXO state, the mempool, and the current difficulty, all
// guarded by one reader-writer lock (spec §5): read-only queries take
// a shared guard, apply_block and difficulty retargets take an
// exclusive guard held for the duration of the mutation.
type Chain struct {
	mu sync.RWMutex

	blocks     []Block
	blockIndex map[[32]byte]Block
	forks      map[[32]byte]Block

	state      *state.TriangleState
	mempool    *mempool.Mempool
	difficulty uint64

	verify VerifyFunc
}

// New returns a Chain seeded with the genesis block and state.
func New(verify VerifyFunc, pool *mempool.Mempool) *Chain {
	genesis := GenesisBlock()
	return &Chain{
		blocks:     []Block{genesis},
		blockIndex: map[[32]byte]Block{genesis.Hash: genesis},
		forks:      make(map[[32]byte]Block),
		state:      NewGenesisState(),
		mempool:    pool,
		difficulty: GenesisDifficulty,
		verify:     verify,
	}
}

// Height returns the current main-chain tip height.
func (c *Chain) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tipLocked().Header.Height
}

// Tip returns the current main-chain tip block.
func (c *Chain) Tip() Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tipLocked()
}

func (c *Chain) tipLocked() Block {
	return c.blocks[len(c.blocks)-1]
}

// BlockByHash looks up a block by hash in either the main chain or
// known forks.
func (c *Chain) BlockByHash(hash [32]byte) (Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blockByHashLocked(hash)
}

func (c *Chain) blockByHashLocked(hash [32]byte) (Block, bool) {
	if b, ok := c.blockIndex[hash]; ok {
		return b, true
	}
	b, ok := c.forks[hash]
	return b, ok
}

// BlockAtHeight returns the main-chain block at the given height.
func (c *Chain) BlockAtHeight(height uint64) (Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if height > uint64(len(c.blocks)-1) {
		return Block{}, false
	}
	return c.blocks[height], true
}

// Difficulty returns the difficulty the next block must satisfy.
func (c *Chain) Difficulty() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.difficulty
}

// State returns the current UTXO state. Callers must not mutate it;
// Clone before any speculative mutation.
func (c *Chain) State() *state.TriangleState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// checkCoinbaseReward enforces spec §4.3 step 6's reward bound:
// reward_area <= emission(height) + sum(fees).
func (c *Chain) checkCoinbaseReward(b Block, totalFees float64) error {
	cb, ok := b.Transactions[0].(txn.Coinbase)
	if !ok {
		return errs.New(errs.ErrInvalidTransaction, "block has no coinbase transaction at index 0")
	}
	bound := float64(Emission(b.Header.Height)) + totalFees
	if cb.RewardArea > bound+geometryTolerance {
		return errs.New(errs.ErrInvalidTransaction, "coinbase reward %v exceeds emission+fees bound %v", cb.RewardArea, bound)
	}
	return nil
}

// ApplyBlock validates b and, on success, applies it: extending the
// tip directly, or recording it as a fork and reorganizing onto it if
// its branch's cumulative work now exceeds the main chain's. It either
// succeeds fully or leaves no observable mutation.
func (c *Chain) ApplyBlock(b Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	parent, ok := c.blockByHashLocked(b.Header.PreviousHash)
	if !ok {
		return errs.New(errs.ErrOrphanBlock, "previous hash %x not known", b.Header.PreviousHash)
	}

	if err := c.validateBlockLocked(b, parent); err != nil {
		return err
	}

	tip := c.tipLocked()
	if b.Header.PreviousHash == tip.Hash {
		return c.extendTipLocked(b)
	}

	// Extends a known non-tip block: record as a fork candidate and
	// reorganize onto it if its branch now has more cumulative work.
	c.forks[b.Hash] = b
	forkWork := c.cumulativeWorkLocked(b.Hash)
	mainWork := c.cumulativeWorkLocked(tip.Hash)
	if forkWork.Cmp(mainWork) > 0 {
		if err := c.reorganizeToForkLocked(b.Hash); err != nil {
			delete(c.forks, b.Hash)
			return err
		}
		return nil
	}
	logger.ChainLog.Infof("recorded fork block %x at height %d, cumulative work %s <= main %s", b.Hash, b.Header.Height, forkWork, mainWork)
	return nil
}

// extendTipLocked applies b directly onto the current tip. Callers
// must hold c.mu for writing and must have already validated b.
func (c *Chain) extendTipLocked(b Block) error {
	scratch, _, err := runTransactionsAgainst(c.state, b, c.verify)
	if err != nil {
		return err
	}

	c.state = scratch
	c.blocks = append(c.blocks, b)
	c.blockIndex[b.Hash] = b
	delete(c.forks, b.Hash)

	if ShouldRetarget(b.Header.Height) {
		window := c.retargetWindowLocked()
		c.difficulty = RetargetDifficulty(c.difficulty, window[0], window[1])
		logger.ChainLog.Infof("retargeted difficulty to %d at height %d", c.difficulty, b.Header.Height)
	}

	c.mempool.Remove(b.TxHashes())
	logger.ChainLog.Infof("extended tip to %x at height %d", b.Hash, b.Header.Height)
	return nil
}

// retargetWindowLocked returns the first and last timestamps of the
// just-completed difficulty adjustment window ending at the current
// tip (called after b is appended, so len(c.blocks)-1 is b, the
// window's last block, and len(c.blocks)-1-(window-1) is its first).
func (c *Chain) retargetWindowLocked() [2]int64 {
	last := len(c.blocks) - 1
	first := last - (DifficultyAdjustmentWindow - 1)
	if first < 0 {
		first = 0
	}
	return [2]int64{c.blocks[first].Header.Timestamp, c.blocks[last].Header.Timestamp}
}

// cumulativeWorkLocked sums 16^difficulty over every block from hash
// back to genesis, walking previous_hash links through block_index and
// forks combined, the measure of work a nibble-count PoW predicate
// implies: one leading zero nibble cuts the winning-hash space by 16.
func (c *Chain) cumulativeWorkLocked(hash [32]byte) *big.Int {
	total := big.NewInt(0)
	sixteen := big.NewInt(16)
	for {
		b, ok := c.blockByHashLocked(hash)
		if !ok {
			break
		}
		work := new(big.Int).Exp(sixteen, big.NewInt(int64(b.Header.Difficulty)), nil)
		total.Add(total, work)
		if b.Header.Height == 0 {
			break
		}
		hash = b.Header.PreviousHash
	}
	return total
}

// reorganizeToForkLocked walks parents of newHead until a common
// ancestor with the main chain is found, replays from the ancestor
// along the new branch into a scratch state, validates every block
// along the way, and on success atomically swaps blocks and state
// together. Any failure aborts the swap, leaving the main chain
// untouched. Callers must hold c.mu for writing.
func (c *Chain) reorganizeToForkLocked(newHead [32]byte) error {
	branch, ancestorHeight, err := c.branchToAncestorLocked(newHead)
	if err != nil {
		return err
	}

	scratch := c.snapshotStateAt(ancestorHeight)
	parent := c.blocks[ancestorHeight]
	newBlocks := append([]Block{}, c.blocks[:ancestorHeight+1]...)

	for _, b := range branch {
		if err := c.validateAgainst(scratch, b, parent); err != nil {
			return err
		}
		next, _, err := runTransactionsAgainst(scratch, b, c.verify)
		if err != nil {
			return err
		}
		scratch = next
		newBlocks = append(newBlocks, b)
		parent = b
	}

	disconnected := c.blocks[ancestorHeight+1:]

	// Atomic swap: both blocks and state advance together, so no
	// observer ever sees one without the other.
	c.blocks = newBlocks
	c.state = scratch
	for _, b := range newBlocks {
		c.blockIndex[b.Hash] = b
		delete(c.forks, b.Hash)
	}

	c.mempool.RevalidateAgainst(c.state)
	var disconnectedTxs []txn.Transaction
	for _, b := range disconnected {
		disconnectedTxs = append(disconnectedTxs, b.Transactions...)
	}
	c.mempool.Reoffer(disconnectedTxs, c.state)

	logger.ChainLog.Infof("reorganized to fork, new tip %x at height %d", newHead, c.tipLocked().Header.Height)
	return nil
}

// branchToAncestorLocked walks newHead's previous_hash links until it
// reaches a hash present in the main chain, returning the branch in
// root-to-tip order and the main-chain index of the common ancestor.
func (c *Chain) branchToAncestorLocked(newHead [32]byte) ([]Block, int, error) {
	mainIndex := make(map[[32]byte]int, len(c.blocks))
	for i, b := range c.blocks {
		mainIndex[b.Hash] = i
	}

	// reverseOrder accumulates tip-to-root, then gets reversed once the
	// common ancestor (present in the main chain) is found.
	var reverseOrder []Block
	cur := newHead
	for {
		if idx, ok := mainIndex[cur]; ok {
			return reverseBlocks(reverseOrder), idx, nil
		}
		b, ok := c.blockByHashLocked(cur)
		if !ok {
			return nil, 0, errs.New(errs.ErrInvalidBlockLinkage, "fork branch references unknown block %x", cur)
		}
		reverseOrder = append(reverseOrder, b)
		cur = b.Header.PreviousHash
	}
}

func reverseBlocks(b []Block) []Block {
	out := make([]Block, len(b))
	for i, blk := range b {
		out[len(b)-1-i] = blk
	}
	return out
}

// snapshotStateAt rebuilds the state as of the block at the given
// main-chain index by replaying from genesis. It is only called
// during a reorg, which is far rarer than block application, so
// trading replay cost for not having to retain historical state
// snapshots is the right tradeoff here.
func (c *Chain) snapshotStateAt(index int) *state.TriangleState {
	s := NewGenesisState()
	for i := 1; i <= index; i++ {
		next, _, err := runTransactionsAgainst(s, c.blocks[i], c.verify)
		if err != nil {
			// The main chain was already validated when each of these
			// blocks was originally applied; replaying it must succeed.
			panic(err)
		}
		s = next
	}
	return s
}

// validateAgainst runs the read-only checks of validateBlockLocked
// against an explicit base state, used while replaying a fork branch
// where the chain's own c.state is not yet the relevant predecessor.
func (c *Chain) validateAgainst(base *state.TriangleState, b Block, parent Block) error {
	return c.validateBlockAgainstState(base, b, parent)
}

const geometryTolerance = 1e-9
