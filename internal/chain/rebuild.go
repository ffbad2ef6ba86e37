package chain

import (
	"github.com/motorcyle-spec/TrinityChain/internal/errs"
	"github.com/motorcyle-spec/TrinityChain/internal/mempool"
)

// RebuildFromBlocks reconstructs a Chain by replaying blocks (as
// returned by a BlockStore's load_all) from genesis: the persistence
// contract of spec §6, "the chain engine rebuilds state and indices
// by replaying load_all() at startup".
func RebuildFromBlocks(blocks []Block, verify VerifyFunc, pool *mempool.Mempool) (*Chain, error) {
	if len(blocks) == 0 {
		return New(verify, pool), nil
	}

	expectedGenesis := GenesisBlock()
	if blocks[0].Hash != expectedGenesis.Hash {
		return nil, errs.New(errs.ErrInvalidBlockLinkage, "stored genesis hash %x does not match computed genesis hash %x", blocks[0].Hash, expectedGenesis.Hash)
	}

	c := &Chain{
		blocks:     []Block{blocks[0]},
		blockIndex: map[[32]byte]Block{blocks[0].Hash: blocks[0]},
		forks:      make(map[[32]byte]Block),
		state:      NewGenesisState(),
		mempool:    pool,
		difficulty: GenesisDifficulty,
		verify:     verify,
	}

	for _, b := range blocks[1:] {
		if err := c.ApplyBlock(b); err != nil {
			return nil, errs.New(errs.ErrStorageError, "replaying stored block %x at height %d: %s", b.Hash, b.Header.Height, err)
		}
	}
	return c, nil
}
