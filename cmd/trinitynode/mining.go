package main

import (
	"time"

	"github.com/motorcyle-spec/TrinityChain/internal/chain"
	"github.com/motorcyle-spec/TrinityChain/internal/errs"
	"github.com/motorcyle-spec/TrinityChain/internal/logger"
	"github.com/motorcyle-spec/TrinityChain/internal/miner"
	"github.com/motorcyle-spec/TrinityChain/internal/netp2p"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

// blockTxCapacity bounds how many mempool transactions a mined block
// carries alongside its coinbase.
const blockTxCapacity = 2000

// mineLoop repeatedly builds a block template on top of the current
// tip, mines it, and applies it to the chain, until the process stops.
// If the tip moves out from under a search, that search is cancelled
// and the loop starts over on a fresh template.
func (n *trinitynode) mineLoop() {
	logger.MinerLog.Infof("mining enabled, crediting %s, %d threads", n.cfg.MinerAddress, n.cfg.Threads)

	var nonce uint64
	for {
		select {
		case <-n.stop.quit:
			return
		default:
		}

		header, block, err := n.buildTemplate(nonce)
		nonce++
		if err != nil {
			logger.MinerLog.Errorf("failed to build block template: %s", err)
			time.Sleep(time.Second)
			continue
		}

		stop := &miner.StopSignal{}
		go n.abortOnTipChange(block.Header.PreviousHash, stop)

		mined, err := miner.MineParallel(header, stop, n.cfg.Threads)
		if err != nil {
			if !errs.Is(err, errs.ErrCancelled) {
				logger.MinerLog.Errorf("mining failed: %s", err)
			}
			continue
		}

		block.Header = mined
		block.Hash = mined.CanonicalHash()

		if err := n.node.HandleNewBlock(nil, netp2p.NewBlock{Block: netp2p.WrapBlock(block)}); err != nil {
			logger.MinerLog.Warnf("mined block %x rejected: %s", block.Hash, err)
			continue
		}
		logger.MinerLog.Infof("mined block %x at height %d", block.Hash, block.Header.Height)
	}
}

// abortOnTipChange signals stop once the chain's tip no longer
// matches expectedParent, so a stale search gives up promptly instead
// of wasting work on an already-superseded template.
func (n *trinitynode) abortOnTipChange(expectedParent [32]byte, stop *miner.StopSignal) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-n.stop.quit:
			stop.Stop()
			return
		case <-ticker.C:
			if n.chain.Tip().Hash != expectedParent {
				stop.Stop()
				return
			}
			if stop.Stopped() {
				return
			}
		}
	}
}

// buildTemplate assembles an unmined block on top of the current tip:
// a coinbase crediting the configured miner address, plus the
// highest-fee transactions the mempool currently holds.
func (n *trinitynode) buildTemplate(coinbaseNonce uint64) (chain.Header, chain.Block, error) {
	tip := n.chain.Tip()
	height := tip.Header.Height + 1

	pending := n.mempool.SelectTop(blockTxCapacity)
	var fees float64
	for _, tx := range pending {
		fees += txn.Fee(tx)
	}

	cb := txn.Coinbase{
		Beneficiary: n.cfg.MinerAddress,
		RewardArea:  float64(chain.Emission(height)) + fees,
		BlockHeight: height,
		TxNonce:     coinbaseNonce,
	}

	transactions := make([]txn.Transaction, 0, len(pending)+1)
	transactions = append(transactions, cb)
	transactions = append(transactions, pending...)

	hashes := make([][32]byte, len(transactions))
	for i, tx := range transactions {
		hashes[i] = txn.Hash(tx)
	}

	timestamp := tip.Header.Timestamp + 1
	if now := time.Now().Unix(); now > timestamp {
		timestamp = now
	}

	header := chain.Header{
		Height:       height,
		PreviousHash: tip.Hash,
		Timestamp:    timestamp,
		Difficulty:   n.chain.Difficulty(),
		MerkleRoot:   chain.MerkleRoot(hashes),
	}
	block := chain.Block{Header: header, Transactions: transactions}
	return header, block, nil
}
