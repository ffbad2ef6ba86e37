package netp2p

import (
	"github.com/motorcyle-spec/TrinityChain/internal/chain"
	"github.com/motorcyle-spec/TrinityChain/internal/errs"
	"github.com/motorcyle-spec/TrinityChain/internal/logger"
	"github.com/motorcyle-spec/TrinityChain/internal/mempool"
)

// Node wires the chain engine, mempool, peer set and orphan pool
// together behind the message handler every connection (inbound or
// outbound) shares, per spec §4.8's "inbound and outbound use the
// same message handler".
type Node struct {
	Chain   *chain.Chain
	Mempool *mempool.Mempool
	Peers   *PeerSet
	Orphans *OrphanPool
	NodeID  [32]byte

	// OnBlockApplied, if set, is called after a block is successfully
	// applied to Chain, letting the process wire in persistence
	// without the network layer knowing about storage.
	OnBlockApplied func(chain.Block)
}

// HandleHello processes an incoming Hello: records the peer's
// announced tip, and if it is ahead of the local chain, kicks off
// headers-first sync against it.
func (n *Node) HandleHello(p *Peer, hello Hello) error {
	p.NodeID = hello.NodeID
	p.TipHeight = hello.TipHeight
	p.TipHash = hello.TipHash

	localHeight := n.Chain.Height()
	if hello.TipHeight > localHeight {
		return n.syncHeaders(p, localHeight+1)
	}
	return nil
}

// syncHeaders starts headers-first sync: it requests one batch of up
// to MaxHeadersPerBatch headers starting at fromHeight. Bodies are then
// requested by HandleBlockHeaders and applied by HandleBlocks. No
// further header batch is requested afterwards, so one Hello syncs at
// most MaxHeadersPerBatch blocks.
func (n *Node) syncHeaders(p *Peer, fromHeight uint64) error {
	return p.Send(CmdGetBlockHeaders, GetBlockHeaders{FromHeight: fromHeight, Count: MaxHeadersPerBatch})
}

// HandleBlockHeaders answers a headers batch by requesting the bodies
// in sub-batches of up to MaxBlocksPerBatch.
func (n *Node) HandleBlockHeaders(p *Peer, headers BlockHeaders) error {
	if len(headers.Headers) > MaxHeadersPerBatch {
		return errs.New(errs.ErrNetworkError, "headers batch of %d exceeds MAX_HEADERS_PER_BATCH", len(headers.Headers))
	}
	hashes := make([][32]byte, 0, len(headers.Headers))
	for _, h := range headers.Headers {
		hashes = append(hashes, h.CanonicalHash())
	}
	for start := 0; start < len(hashes); start += MaxBlocksPerBatch {
		end := start + MaxBlocksPerBatch
		if end > len(hashes) {
			end = len(hashes)
		}
		if err := p.Send(CmdGetBlocks, GetBlocks{Hashes: hashes[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

// HandleBlocks applies an incoming body batch in the order the batch
// lists its blocks. The first failure aborts the remainder of the
// batch; blocks applied before the failing one stay applied, and the
// batch is not rolled back.
func (n *Node) HandleBlocks(batch Blocks) error {
	for _, wb := range batch.Blocks {
		b, err := wb.Unwrap()
		if err != nil {
			return err
		}
		if err := n.ApplyAndResolveOrphans(b); err != nil {
			return err
		}
	}
	return nil
}

// HandleNewBlock implements gossip reception of a single block: apply
// it; on OrphanBlock, queue it and request its missing parent; on any
// other error, report it to the caller so the network layer can act
// on the error taxonomy's propagation policy (spec §7).
func (n *Node) HandleNewBlock(p *Peer, nb NewBlock) error {
	b, err := nb.Block.Unwrap()
	if err != nil {
		return err
	}
	err = n.ApplyAndResolveOrphans(b)
	if errs.Is(err, errs.ErrOrphanBlock) {
		n.Orphans.Add(b)
		if p != nil {
			return p.Send(CmdGetParent, GetParent{Hash: b.Header.PreviousHash})
		}
		return nil
	}
	if err == nil {
		n.Peers.Broadcast(CmdNewBlock, nb, p)
	}
	return err
}

// ApplyAndResolveOrphans applies b and, on success, recursively
// applies any queued orphans that were waiting on it.
func (n *Node) ApplyAndResolveOrphans(b chain.Block) error {
	if err := n.Chain.ApplyBlock(b); err != nil {
		return err
	}
	logger.NetworkLog.Debugf("applied block %x at height %d", b.Hash, b.Header.Height)
	if n.OnBlockApplied != nil {
		n.OnBlockApplied(b)
	}

	ready := n.Orphans.Resolve(b.Hash)
	for _, orphan := range ready {
		if err := n.ApplyAndResolveOrphans(orphan); err != nil {
			logger.NetworkLog.Warnf("orphan %x failed to apply after parent resolved: %s", orphan.Hash, err)
		}
	}
	return nil
}

// HandleNewTransaction implements gossip reception of a single
// transaction: attempt mempool admission, rebroadcasting to other
// peers only if it was newly admitted (spec §4.8).
func (n *Node) HandleNewTransaction(p *Peer, nt NewTransaction) error {
	tx, err := nt.Transaction.Unwrap()
	if err != nil {
		return err
	}
	if _, err := n.Mempool.Add(tx, n.Chain.State()); err != nil {
		return err
	}
	n.Peers.Broadcast(CmdNewTransaction, nt, p)
	return nil
}

// HandleGetParent answers an orphan-recovery request with the block at
// hash, if known.
func (n *Node) HandleGetParent(p *Peer, req GetParent) error {
	b, ok := n.Chain.BlockByHash(req.Hash)
	if !ok {
		return nil
	}
	return p.Send(CmdBlocks, Blocks{Blocks: []WireBlock{WrapBlock(b)}})
}
