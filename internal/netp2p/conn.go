package netp2p

import (
	"net"

	"github.com/motorcyle-spec/TrinityChain/internal/chain"
	"github.com/motorcyle-spec/TrinityChain/internal/errs"
	"github.com/motorcyle-spec/TrinityChain/internal/logger"
)

// Version is the node software version announced in Hello.
const Version = 1

// HandleConnection runs the shared inbound/outbound message loop for
// conn until it errors or the peer disconnects (spec §4.8: "inbound
// and outbound use the same message handler").
func (n *Node) HandleConnection(conn net.Conn, inbound bool) error {
	p := &Peer{Conn: conn, Inbound: inbound}

	tip := n.Chain.Tip()
	hello := Hello{NodeID: n.NodeID, Version: Version, TipHeight: tip.Header.Height, TipHash: tip.Hash}
	if err := p.Send(CmdHello, hello); err != nil {
		return err
	}

	n.Peers.Add(p)
	defer n.Peers.Remove(p)

	for {
		frame, err := ReadFrame(conn)
		if err != nil {
			return err
		}
		if err := n.dispatch(p, frame); err != nil {
			logger.NetworkLog.Warnf("peer %s: %s", p, err)
			if errs.Is(err, errs.ErrInvalidProofOfWork) || errs.Is(err, errs.ErrInvalidMerkleRoot) {
				return err
			}
			// InvalidTransaction and other recoverable kinds: drop the
			// message, keep the peer (spec §7's propagation policy).
		}
	}
}

func (n *Node) dispatch(p *Peer, f Frame) error {
	switch f.Command {
	case CmdHello:
		var msg Hello
		if err := f.Decode(&msg); err != nil {
			return err
		}
		return n.HandleHello(p, msg)
	case CmdGetBlockHeaders:
		var msg GetBlockHeaders
		if err := f.Decode(&msg); err != nil {
			return err
		}
		return n.handleGetBlockHeaders(p, msg)
	case CmdBlockHeaders:
		var msg BlockHeaders
		if err := f.Decode(&msg); err != nil {
			return err
		}
		return n.HandleBlockHeaders(p, msg)
	case CmdGetBlocks:
		var msg GetBlocks
		if err := f.Decode(&msg); err != nil {
			return err
		}
		return n.handleGetBlocks(p, msg)
	case CmdBlocks:
		var msg Blocks
		if err := f.Decode(&msg); err != nil {
			return err
		}
		return n.HandleBlocks(msg)
	case CmdNewBlock:
		var msg NewBlock
		if err := f.Decode(&msg); err != nil {
			return err
		}
		return n.HandleNewBlock(p, msg)
	case CmdNewTransaction:
		var msg NewTransaction
		if err := f.Decode(&msg); err != nil {
			return err
		}
		return n.HandleNewTransaction(p, msg)
	case CmdGetParent:
		var msg GetParent
		if err := f.Decode(&msg); err != nil {
			return err
		}
		return n.HandleGetParent(p, msg)
	default:
		return errs.New(errs.ErrNetworkError, "unknown command %d", f.Command)
	}
}

// handleGetBlockHeaders answers a header-range pull request with up to
// count headers starting at req.FromHeight.
func (n *Node) handleGetBlockHeaders(p *Peer, req GetBlockHeaders) error {
	count := req.Count
	if count > MaxHeadersPerBatch {
		count = MaxHeadersPerBatch
	}

	tip := n.Chain.Tip()
	headers := make([]chain.Header, 0, count)
	for height := req.FromHeight; height <= tip.Header.Height && uint32(len(headers)) < count; height++ {
		b, ok := n.Chain.BlockAtHeight(height)
		if !ok {
			break
		}
		headers = append(headers, b.Header)
	}
	return p.Send(CmdBlockHeaders, BlockHeaders{Headers: headers})
}

// handleGetBlocks answers a body-batch pull request, capped at
// MaxBlocksPerBatch hashes.
func (n *Node) handleGetBlocks(p *Peer, req GetBlocks) error {
	hashes := req.Hashes
	if len(hashes) > MaxBlocksPerBatch {
		hashes = hashes[:MaxBlocksPerBatch]
	}
	blocks := make([]WireBlock, 0, len(hashes))
	for _, h := range hashes {
		if b, ok := n.Chain.BlockByHash(h); ok {
			blocks = append(blocks, WrapBlock(b))
		}
	}
	return p.Send(CmdBlocks, Blocks{Blocks: blocks})
}
