// Package netp2p implements TrinityChain's gossip and sync wire
// protocol: length-prefixed CBOR framing, the headers-first sync
// handshake, block/transaction gossip, and a bounded orphan pool.
package netp2p

import "github.com/motorcyle-spec/TrinityChain/internal/chain"

// Command identifies the kind of message carried in a frame, mirrored
// after the teacher's MessageCommand enum so every wire message self-
// describes its payload type ahead of the CBOR body.
type Command uint8

// The message set of spec §4.8.
const (
	CmdHello Command = iota
	CmdGetBlockHeaders
	CmdBlockHeaders
	CmdGetBlocks
	CmdBlocks
	CmdNewBlock
	CmdNewTransaction
	CmdGetParent
)

var commandNames = map[Command]string{
	CmdHello:           "Hello",
	CmdGetBlockHeaders: "GetBlockHeaders",
	CmdBlockHeaders:    "BlockHeaders",
	CmdGetBlocks:       "GetBlocks",
	CmdBlocks:          "Blocks",
	CmdNewBlock:        "NewBlock",
	CmdNewTransaction:  "NewTransaction",
	CmdGetParent:       "GetParent",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Per spec §4.8: headers batches are capped at 2000, block/hash
// batches at 50.
const (
	MaxHeadersPerBatch = 2000
	MaxBlocksPerBatch  = 50
)

// Hello announces a node's identity and chain tip on connect.
type Hello struct {
	NodeID     [32]byte
	Version    uint32
	TipHeight  uint64
	TipHash    [32]byte
}

// GetBlockHeaders requests up to count headers starting at fromHeight.
type GetBlockHeaders struct {
	FromHeight uint64
	Count      uint32
}

// BlockHeaders carries at most MaxHeadersPerBatch headers.
type BlockHeaders struct {
	Headers []chain.Header
}

// GetBlocks requests full bodies for up to MaxBlocksPerBatch hashes.
type GetBlocks struct {
	Hashes [][32]byte
}

// Blocks carries at most MaxBlocksPerBatch full blocks, each wrapped
// in WireBlock so their transactions can cross CBOR (see envelope.go).
type Blocks struct {
	Blocks []WireBlock
}

// NewBlock gossips one freshly mined or received block, wrapped in
// WireBlock for the same reason Blocks is.
type NewBlock struct {
	Block WireBlock
}

// NewTransaction gossips one mempool-admitted transaction, wrapped in
// TransactionEnvelope so the closed transaction interface can cross the
// wire as a tagged payload (see envelope.go).
type NewTransaction struct {
	Transaction TransactionEnvelope
}

// GetParent requests recovery of an orphan block's missing ancestor.
type GetParent struct {
	Hash [32]byte
}
