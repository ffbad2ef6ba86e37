package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/google/uuid"

	"github.com/motorcyle-spec/TrinityChain/internal/chain"
	"github.com/motorcyle-spec/TrinityChain/internal/errs"
	"github.com/motorcyle-spec/TrinityChain/internal/logger"
	"github.com/motorcyle-spec/TrinityChain/internal/mempool"
	"github.com/motorcyle-spec/TrinityChain/internal/netp2p"
	"github.com/motorcyle-spec/TrinityChain/internal/signer"
	"github.com/motorcyle-spec/TrinityChain/internal/store"
)

// trinitynode wraps every long-lived service the process runs, mirroring
// the teacher's kaspad wrapper struct.
type trinitynode struct {
	cfg     *config
	store   *store.BlockStore
	chain   *chain.Chain
	mempool *mempool.Mempool
	node    *netp2p.Node

	listener net.Listener
	stop     *stopper
}

type stopper struct {
	quit chan struct{}
}

func newStopper() *stopper { return &stopper{quit: make(chan struct{})} }
func (s *stopper) stop()   { close(s.quit) }

func main() {
	defer handlePanic()

	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogRotator(
		filepath.Join(cfg.DataDir, "logs", "trinitynode.log"),
		filepath.Join(cfg.DataDir, "logs", "trinitynode_err.log"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %s\n", err)
		os.Exit(1)
	}
	if err := logger.ParseAndSetLevels(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting log level: %s\n", err)
		os.Exit(1)
	}

	node, err := newTrinityNode(cfg)
	if err != nil {
		logger.NodeLog.Criticalf("failed to initialize node: %s", err)
		os.Exit(1)
	}

	if err := node.start(); err != nil {
		logger.NodeLog.Criticalf("failed to start node: %s", err)
		os.Exit(1)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	node.shutdown()
}

func handlePanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n%s\n", r, debug.Stack())
	}
}

// newTrinityNode wires the block store, chain engine, mempool and
// network node together. Use start to begin accepting connections.
func newTrinityNode(cfg *config) (*trinitynode, error) {
	bs, err := store.Open(filepath.Join(cfg.DataDir, "blocks"))
	if err != nil {
		return nil, err
	}

	var sign signer.Ed25519Signer
	pool := mempool.New(sign.Verify)

	blocks, err := bs.LoadAll()
	if err != nil {
		bs.Close()
		return nil, err
	}

	var c *chain.Chain
	if len(blocks) == 0 {
		c = chain.New(sign.Verify, pool)
		genesis := chain.GenesisBlock()
		if err := bs.Append(genesis); err != nil {
			bs.Close()
			return nil, err
		}
	} else {
		c, err = chain.RebuildFromBlocks(blocks, sign.Verify, pool)
		if err != nil {
			bs.Close()
			return nil, err
		}
	}

	node := &netp2p.Node{
		Chain:   c,
		Mempool: pool,
		Peers:   netp2p.NewPeerSet(),
		Orphans: netp2p.NewOrphanPool(),
		NodeID:  nodeID(),
	}
	node.OnBlockApplied = func(b chain.Block) {
		if err := bs.Append(b); err != nil {
			logger.StoreLog.Errorf("failed to persist block %x at height %d: %s", b.Hash, b.Header.Height, err)
		}
	}

	return &trinitynode{
		cfg:     cfg,
		store:   bs,
		chain:   c,
		mempool: pool,
		node:    node,
		stop:    newStopper(),
	}, nil
}

// nodeID generates a random per-process peer identity. It is not
// persisted: a restart is a new identity, which is fine since nothing
// in the protocol keys long-lived state off it.
func nodeID() [32]byte {
	var id [32]byte
	u := uuid.New()
	copy(id[:], u[:])
	return id
}

// start opens the listening socket, dials configured peers, and
// starts the optional mining loop.
func (n *trinitynode) start() error {
	ln, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return errs.New(errs.ErrNetworkError, "listening on %s: %s", n.cfg.ListenAddr, err)
	}
	n.listener = ln
	logger.NodeLog.Infof("listening for peers on %s", n.cfg.ListenAddr)

	go n.acceptLoop()

	for _, addr := range n.cfg.ConnectPeers {
		go n.dialPeer(addr)
	}

	if n.cfg.Mine {
		go n.mineLoop()
	}

	return nil
}

func (n *trinitynode) acceptLoop() {
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			select {
			case <-n.stop.quit:
				return
			default:
				logger.NetworkLog.Errorf("accept error: %s", err)
				return
			}
		}
		go func() {
			if err := n.node.HandleConnection(conn, true); err != nil {
				logger.NetworkLog.Debugf("inbound peer %s disconnected: %s", conn.RemoteAddr(), err)
			}
		}()
	}
}

func (n *trinitynode) dialPeer(addr string) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		logger.NetworkLog.Warnf("failed to connect to %s: %s", addr, err)
		return
	}
	if err := n.node.HandleConnection(conn, false); err != nil {
		logger.NetworkLog.Debugf("outbound peer %s disconnected: %s", addr, err)
	}
}

// shutdown gracefully closes the listener and the block store.
func (n *trinitynode) shutdown() {
	logger.NodeLog.Warnf("trinitynode shutting down")
	n.stop.stop()
	if n.listener != nil {
		n.listener.Close()
	}
	if err := n.store.Close(); err != nil {
		logger.StoreLog.Errorf("error closing block store: %s", err)
	}
}
