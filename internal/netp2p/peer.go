package netp2p

import (
	"net"
	"sync"
)

// Peer is one connected node: its wire connection plus the identity
// it announced in its Hello.
type Peer struct {
	Conn       net.Conn
	NodeID     [32]byte
	TipHeight  uint64
	TipHash    [32]byte
	Inbound    bool

	writeMu sync.Mutex
}

// Send writes a frame to the peer, serialized against concurrent
// writers so gossip fan-out and a direct response never interleave
// their bytes on the wire.
func (p *Peer) Send(cmd Command, payload interface{}) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return WriteFrame(p.Conn, cmd, payload)
}

func (p *Peer) String() string {
	return p.Conn.RemoteAddr().String()
}

// peerSet is a named map, mirroring the teacher's connectionSet: a
// small set of add/remove/get operations read as peer-set operations
// rather than bare map indexing at every call site.
type peerSet map[string]*Peer

func (s peerSet) add(p *Peer)                 { s[p.String()] = p }
func (s peerSet) remove(p *Peer)              { delete(s, p.String()) }
func (s peerSet) get(addr string) (*Peer, bool) { p, ok := s[addr]; return p, ok }

// PeerSet is the set of currently connected peers, guarded by its own
// reader-writer lock: writes (connect/disconnect) are rare, reads
// (broadcast fan-out) are frequent (spec §5). Add places no limit on
// how many peers the set holds.
type PeerSet struct {
	mu    sync.RWMutex
	peers peerSet
}

// NewPeerSet returns an empty PeerSet.
func NewPeerSet() *PeerSet {
	return &PeerSet{peers: make(peerSet)}
}

// Add registers a newly connected peer.
func (s *PeerSet) Add(p *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers.add(p)
}

// Remove deregisters a disconnected peer.
func (s *PeerSet) Remove(p *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers.remove(p)
}

// Len reports how many peers are currently connected.
func (s *PeerSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// Each calls fn for a snapshot of currently connected peers, used for
// gossip fan-out; fn runs without the peer-set lock held.
func (s *PeerSet) Each(fn func(*Peer)) {
	s.mu.RLock()
	snapshot := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		snapshot = append(snapshot, p)
	}
	s.mu.RUnlock()

	for _, p := range snapshot {
		fn(p)
	}
}

// Broadcast sends cmd/payload to every connected peer except skip (if
// non-nil). A peer whose write fails is left connected here;
// disconnection is the responsibility of that peer's own read loop.
func (s *PeerSet) Broadcast(cmd Command, payload interface{}, skip *Peer) {
	s.Each(func(p *Peer) {
		if p == skip {
			return
		}
		_ = p.Send(cmd, payload)
	})
}
