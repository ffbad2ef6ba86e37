package netp2p

import (
	"sync"

	"github.com/motorcyle-spec/TrinityChain/internal/chain"
)

// MaxOrphans bounds the orphan pool; beyond this the oldest entry is
// evicted FIFO (spec §4.8, §6).
const MaxOrphans = 256

// OrphanPool queues structurally valid blocks whose parent is not yet
// known, keyed by the missing parent hash they're waiting on, so that
// once the parent arrives its waiting children can be replayed.
type OrphanPool struct {
	mu      sync.Mutex
	order   [][32]byte // block hashes in arrival order, for FIFO eviction
	byHash  map[[32]byte]chain.Block
	waiting map[[32]byte][][32]byte // missing parent hash -> waiting child hashes
}

// NewOrphanPool returns an empty OrphanPool.
func NewOrphanPool() *OrphanPool {
	return &OrphanPool{
		byHash:  make(map[[32]byte]chain.Block),
		waiting: make(map[[32]byte][][32]byte),
	}
}

// Add queues b as an orphan waiting on its declared previous_hash,
// evicting the oldest queued orphan if the pool is already full.
func (p *OrphanPool) Add(b chain.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byHash[b.Hash]; exists {
		return
	}
	if len(p.order) >= MaxOrphans {
		oldest := p.order[0]
		p.order = p.order[1:]
		if old, ok := p.byHash[oldest]; ok {
			delete(p.byHash, oldest)
			p.removeFromWaitingLocked(old.Header.PreviousHash, oldest)
		}
	}

	p.order = append(p.order, b.Hash)
	p.byHash[b.Hash] = b
	p.waiting[b.Header.PreviousHash] = append(p.waiting[b.Header.PreviousHash], b.Hash)
}

func (p *OrphanPool) removeFromWaitingLocked(parent, child [32]byte) {
	children := p.waiting[parent]
	for i, h := range children {
		if h == child {
			children = append(children[:i], children[i+1:]...)
			break
		}
	}
	if len(children) == 0 {
		delete(p.waiting, parent)
	} else {
		p.waiting[parent] = children
	}
}

// Resolve returns every orphan directly waiting on parentHash and
// removes them from the pool. Callers are expected to attempt to
// apply each returned block and, on further success, call Resolve
// again with its hash to drain any orphans chained behind it.
func (p *OrphanPool) Resolve(parentHash [32]byte) []chain.Block {
	p.mu.Lock()
	defer p.mu.Unlock()

	hashes := p.waiting[parentHash]
	if len(hashes) == 0 {
		return nil
	}
	delete(p.waiting, parentHash)

	out := make([]chain.Block, 0, len(hashes))
	for _, h := range hashes {
		if b, ok := p.byHash[h]; ok {
			out = append(out, b)
			delete(p.byHash, h)
		}
		for i, oh := range p.order {
			if oh == h {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
	}
	return out
}

// Len reports how many orphans are currently queued.
func (p *OrphanPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}
