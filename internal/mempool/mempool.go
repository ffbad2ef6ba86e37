// Package mempool implements TrinityChain's pending-transaction pool:
// admission with stateless-then-stateful validation, bounded
// eviction, fee-priority selection, and post-block pruning.
package mempool

import (
	"bytes"
	"sort"
	"sync"

	"github.com/motorcyle-spec/TrinityChain/internal/errs"
	"github.com/motorcyle-spec/TrinityChain/internal/geometry"
	"github.com/motorcyle-spec/TrinityChain/internal/logger"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
	"github.com/pkg/errors"
)

// Bounds exposed to operators (spec §6).
const (
	MaxTransactions  = 10_000
	MaxPerAddress    = 100
	MaxTxSizeBytes   = 100 * 1024
	evictionLoadHigh = 0.9
	evictionBatchDen = 10
)

// StateView is the read-only slice of chain state the mempool needs
// to admit and revalidate transactions, satisfied by
// *state.TriangleState.
type StateView interface {
	Owner(id [32]byte) (owner string, value float64, found bool)
}

// entry is one admitted transaction plus the bookkeeping the priority
// and eviction paths need.
type entry struct {
	hash    [32]byte
	tx      txn.Transaction
	address string
	fee     float64
	size    int
}

// Mempool holds transactions that have passed admission but are not
// yet included in a block.
type Mempool struct {
	mu       sync.RWMutex
	byHash   map[[32]byte]*entry
	byAddr   map[string]map[[32]byte]struct{}
	verify   func(publicKey, message, signature []byte) bool
}

// New returns an empty Mempool. verify is the signature-verification
// callback threaded through to each transaction's ValidateStateless.
func New(verify func(publicKey, message, signature []byte) bool) *Mempool {
	return &Mempool{
		byHash: make(map[[32]byte]*entry),
		byAddr: make(map[string]map[[32]byte]struct{}),
		verify: verify,
	}
}

// Size returns the number of transactions currently pooled.
func (m *Mempool) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byHash)
}

// SizeOf returns how many pooled transactions are attributed to address.
func (m *Mempool) SizeOf(address string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byAddr[address])
}

func feeAndAddress(tx txn.Transaction) (fee float64, address string) {
	return txn.Fee(tx), txn.AttributedAddress(tx)
}

func encodedSize(tx txn.Transaction) int {
	return len(txn.SignableBytes(tx))
}

// Add runs stateless then stateful admission and, on success, stores
// tx keyed by its hash. It returns the transaction's hash.
func (m *Mempool) Add(tx txn.Transaction, view StateView) ([32]byte, error) {
	if tx.Kind() == txn.KindCoinbase {
		var zero [32]byte
		return zero, errs.New(errs.ErrInvalidTransaction, "coinbase transactions are not mempool-eligible")
	}

	size := encodedSize(tx)
	if size > MaxTxSizeBytes {
		var zero [32]byte
		return zero, errs.New(errs.ErrInvalidTransaction, "transaction size %d exceeds max %d bytes", size, MaxTxSizeBytes)
	}

	if err := validateStateless(tx, m.verify); err != nil {
		var zero [32]byte
		return zero, err
	}

	hash := txn.Hash(tx)
	fee, address := feeAndAddress(tx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byHash[hash]; exists {
		return hash, errs.New(errs.ErrInvalidTransaction, "transaction %x already pooled", hash)
	}

	if err := validateStateful(tx, view); err != nil {
		return hash, err
	}

	if len(m.byAddr[address]) >= MaxPerAddress {
		return hash, errs.New(errs.ErrInvalidTransaction, "address %s already has %d pooled transactions", address, MaxPerAddress)
	}

	if len(m.byHash) >= int(evictionLoadHigh*MaxTransactions) {
		m.evictLocked()
		if lowest := m.lowestFeeLocked(); lowest != nil && fee < lowest.fee {
			return hash, errs.New(errs.ErrInvalidTransaction, "fee %v too low to enter a near-full mempool", fee)
		}
	}

	e := &entry{hash: hash, tx: tx, address: address, fee: fee, size: size}
	m.byHash[hash] = e
	if m.byAddr[address] == nil {
		m.byAddr[address] = make(map[[32]byte]struct{})
	}
	m.byAddr[address][hash] = struct{}{}

	logger.MempoolLog.Debugf("admitted %s %x, fee %v, pool size %d", tx.Kind(), hash, fee, len(m.byHash))
	return hash, nil
}

// evictLocked removes the lowest-fee 10% of the pool in one batch,
// found via quickselectByFeeLocked rather than a full sort since only
// the boundary between the kept and evicted entries matters. Callers
// must hold m.mu for writing.
func (m *Mempool) evictLocked() {
	n := len(m.byHash) / evictionBatchDen
	if n == 0 {
		return
	}
	entries := m.entriesLocked()
	keep := len(entries) - n
	quickselectByFeeLocked(entries, keep)
	for _, e := range entries[keep:] {
		m.removeLocked(e.hash)
	}
	logger.MempoolLog.Infof("evicted %d lowest-fee transactions, pool size now %d", n, len(m.byHash))
}

func (m *Mempool) lowestFeeLocked() *entry {
	var lowest *entry
	for _, e := range m.byHash {
		if lowest == nil || e.fee < lowest.fee {
			lowest = e
		}
	}
	return lowest
}

// entriesLocked returns every pooled entry in unspecified order.
func (m *Mempool) entriesLocked() []*entry {
	entries := make([]*entry, 0, len(m.byHash))
	for _, e := range m.byHash {
		entries = append(entries, e)
	}
	return entries
}

// quickselectByFeeLocked partitions entries in place, Lomuto-style,
// around the k-th order statistic under fee priority: afterward
// entries[:k] holds the k highest-priority entries (in unspecified
// order among themselves) and entries[k:] holds the rest. This is the
// partial-sort building block both SelectTop (top k) and evictLocked
// (bottom n, via k = len-n) select against, each in expected O(len)
// rather than paying for a full O(len log len) sort neither needs.
func quickselectByFeeLocked(entries []*entry, k int) {
	if k <= 0 || k >= len(entries) {
		return
	}
	lo, hi := 0, len(entries)-1
	for lo < hi {
		p := partitionByFeeLocked(entries, lo, hi)
		switch {
		case p == k:
			return
		case p < k:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

// partitionByFeeLocked runs a Lomuto partition of entries[lo:hi+1]
// around entries[hi] as pivot, moving every entry with strictly
// higher fee priority to the left, and returns the pivot's final
// index.
func partitionByFeeLocked(entries []*entry, lo, hi int) int {
	pivot := entries[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if lessByFeePriority(entries[j], pivot) {
			entries[i], entries[j] = entries[j], entries[i]
			i++
		}
	}
	entries[i], entries[hi] = entries[hi], entries[i]
	return i
}

// lessByFeePriority orders by fee descending then, to break ties
// deterministically, by nonce ascending then hash ascending.
func lessByFeePriority(a, b *entry) bool {
	if a.fee != b.fee {
		return a.fee > b.fee
	}
	if a.tx.Nonce() != b.tx.Nonce() {
		return a.tx.Nonce() < b.tx.Nonce()
	}
	return bytes.Compare(a.hash[:], b.hash[:]) < 0
}

func (m *Mempool) removeLocked(hash [32]byte) {
	e, ok := m.byHash[hash]
	if !ok {
		return
	}
	delete(m.byHash, hash)
	if set, ok := m.byAddr[e.address]; ok {
		delete(set, hash)
		if len(set) == 0 {
			delete(m.byAddr, e.address)
		}
	}
}

// SelectTop returns up to k pooled transactions ordered by descending
// fee (ties broken by nonce then hash, ascending), via a
// quickselect-style partial sort.
func (m *Mempool) SelectTop(k int) []txn.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.entriesLocked()
	if k > len(entries) {
		k = len(entries)
	}
	quickselectByFeeLocked(entries, k)
	top := entries[:k]
	sort.Slice(top, func(i, j int) bool {
		return lessByFeePriority(top[i], top[j])
	})

	out := make([]txn.Transaction, k)
	for i, e := range top {
		out[i] = e.tx
	}
	return out
}

// Remove deletes every transaction in hashes from the pool, matching
// the post-block pruning step.
func (m *Mempool) Remove(hashes [][32]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range hashes {
		m.removeLocked(h)
	}
}

// RevalidateAgainst drops every pooled transaction whose stateful
// precondition no longer holds against view, used after a reorg.
func (m *Mempool) RevalidateAgainst(view StateView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, e := range m.byHash {
		if err := validateStateful(e.tx, view); err != nil {
			delete(m.byHash, hash)
			if set, ok := m.byAddr[e.address]; ok {
				delete(set, hash)
				if len(set) == 0 {
					delete(m.byAddr, e.address)
				}
			}
		}
	}
}

// Reoffer attempts to re-admit every transaction in txs (disconnected
// main-chain transactions after a reorg); failures are dropped
// silently, matching spec §4.4's best-effort re-offer.
func (m *Mempool) Reoffer(txs []txn.Transaction, view StateView) {
	for _, tx := range txs {
		if _, err := m.Add(tx, view); err != nil {
			logger.MempoolLog.Debugf("dropped disconnected transaction on reoffer: %s", err)
		}
	}
}

func validateStateless(tx txn.Transaction, verify func(publicKey, message, signature []byte) bool) error {
	switch t := tx.(type) {
	case txn.Transfer:
		return wrapRule(t.ValidateStateless(verify))
	case txn.Subdivision:
		return wrapRule(t.ValidateStateless(verify))
	default:
		return errs.New(errs.ErrInvalidTransaction, "unsupported transaction kind %s", tx.Kind())
	}
}

func validateStateful(tx txn.Transaction, view StateView) error {
	switch t := tx.(type) {
	case txn.Transfer:
		owner, value, found := view.Owner(t.InputHash)
		if !found {
			return errs.New(errs.ErrTriangleNotFound, "transfer input %x not found", t.InputHash)
		}
		if owner != t.Sender {
			return errs.New(errs.ErrInvalidTransaction, "transfer sender %s does not own input %x", t.Sender, t.InputHash)
		}
		if value-t.FeeArea < geometry.Tolerance {
			return errs.New(errs.ErrInvalidTransaction, "transfer value %v insufficient for fee %v", value, t.FeeArea)
		}
		return nil
	case txn.Subdivision:
		owner, _, found := view.Owner(t.ParentHash)
		if !found {
			return errs.New(errs.ErrTriangleNotFound, "subdivision parent %x not found", t.ParentHash)
		}
		if owner != t.OwnerAddress {
			return errs.New(errs.ErrInvalidTransaction, "subdivision owner %s does not own parent %x", t.OwnerAddress, t.ParentHash)
		}
		return nil
	default:
		return errs.New(errs.ErrInvalidTransaction, "unsupported transaction kind %s", tx.Kind())
	}
}

func wrapRule(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, "stateless validation failed")
}
