// Package store implements TrinityChain's persistence contract (spec
// §6): a durable, append-only BlockStore backed by LevelDB, grounded
// on the teacher's ffldb/ldb wrapper style.
package store

import (
	"encoding/binary"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/motorcyle-spec/TrinityChain/internal/chain"
	"github.com/motorcyle-spec/TrinityChain/internal/netp2p"
	"github.com/motorcyle-spec/TrinityChain/internal/txn"
)

// syncWrite forces every batch write to be durable before returning,
// matching spec §6's "writes are durable before append returns".
var syncWrite = &opt.WriteOptions{Sync: true}

// Key prefixes partition the single LevelDB keyspace between the
// height index and the metadata row, mirroring ffldb's practice of
// prefixing logically distinct key spaces within one physical store.
var (
	blockPrefix = []byte("b")
	metaKey     = []byte("meta")
)

// storedBlock is a Block's on-disk representation: transactions cross
// through the same tagged envelope the wire protocol uses, so the
// store never needs its own transaction encoding.
type storedBlock struct {
	Header       chain.Header
	Hash         [32]byte
	Transactions []netp2p.TransactionEnvelope
}

type storedMeta struct {
	Height uint64
	Tip    [32]byte
}

// BlockStore is the opaque persistence contract the chain engine
// rebuilds from at startup: append(block), load_all(), height(), tip().
type BlockStore struct {
	mu sync.Mutex
	db *leveldb.DB
}

// Open opens (creating if necessary) a BlockStore at path.
func Open(path string) (*BlockStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening block store at %s", path)
	}
	return &BlockStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *BlockStore) Close() error {
	return errors.Wrap(s.db.Close(), "closing block store")
}

func heightKey(height uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], height)
	return key
}

// Append durably writes b as the next block. Writes are durable
// before Append returns (spec §6): the batch is written with
// syncWrite, which makes goleveldb sync the write before returning.
func (s *BlockStore) Append(b chain.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := encodeBlock(b)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(heightKey(b.Header.Height), encoded)
	metaBytes, err := cbor.Marshal(storedMeta{Height: b.Header.Height, Tip: b.Hash})
	if err != nil {
		return errors.Wrap(err, "encoding block store metadata")
	}
	batch.Put(metaKey, metaBytes)

	if err := s.db.Write(batch, syncWrite); err != nil {
		return errors.Wrapf(err, "appending block at height %d", b.Header.Height)
	}
	return nil
}

// LoadAll replays every stored block in height order, the recovery
// path the chain engine uses to rebuild state at startup.
func (s *BlockStore) LoadAll() ([]chain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok, err := s.metaLocked()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	blocks := make([]chain.Block, 0, meta.Height+1)
	for height := uint64(0); height <= meta.Height; height++ {
		raw, err := s.db.Get(heightKey(height), nil)
		if err != nil {
			return nil, errors.Wrapf(err, "loading block at height %d", height)
		}
		b, err := decodeBlock(raw)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// Height returns the height of the most recently appended block, or
// an error if the store is empty.
func (s *BlockStore) Height() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok, err := s.metaLocked()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.New("block store is empty")
	}
	return meta.Height, nil
}

// Tip returns the hash of the most recently appended block, or an
// error if the store is empty.
func (s *BlockStore) Tip() ([32]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok, err := s.metaLocked()
	if err != nil {
		return [32]byte{}, err
	}
	if !ok {
		return [32]byte{}, errors.New("block store is empty")
	}
	return meta.Tip, nil
}

func (s *BlockStore) metaLocked() (storedMeta, bool, error) {
	raw, err := s.db.Get(metaKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return storedMeta{}, false, nil
	}
	if err != nil {
		return storedMeta{}, false, errors.Wrap(err, "reading block store metadata")
	}
	var meta storedMeta
	if err := cbor.Unmarshal(raw, &meta); err != nil {
		return storedMeta{}, false, errors.Wrap(err, "decoding block store metadata")
	}
	return meta, true, nil
}

func encodeBlock(b chain.Block) ([]byte, error) {
	envs := make([]netp2p.TransactionEnvelope, len(b.Transactions))
	for i, tx := range b.Transactions {
		envs[i] = netp2p.WrapTransaction(tx)
	}
	encoded, err := cbor.Marshal(storedBlock{Header: b.Header, Hash: b.Hash, Transactions: envs})
	if err != nil {
		return nil, errors.Wrapf(err, "encoding block at height %d", b.Header.Height)
	}
	return encoded, nil
}

func decodeBlock(raw []byte) (chain.Block, error) {
	var sb storedBlock
	if err := cbor.Unmarshal(raw, &sb); err != nil {
		return chain.Block{}, errors.Wrap(err, "decoding stored block")
	}
	transactions := make([]txn.Transaction, len(sb.Transactions))
	for i, env := range sb.Transactions {
		tx, err := env.Unwrap()
		if err != nil {
			return chain.Block{}, err
		}
		transactions[i] = tx
	}
	return chain.Block{Header: sb.Header, Hash: sb.Hash, Transactions: transactions}, nil
}
