// Package badgerstore is a trie.Store backed by dgraph-io/badger, for
// tries that must survive process restarts. It keeps node and value
// entries in one database under two separate key prefixes, so a single
// Badger instance can back both without either bucket's keys ever
// colliding with the other's.
package badgerstore

import (
	"errors"

	badger "github.com/dgraph-io/badger/v2"
	"go.uber.org/zap"

	"github.com/optimalbrew/rskj"
)

// keySeparator divides the bucket prefix from the hash.
const keySeparator = byte(0xA6)

var (
	nodeBucket  = []byte("node")
	valueBucket = []byte("value")
)

// Store is a trie.Store backed by a single Badger database.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a Badger database at dir.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir))
	if err != nil {
		trie.Logger.Error("badgerstore: open failed", zap.String("dir", dir), zap.Error(err))
		return nil, err
	}
	trie.Logger.Debug("badgerstore: opened", zap.String("dir", dir))
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	err := s.db.Close()
	if err != nil {
		trie.Logger.Error("badgerstore: close failed", zap.Error(err))
	}
	return err
}

var _ trie.Store = (*Store)(nil)

func bucketKey(bucket []byte, hash [32]byte) []byte {
	key := make([]byte, 0, len(bucket)+1+32)
	key = append(key, bucket...)
	key = append(key, keySeparator)
	return append(key, hash[:]...)
}

func (s *Store) get(bucket []byte, hash [32]byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bucketKey(bucket, hash))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return out, err
}

func (s *Store) put(bucket []byte, hash [32]byte, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bucketKey(bucket, hash), data)
	})
	if err != nil {
		trie.Logger.Error("badgerstore: put failed", zap.ByteString("bucket", bucket), zap.Binary("hash", hash[:]), zap.Error(err))
	}
	return err
}

// RetrieveNode implements trie.NodeStore.
func (s *Store) RetrieveNode(hash [32]byte) ([]byte, error) {
	data, err := s.get(nodeBucket, hash)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &trie.MissingNodeError{Hash: hash}
	}
	return data, nil
}

// SaveNode implements trie.NodeStore.
func (s *Store) SaveNode(hash [32]byte, data []byte) error {
	return s.put(nodeBucket, hash, data)
}

// RetrieveValue implements trie.ValueStore.
func (s *Store) RetrieveValue(hash [32]byte) ([]byte, error) {
	data, err := s.get(valueBucket, hash)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &trie.MissingValueError{Hash: hash}
	}
	return data, nil
}

// SaveValue implements trie.ValueStore.
func (s *Store) SaveValue(hash [32]byte, data []byte) error {
	return s.put(valueBucket, hash, data)
}
