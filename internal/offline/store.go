package offline

import (
	"sync"

	"github.com/dinein/ordersync/internal/logger"
	"github.com/syndtr/goleveldb/leveldb"
	"go.uber.org/zap"
)

// Store is the device-local key-value store shared by the durable queue and
// the "my orders" log. It survives restarts but not a storage wipe.
//
// When the underlying storage cannot be opened the store degrades to an
// empty, non-persisting one: reads see nothing, writes are dropped. Losing
// queued data is acceptable, breaking the submission path is not.
type Store struct {
	mu sync.Mutex
	db *leveldb.DB
}

func OpenStore(path string) *Store {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		logger.Log.Warn("local store unavailable, running without persistence",
			zap.String("path", path),
			zap.Error(err),
		)
		return &Store{}
	}

	return &Store{db: db}
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// put stores a single key. Each call is atomic on its own; callers must not
// assume atomicity across calls.
func (s *Store) put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return
	}
	if err := s.db.Put([]byte(key), value, nil); err != nil {
		logger.Log.Warn("failed to write local store entry", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) delete(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return
	}
	batch := new(leveldb.Batch)
	for _, key := range keys {
		batch.Delete([]byte(key))
	}
	if err := s.db.Write(batch, nil); err != nil {
		logger.Log.Warn("failed to delete local store entries", zap.Error(err))
	}
}

type storedEntry struct {
	key   string
	value []byte
}

// scan returns entries under the prefix in key order.
func (s *Store) scan(prefix string) []storedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	var entries []storedEntry
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	for ok := iter.Seek([]byte(prefix)); ok; ok = iter.Next() {
		key := string(iter.Key())
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			break
		}
		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())
		entries = append(entries, storedEntry{key: key, value: value})
	}

	if err := iter.Error(); err != nil {
		logger.Log.Warn("failed to scan local store", zap.String("prefix", prefix), zap.Error(err))
		return nil
	}

	return entries
}
