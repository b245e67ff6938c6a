package agent

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	spoolBucket      = "snapshots"
	spoolOpenTimeout = 2 * time.Second
)

// BoltSpool is a Buffer persisted in a bbolt file so that undelivered
// snapshots survive restarts. Keys are big-endian sequence numbers, so
// cursor order is insertion order.
type BoltSpool struct {
	mu       sync.Mutex
	db       *bolt.DB
	capacity int
	count    int
}

var _ Buffer = (*BoltSpool)(nil)

// OpenBoltSpool opens or creates the spool at path.
func OpenBoltSpool(path string, capacity int) (*BoltSpool, error) {
	if capacity <= 0 {
		capacity = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: spoolOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open spool: %w", err)
	}

	s := &BoltSpool{db: db, capacity: capacity}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(spoolBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		s.count = b.Stats().KeyN
		// A smaller capacity than last run trims the oldest entries.
		c := b.Cursor()
		for k, _ := c.First(); k != nil && s.count > capacity; k, _ = c.First() {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("trim spool: %w", err)
			}
			s.count--
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltSpool) Push(e Entry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted bool
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(spoolBucket))
		if s.count >= s.capacity {
			if k, _ := b.Cursor().First(); k != nil {
				if err := b.Delete(k); err != nil {
					return fmt.Errorf("evict oldest: %w", err)
				}
				evicted = true
			}
		}
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, payload)
	})
	if err != nil {
		return false, err
	}
	if evicted {
		s.count--
	}
	s.count++
	return evicted, nil
}

// Front returns the oldest decodable entry. Entries that fail to decode are
// discarded.
func (s *BoltSpool) Front() (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		e       Entry
		found   bool
		dropped int
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(spoolBucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.First() {
			e = Entry{}
			if err := json.Unmarshal(v, &e); err == nil {
				found = true
				return nil
			}
			if err := c.Delete(); err != nil {
				return fmt.Errorf("drop corrupt snapshot: %w", err)
			}
			dropped++
		}
		return nil
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("read oldest snapshot: %w", err)
	}
	s.count -= dropped
	return e, found, nil
}

func (s *BoltSpool) PopFront() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(spoolBucket))
		k, _ := b.Cursor().First()
		if k == nil {
			return nil
		}
		removed = true
		return b.Delete(k)
	})
	if err != nil {
		return fmt.Errorf("remove oldest snapshot: %w", err)
	}
	if removed {
		s.count--
	}
	return nil
}

func (s *BoltSpool) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *BoltSpool) Close() error {
	return s.db.Close()
}
