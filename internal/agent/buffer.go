package agent

import (
	"sync"
	"time"

	"github.com/HerbHall/netwatch/pkg/models"
)

// Entry is one undelivered snapshot.
type Entry struct {
	ID          string            `json:"id"`
	CollectedAt time.Time         `json:"collected_at"`
	Submission  models.Submission `json:"submission"`
}

// Buffer is a bounded FIFO of undelivered snapshots. Pushing onto a full
// buffer evicts the oldest entry.
type Buffer interface {
	// Push appends e and reports whether the oldest entry was evicted.
	Push(e Entry) (evicted bool, err error)
	// Front returns the oldest entry without removing it.
	Front() (Entry, bool, error)
	// PopFront removes the oldest entry.
	PopFront() error
	Len() int
	Close() error
}

// RingBuffer is the in-memory Buffer.
type RingBuffer struct {
	mu      sync.Mutex
	entries []Entry
	head    int
	size    int
}

var _ Buffer = (*RingBuffer)(nil)

// NewRingBuffer creates a buffer holding at most capacity entries.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer{entries: make([]Entry, capacity)}
}

func (b *RingBuffer) Push(e Entry) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := b.size == len(b.entries)
	if evicted {
		b.entries[b.head] = Entry{}
		b.head = (b.head + 1) % len(b.entries)
		b.size--
	}
	b.entries[(b.head+b.size)%len(b.entries)] = e
	b.size++
	return evicted, nil
}

func (b *RingBuffer) Front() (Entry, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.size == 0 {
		return Entry{}, false, nil
	}
	return b.entries[b.head], true, nil
}

func (b *RingBuffer) PopFront() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.size == 0 {
		return nil
	}
	b.entries[b.head] = Entry{}
	b.head = (b.head + 1) % len(b.entries)
	b.size--
	return nil
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the maximum number of entries.
func (b *RingBuffer) Cap() int {
	return len(b.entries)
}

func (b *RingBuffer) Close() error { return nil }
