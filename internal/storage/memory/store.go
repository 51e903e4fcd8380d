package memory

import (
	"time"

	"github.com/yndnr/respkv/pkg/cmap"
)

// NoExpiry marks an entry that never expires.
const NoExpiry int64 = 0

// Entry is the current state of one key. Entries are replaced whole and
// never modified in place.
type Entry struct {
	Value []byte
	// ExpiresAt is the absolute expiry in Unix milliseconds, or NoExpiry.
	ExpiresAt int64
}

// HasExpiry reports whether the entry carries an expiry time.
func (e Entry) HasExpiry() bool {
	return e.ExpiresAt != NoExpiry
}

// ExpiredAt reports whether the entry is logically absent at nowMs.
// An entry expires at its expiry instant, not after it.
func (e Entry) ExpiredAt(nowMs int64) bool {
	return e.HasExpiry() && e.ExpiresAt <= nowMs
}

// Clock supplies the current time in Unix milliseconds.
type Clock interface {
	NowMs() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) NowMs() int64 {
	return time.Now().UnixMilli()
}

// Store is a concurrent mapping from key to Entry, shared by all
// connections. Every operation holds the lock of the key's shard for a
// single map access only.
type Store struct {
	entries *cmap.Map[Entry]
}

// Option configures the Store.
type Option func(*storeOptions)

type storeOptions struct {
	shards int
}

// WithShards sets the number of lock shards. It must be a power of two.
func WithShards(n int) Option {
	return func(o *storeOptions) {
		o.shards = n
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := storeOptions{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{
		entries: cmap.NewWithShards[Entry](o.shards),
	}
}

// Get returns the entry stored under key, expired or not.
// The returned Value must not be modified.
func (s *Store) Get(key string) (Entry, bool) {
	return s.entries.Get(key)
}

// Set creates or replaces the entry for key. value is copied.
func (s *Store) Set(key string, value []byte, expiresAt int64) {
	buf := make([]byte, len(value))
	copy(buf, value)
	s.entries.Set(key, Entry{Value: buf, ExpiresAt: expiresAt})
}

// Len returns the number of physically stored entries, including expired
// entries that have not been reclaimed yet.
func (s *Store) Len() int {
	return s.entries.Len()
}
