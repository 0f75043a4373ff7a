// Package memtable implements the in-memory write buffer: a dual-indexed
// map from key to Entry, sorted for deterministic flush order and hashed
// for O(1) point lookup. Deletes are modeled as tombstone Entries, never
// as removals — a tombstone must survive to flush time so it can shadow
// older SSTables.
package memtable

import (
	"bytes"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/arclsm/lsmkv/internal/record"
)

type slot struct {
	key   []byte
	entry record.Entry
}

// Memtable is not safe for concurrent use; the engine's single-writer
// model serializes access at the DB layer.
type Memtable struct {
	hash       map[uint64][]*slot
	sortedKeys [][]byte // ascending per order, deduplicated — kept in sync with hash
	liveCount  int      // keys whose current Entry is not a tombstone
	order      func(a, b []byte) int
}

// New returns an empty Memtable ordered by raw byte comparison.
func New() *Memtable {
	return NewWithOrder(bytes.Compare)
}

// NewWithOrder returns an empty Memtable whose sorted index (and
// therefore the ascending order an Iterator yields, and the order an
// SSTable flushed from it is written in) follows order instead of raw
// byte comparison. order must agree with whatever order the caller's
// SSTable readers over the same directory were opened with — it is the
// caller's encoded-key comparator, injected all the way down from
// pkg/codec.KeyCodec.Compare (see internal/lsm.Options.KeyOrder).
func NewWithOrder(order func(a, b []byte) int) *Memtable {
	return &Memtable{hash: make(map[uint64][]*slot), order: order}
}

func (m *Memtable) find(key []byte) *slot {
	h := xxhash.Sum64(key)
	for _, s := range m.hash[h] {
		if bytes.Equal(s.key, key) {
			return s
		}
	}
	return nil
}

// upsert installs e for key in both indexes and returns the prior Entry,
// if any, for observability/testing.
func (m *Memtable) upsert(key []byte, e record.Entry) (record.Entry, bool) {
	h := xxhash.Sum64(key)
	bucket := m.hash[h]
	for _, s := range bucket {
		if bytes.Equal(s.key, key) {
			prev := s.entry
			switch {
			case prev.Tombstone && !e.Tombstone:
				m.liveCount++
			case !prev.Tombstone && e.Tombstone:
				m.liveCount--
			}
			s.entry = e
			return prev, true
		}
	}

	keyCopy := cloneBytes(key)
	m.hash[h] = append(bucket, &slot{key: keyCopy, entry: e})
	m.insertSorted(keyCopy)
	if !e.Tombstone {
		m.liveCount++
	}
	return record.Entry{}, false
}

func (m *Memtable) insertSorted(key []byte) {
	i := sort.Search(len(m.sortedKeys), func(i int) bool {
		return m.order(m.sortedKeys[i], key) >= 0
	})
	m.sortedKeys = append(m.sortedKeys, nil)
	copy(m.sortedKeys[i+1:], m.sortedKeys[i:])
	m.sortedKeys[i] = key
}

// Put upserts (key → Entry{Value: value, Tombstone: false}). It returns
// the prior Entry for key, if one existed.
func (m *Memtable) Put(key, value []byte, seq uint64) (record.Entry, bool) {
	return m.upsert(key, record.Entry{Value: cloneBytes(value), Seq: seq})
}

// Delete upserts a tombstone Entry for key — even if key was never seen
// before, which is required so a later SSTable read correctly sees the
// deletion rather than falling through to an older file. It returns the
// prior Entry for key, if one existed.
func (m *Memtable) Delete(key []byte, seq uint64) (record.Entry, bool) {
	return m.upsert(key, record.Entry{Tombstone: true, Seq: seq})
}

// Get returns the value for key, or ok=false if key is absent or its
// current Entry is a tombstone. Tombstones are invisible through this
// surface — callers needing to distinguish "absent" from "deleted" (the
// DB orchestrator's read path) use Lookup instead.
func (m *Memtable) Get(key []byte) ([]byte, bool) {
	s := m.find(key)
	if s == nil || s.entry.Tombstone {
		return nil, false
	}
	return cloneBytes(s.entry.Value), true
}

// Lookup returns the raw Entry for key (tombstone included) and whether
// key is present at all. The DB orchestrator uses this to know that a
// tombstone must shadow older SSTables rather than being treated as
// "keep looking".
func (m *Memtable) Lookup(key []byte) (record.Entry, bool) {
	s := m.find(key)
	if s == nil {
		return record.Entry{}, false
	}
	return s.entry, true
}

// Clear empties both indexes. Called only after a successful SSTable
// flush.
func (m *Memtable) Clear() {
	m.hash = make(map[uint64][]*slot)
	m.sortedKeys = nil
	m.liveCount = 0
}

// Len returns the count of keys whose current Entry is not a tombstone.
func (m *Memtable) Len() int { return m.liveCount }

// KeyCount returns the total number of distinct keys tracked, including
// tombstoned ones.
func (m *Memtable) KeyCount() int { return len(m.sortedKeys) }
