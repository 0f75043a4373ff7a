package memtable

import "github.com/arclsm/lsmkv/internal/record"

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Iterator yields (key, Entry) pairs in ascending key order, tombstones
// included — the flush path relies on tombstones being yielded so they
// can be persisted into the new SSTable. It satisfies sstable.Source
// structurally without this package importing internal/sstable.
type Iterator struct {
	keys [][]byte
	m    *Memtable
	i    int
}

// NewIterator snapshots the current sorted key order and returns an
// Iterator over it. Mutating the Memtable after NewIterator returns does
// not affect the snapshot's key set, though it may still observe a
// concurrently-updated Entry for a given key — acceptable under the
// single-writer model, where flush always iterates a Memtable nothing
// else is mutating.
func (m *Memtable) NewIterator() *Iterator {
	keys := make([][]byte, len(m.sortedKeys))
	copy(keys, m.sortedKeys)
	return &Iterator{keys: keys, m: m}
}

// Next returns the next (key, Entry) pair, or ok=false once exhausted.
func (it *Iterator) Next() ([]byte, record.Entry, bool) {
	if it.i >= len(it.keys) {
		return nil, record.Entry{}, false
	}
	key := it.keys[it.i]
	it.i++
	s := it.m.find(key)
	if s == nil {
		// Key was removed from the snapshot's backing Memtable entirely —
		// cannot happen under the single-writer model (Clear would also
		// reset sortedKeys), but skip defensively rather than panic.
		return it.Next()
	}
	return key, s.entry, true
}
