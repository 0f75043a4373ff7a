package memtable

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	m := New()
	_, existed := m.Put([]byte("a"), []byte("1"), 1)
	assert.False(t, existed)

	v, ok := m.Get([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
	assert.Equal(t, 1, m.Len())
}

func TestDeleteUnknownKeyInsertsTombstone(t *testing.T) {
	m := New()
	_, existed := m.Delete([]byte("ghost"), 1)
	assert.False(t, existed)

	_, ok := m.Get([]byte("ghost"))
	assert.False(t, ok)

	e, found := m.Lookup([]byte("ghost"))
	require.True(t, found)
	assert.True(t, e.Tombstone)
	assert.Equal(t, 0, m.Len())
}

func TestResurrectTombstonedKey(t *testing.T) {
	m := New()
	m.Put([]byte("a"), []byte("1"), 1)
	m.Delete([]byte("a"), 2)
	_, ok := m.Get([]byte("a"))
	assert.False(t, ok)

	m.Put([]byte("a"), []byte("2"), 3)
	v, ok := m.Get([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, "2", string(v))
	assert.Equal(t, 1, m.Len())
}

func TestOverwritePut(t *testing.T) {
	m := New()
	m.Put([]byte("a"), []byte("1"), 1)
	prev, existed := m.Put([]byte("a"), []byte("2"), 2)
	require.True(t, existed)
	assert.Equal(t, "1", string(prev.Value))

	v, _ := m.Get([]byte("a"))
	assert.Equal(t, "2", string(v))
}

func TestIterAscendingIncludesTombstones(t *testing.T) {
	m := New()
	m.Put([]byte("c"), []byte("3"), 1)
	m.Put([]byte("a"), []byte("1"), 2)
	m.Delete([]byte("b"), 3)

	it := m.NewIterator()
	var keys []string
	var tombs []bool
	for {
		k, e, ok := it.Next()
		if !ok {
			break
		}
		keys = append(keys, string(k))
		tombs = append(tombs, e.Tombstone)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, []bool{false, true, false}, tombs)
}

func TestClear(t *testing.T) {
	m := New()
	m.Put([]byte("a"), []byte("1"), 1)
	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.KeyCount())
	_, ok := m.Get([]byte("a"))
	assert.False(t, ok)
}

func TestCustomOrderControlsSortedIteration(t *testing.T) {
	reverse := func(a, b []byte) int { return bytes.Compare(b, a) }
	m := NewWithOrder(reverse)
	m.Put([]byte("a"), []byte("1"), 1)
	m.Put([]byte("b"), []byte("2"), 2)
	m.Put([]byte("c"), []byte("3"), 3)

	it := m.NewIterator()
	var keys []string
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		keys = append(keys, string(k))
	}
	assert.Equal(t, []string{"c", "b", "a"}, keys, "iteration must follow the injected order, not raw byte order")
}

func TestIndexEquivalence(t *testing.T) {
	m := New()
	for i, k := range []string{"d", "b", "a", "c"} {
		m.Put([]byte(k), []byte{byte(i)}, uint64(i))
	}
	m.Delete([]byte("b"), 10)

	it := m.NewIterator()
	var fromIter []string
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		fromIter = append(fromIter, string(k))
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, fromIter)

	for _, k := range fromIter {
		_, found := m.Lookup([]byte(k))
		assert.True(t, found, "hash index missing key present in sorted index: %s", k)
	}
}
