// Package lsmkv is the public, generic facade over the storage engine:
// the user-facing binding that chooses key/value representations, which
// the core intentionally keeps external to itself. It composes
// internal/lsm.DB with a pair of codec.KeyCodec/ValueCodec strategies and
// adds the single top-level mutex a library's exported type needs to be
// safe for concurrent use.
package lsmkv

import (
	"bytes"
	"sync"

	"github.com/arclsm/lsmkv/internal/lsm"
	"github.com/arclsm/lsmkv/internal/logging"
	"github.com/arclsm/lsmkv/pkg/codec"
)

// Options configures Open. Dir and MaxMemtableSizeBytes are forwarded to
// internal/lsm.Open unchanged; Log defaults to a no-op logger.
type Options struct {
	Dir                  string
	MaxMemtableSizeBytes int64
	Log                  logging.Logger
}

// Engine is a generic, concurrency-safe handle onto one database
// directory. K and V are realized through the KeyCodec/ValueCodec
// supplied to Open.
type Engine[K any, V any] struct {
	mu   sync.Mutex
	db   *lsm.DB
	keys codec.KeyCodec[K]
	vals codec.ValueCodec[V]
}

// Open opens (or creates) the database at opts.Dir, using keys and vals
// to translate between K/V and the engine's byte-oriented core.
func Open[K any, V any](opts Options, keys codec.KeyCodec[K], vals codec.ValueCodec[V]) (*Engine[K, V], error) {
	db, err := lsm.Open(lsm.Options{
		Dir:                  opts.Dir,
		MaxMemtableSizeBytes: opts.MaxMemtableSizeBytes,
		Log:                  opts.Log,
		KeyOrder:             keyOrder(keys),
	})
	if err != nil {
		return nil, err
	}
	return &Engine[K, V]{db: db, keys: keys, vals: vals}, nil
}

// keyOrder lifts a KeyCodec's Compare, which operates on K, to a
// comparator over the encoded byte strings internal/lsm actually stores
// and sorts — so a codec whose Encode output is not itself
// byte-order-isomorphic with Compare (a reverse-order codec, a
// multi-field key, …) still gets the order it asked for, rather than
// silently falling back to raw byte order. Decode is expected to
// succeed on any byte string this Engine itself produced via Encode; the
// bytes.Compare fallback below only matters for keys from outside that
// contract.
func keyOrder[K any](keys codec.KeyCodec[K]) func(a, b []byte) int {
	return func(a, b []byte) int {
		ka, errA := keys.Decode(a)
		kb, errB := keys.Decode(b)
		if errA != nil || errB != nil {
			return bytes.Compare(a, b)
		}
		return keys.Compare(ka, kb)
	}
}

// Put durably records key → value.
func (e *Engine[K, V]) Put(key K, value V) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.Put(e.keys.Encode(key), e.vals.Encode(value))
}

// Delete durably records a tombstone for key.
func (e *Engine[K, V]) Delete(key K) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.Delete(e.keys.Encode(key))
}

// Get resolves key across the MemTable and all SSTables. ok=false means
// absent, whether never written or deleted — the zero value of V is
// returned in that case.
func (e *Engine[K, V]) Get(key K) (V, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var zero V
	raw, ok, err := e.db.Get(e.keys.Encode(key))
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := e.vals.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Close releases the underlying WAL handle.
func (e *Engine[K, V]) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.Close()
}
