package lsm

import "github.com/arclsm/lsmkv/internal/record"

// Put durably records key → value and makes it visible via Get. The
// order is fixed: the WAL frame is appended and fsynced before the
// MemTable is mutated, so a crash before the fsync returns leaves the
// MemTable untouched and the mutation simply never happened.
func (d *DB) Put(key, value []byte) error {
	d.seq++
	seq := d.seq

	d.memBytes += int64(len(key)+len(value)) + perMutationOverhead

	if err := d.w.Append(record.LogEntry{Op: record.OpPut, Seq: seq, Key: key, Value: value}); err != nil {
		return err
	}
	if err := d.w.Flush(); err != nil {
		return err
	}

	d.mem.Put(key, value, seq)

	if d.memBytes > d.maxBytes {
		return d.flush()
	}
	return nil
}

// Delete durably records a tombstone for key. Tombstones are not counted
// toward the MemTable size threshold, so Delete never triggers a flush by
// itself.
func (d *DB) Delete(key []byte) error {
	d.seq++
	seq := d.seq

	if err := d.w.Append(record.LogEntry{Op: record.OpDelete, Seq: seq, Key: key}); err != nil {
		return err
	}
	if err := d.w.Flush(); err != nil {
		return err
	}

	d.mem.Delete(key, seq)
	return nil
}

// Get resolves key against the MemTable first, then every SSTable newest
// to oldest within level 0, then level 1, and so on. The first Entry
// found wins, including a tombstone (which reports absent rather than
// falling through to an older file).
func (d *DB) Get(key []byte) ([]byte, bool, error) {
	if e, ok := d.mem.Lookup(key); ok {
		if e.Tombstone {
			return nil, false, nil
		}
		return e.Value, true, nil
	}

	for _, tables := range d.levels {
		for i := len(tables) - 1; i >= 0; i-- {
			e, ok, err := tables[i].Get(key)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				continue
			}
			if e.Tombstone {
				return nil, false, nil
			}
			return e.Value, true, nil
		}
	}
	return nil, false, nil
}
