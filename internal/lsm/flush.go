package lsm

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/arclsm/lsmkv/internal/dberr"
	"github.com/arclsm/lsmkv/internal/sstable"
)

func defaultNowNanos() int64 { return time.Now().UnixNano() }

// flush seals the current MemTable into a new level-0 SSTable, clears the
// MemTable, and truncates the WAL — in that order, so a crash between the
// new SSTable becoming durable and the WAL truncation is recoverable: the
// replayed WAL produces MemTable state that shadows the now-superseded
// SSTable on the next open.
func (d *DB) flush() error {
	path, r, err := d.createLevel0Table()
	if err != nil {
		return err
	}

	if len(d.levels) == 0 {
		d.levels = make([][]*sstable.Reader, 1)
	}
	d.levels[0] = append(d.levels[0], r)
	sort.Slice(d.levels[0], func(i, j int) bool {
		return d.levels[0][i].Path() < d.levels[0][j].Path()
	})

	d.mem.Clear()
	d.memBytes = 0

	if err := d.w.Clear(); err != nil {
		return err
	}

	d.log.Infow("lsm: flushed memtable to sstable", "path", path, "dir", d.dir)
	return nil
}

// createLevel0Table writes the current MemTable to a new
// "L0-<20-digit-ns>.sst" file, retrying with a freshly minted timestamp on
// a path collision (spec §8 scenario 6).
func (d *DB) createLevel0Table() (string, *sstable.Reader, error) {
	nowNanos := d.nowNanos
	if nowNanos == nil {
		nowNanos = defaultNowNanos
	}
	for {
		path := filepath.Join(d.dir, fmt.Sprintf("L0-%020d.sst", nowNanos()))
		w, err := sstable.NewWriter(path)
		if err != nil {
			if dberr.IsAlreadyExists(err) {
				continue
			}
			return "", nil, err
		}
		if err := w.WriteFromMemtable(d.mem.NewIterator()); err != nil {
			return "", nil, err
		}
		r, err := sstable.NewReaderWithOrder(path, d.order)
		if err != nil {
			return "", nil, err
		}
		return path, r, nil
	}
}
