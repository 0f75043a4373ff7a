// Package lsm implements the DB orchestrator: it owns the database
// directory, sequences every mutation through the write-ahead log and the
// MemTable in that order, resolves reads across the MemTable and all
// levels of SSTables, and triggers a flush once the MemTable crosses its
// size threshold. It is not safe for concurrent use — callers that need
// that push a mutex up to their own boundary (see pkg/lsmkv.Engine).
package lsm

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/arclsm/lsmkv/internal/dberr"
	"github.com/arclsm/lsmkv/internal/logging"
	"github.com/arclsm/lsmkv/internal/memtable"
	"github.com/arclsm/lsmkv/internal/record"
	"github.com/arclsm/lsmkv/internal/sstable"
	"github.com/arclsm/lsmkv/internal/wal"
)

// perMutationOverhead approximates the bookkeeping cost of one slot in the
// MemTable's dual index. It is added to the raw key+value byte count of
// every put when accounting toward MaxMemtableSizeBytes.
const perMutationOverhead = 24

const walFileName = "wal.log"

// Options configures Open.
type Options struct {
	// Dir is the database directory. Created if absent. Defaults to "."
	// if empty.
	Dir string

	// MaxMemtableSizeBytes is the soft threshold of accounted in-memory
	// footprint that triggers a flush on the next put that crosses it.
	MaxMemtableSizeBytes int64

	// Log receives structured diagnostics for open/recover/flush/replay.
	// Defaults to a no-op logger.
	Log logging.Logger

	// KeyOrder compares two already-encoded keys and establishes the
	// total order the MemTable's sorted index and every SSTable's
	// ascending data section are built in. Defaults to bytes.Compare.
	// A caller that injects a different order (via
	// pkg/lsmkv, from a pkg/codec.KeyCodec.Compare) must use that same
	// order consistently for the life of the directory: reopening a
	// database with a different KeyOrder than it was written under
	// produces undefined lookup results.
	KeyOrder func(a, b []byte) int
}

// DB is one open engine instance over one directory.
type DB struct {
	dir string
	log logging.Logger

	mem      *memtable.Memtable
	memBytes int64
	maxBytes int64
	seq      uint64

	w *wal.WAL

	// levels[i] holds level i's SSTable readers, sorted ascending by
	// path — lexicographic order equals creation order within a level
	// (see the 20-digit nanosecond filenames minted in flush.go).
	levels [][]*sstable.Reader

	// nowNanos returns the wall-clock nanosecond timestamp used to mint
	// L0 filenames. Defaults to time.Now().UnixNano(); tests override it
	// to force the path collision exercised in spec §8 scenario 6.
	nowNanos func() int64

	// order is opts.KeyOrder (or bytes.Compare by default), threaded
	// into every Memtable and sstable.Reader this DB creates.
	order func(a, b []byte) int
}

// Open opens (or creates) the database at opts.Dir: it loads existing
// SSTables, replays the WAL into a fresh MemTable, and leaves the WAL
// open in append mode ready for new writes.
func Open(opts Options) (*DB, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, dberr.WrapIO(err, "lsm: create dir %s", dir)
	}

	order := opts.KeyOrder
	if order == nil {
		order = bytes.Compare
	}

	levels, err := loadLevels(dir, log, order)
	if err != nil {
		return nil, err
	}
	sstSeq, err := maxSeqAcrossLevels(levels)
	if err != nil {
		return nil, err
	}

	mem := memtable.NewWithOrder(order)
	walPath := filepath.Join(dir, walFileName)

	var w *wal.WAL
	if _, statErr := os.Stat(walPath); statErr == nil {
		w, err = wal.Open(walPath, log)
		if err != nil {
			return nil, err
		}
	} else if os.IsNotExist(statErr) {
		w, err = wal.Create(walPath, log)
		if err != nil {
			return nil, err
		}
	} else {
		return nil, dberr.WrapIO(statErr, "lsm: stat %s", walPath)
	}

	seq, err := replayInto(w, mem, log)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	// The WAL is cleared on every flush (see flush.go), so its replay
	// alone understates Seq once anything has ever flushed; the high
	// watermark is whichever of the two sources ran further.
	if sstSeq > seq {
		seq = sstSeq
	}

	return &DB{
		dir:      dir,
		log:      log,
		mem:      mem,
		maxBytes: opts.MaxMemtableSizeBytes,
		seq:      seq,
		w:        w,
		levels:   levels,
		order:    order,
	}, nil
}

// replayInto replays every durable LogEntry in w into mem and returns the
// highest Seq observed. A torn trailing record stops replay cleanly; any
// other corruption is fatal (spec §7/§8 scenario 5).
func replayInto(w *wal.WAL, mem *memtable.Memtable, log logging.Logger) (uint64, error) {
	it, err := w.Iterator()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	var seq uint64
	for {
		e, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if dberr.IsTornTail(err) {
				log.Warnw("wal: torn trailing record, stopping replay", "path", w.Path())
				break
			}
			return 0, err
		}
		switch e.Op {
		case record.OpPut:
			mem.Put(e.Key, e.Value, e.Seq)
		case record.OpDelete:
			mem.Delete(e.Key, e.Seq)
		}
		if e.Seq > seq {
			seq = e.Seq
		}
	}
	return seq, nil
}

// Close closes the underlying WAL handle. SSTable readers hold no
// persistent file descriptors, so there is nothing else to release.
func (d *DB) Close() error {
	if d.w == nil {
		return nil
	}
	return d.w.Close()
}

// loadLevels scans dir for "L<level>-<ns>.sst" files, groups them by
// level, and sorts each level's filenames ascending (= creation order).
// Unparseable .sst filenames are logged and skipped, never fatal. order
// is the comparator every loaded Reader is opened with.
func loadLevels(dir string, log logging.Logger, order func(a, b []byte) int) ([][]*sstable.Reader, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, dberr.WrapIO(err, "lsm: read dir %s", dir)
	}

	namesByLevel := make(map[int][]string)
	maxLevel := -1
	for _, ent := range ents {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		if !strings.HasSuffix(name, ".sst") {
			continue
		}
		level, ok := parseSSTableLevel(name)
		if !ok {
			log.Warnw("lsm: skipping sstable with unparseable filename", "name", name)
			continue
		}
		namesByLevel[level] = append(namesByLevel[level], name)
		if level > maxLevel {
			maxLevel = level
		}
	}
	if maxLevel < 0 {
		return nil, nil
	}

	levels := make([][]*sstable.Reader, maxLevel+1)
	for level, names := range namesByLevel {
		sort.Strings(names)
		readers := make([]*sstable.Reader, 0, len(names))
		for _, name := range names {
			r, err := sstable.NewReaderWithOrder(filepath.Join(dir, name), order)
			if err != nil {
				return nil, err
			}
			readers = append(readers, r)
		}
		levels[level] = readers
	}
	return levels, nil
}

// maxSeqAcrossLevels returns the highest Seq found in any loaded
// SSTable, or 0 if levels is empty.
func maxSeqAcrossLevels(levels [][]*sstable.Reader) (uint64, error) {
	var max uint64
	for _, readers := range levels {
		for _, r := range readers {
			s, err := r.MaxSeq()
			if err != nil {
				return 0, err
			}
			if s > max {
				max = s
			}
		}
	}
	return max, nil
}

// parseSSTableLevel extracts the level number from a "L<level>-..." .sst
// filename. It reports ok=false for anything else, including the
// malformed-but-plausible names the open question in spec §9 calls out.
func parseSSTableLevel(name string) (int, bool) {
	base := strings.TrimSuffix(name, ".sst")
	if !strings.HasPrefix(base, "L") {
		return 0, false
	}
	rest := base[1:]
	parts := strings.SplitN(rest, "-", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, false
	}
	level, err := strconv.Atoi(parts[0])
	if err != nil || level < 0 {
		return 0, false
	}
	return level, true
}
