// Package compactlayout implements a standalone compactor tool, run
// between engine sessions rather than by the engine itself. It opens
// every existing SSTable across every level, k-way merges them by key
// keeping the highest sequence number per key, and writes the result as
// a single new level-1 table in the exact frame/index/footer format
// internal/sstable already knows how to read. internal/lsm never calls
// this package.
package compactlayout

import (
	"container/heap"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arclsm/lsmkv/internal/dberr"
	"github.com/arclsm/lsmkv/internal/logging"
	"github.com/arclsm/lsmkv/internal/record"
	"github.com/arclsm/lsmkv/internal/sstable"
)

// Options configures Run.
type Options struct {
	// Dir is the database directory to compact. Must not be open by a
	// live DB concurrently — compactlayout holds no lock of its own.
	Dir string
	// DropTombstones, when true, omits tombstone entries from the
	// output. Safe here specifically because Run merges every level
	// the engine knows about into the single output file, so a
	// tombstone's only job — shadowing an older SSTable — has nothing
	// left to shadow once the merge completes.
	DropTombstones bool
	Log            logging.Logger
}

// Result reports what Run did.
type Result struct {
	InputCount int
	OutputPath string
	KeyCount   int
}

// Run merges every SSTable found under opts.Dir into one new
// "L1-<ns>.sst" file and removes the inputs. If fewer than two tables
// exist, there is nothing to merge and Run returns a zero Result.
func Run(opts Options) (Result, error) {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	paths, err := discoverSSTables(opts.Dir)
	if err != nil {
		return Result{}, err
	}
	if len(paths) < 2 {
		return Result{}, nil
	}

	readers := make([]*sstable.Reader, 0, len(paths))
	for _, p := range paths {
		r, err := sstable.NewReader(p)
		if err != nil {
			return Result{}, err
		}
		readers = append(readers, r)
	}

	merged, err := mergeTables(readers, opts.DropTombstones)
	if err != nil {
		return Result{}, err
	}

	outPath, err := writeOutput(opts.Dir, merged)
	if err != nil {
		return Result{}, err
	}

	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			return Result{}, dberr.WrapIO(err, "compactlayout: remove input %s", p)
		}
	}

	log.Infow("compactlayout: merged sstables", "inputs", len(paths), "output", outPath, "keys", len(merged))
	return Result{InputCount: len(paths), OutputPath: outPath, KeyCount: len(merged)}, nil
}

func discoverSSTables(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, dberr.WrapIO(err, "compactlayout: read dir %s", dir)
	}
	var paths []string
	for _, ent := range ents {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".sst") {
			continue
		}
		paths = append(paths, filepath.Join(dir, ent.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

type mergedEntry struct {
	key   []byte
	entry record.Entry
}

// mergeTables performs a k-way merge across readers by key, keeping
// whichever Entry carries the highest Seq when two tables disagree on a
// key.
func mergeTables(readers []*sstable.Reader, dropTombstones bool) ([]mergedEntry, error) {
	iters := make([]*tableCursor, 0, len(readers))
	for _, r := range readers {
		c, err := newTableCursor(r)
		if err != nil {
			return nil, err
		}
		if c != nil {
			iters = append(iters, c)
		}
	}

	h := &cursorHeap{}
	heap.Init(h)
	for _, c := range iters {
		heap.Push(h, c)
	}

	var out []mergedEntry
	for h.Len() > 0 {
		c := heap.Pop(h).(*tableCursor)
		key := c.key
		best := c.entry

		for h.Len() > 0 && (*h)[0].key != nil && string((*h)[0].key) == string(key) {
			other := heap.Pop(h).(*tableCursor)
			if other.entry.Seq > best.Seq {
				best = other.entry
			}
			if err := other.advance(); err != nil {
				return nil, err
			}
			if other.key != nil {
				heap.Push(h, other)
			}
		}

		if !(dropTombstones && best.Tombstone) {
			out = append(out, mergedEntry{key: key, entry: best})
		}

		if err := c.advance(); err != nil {
			return nil, err
		}
		if c.key != nil {
			heap.Push(h, c)
		}
	}
	return out, nil
}

// tableCursor walks one Reader's keys in ascending order.
type tableCursor struct {
	r     *sstable.Reader
	keys  [][]byte
	i     int
	key   []byte
	entry record.Entry
}

func newTableCursor(r *sstable.Reader) (*tableCursor, error) {
	c := &tableCursor{r: r, keys: r.Keys()}
	if len(c.keys) == 0 {
		return nil, nil
	}
	if err := c.load(0); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *tableCursor) load(i int) error {
	e, ok, err := c.r.Get(c.keys[i])
	if err != nil {
		return err
	}
	if !ok {
		// Cannot happen: keys came from this reader's own index.
		return dberr.WrapCorruptSSTable(nil, "compactlayout: indexed key vanished from %s", c.r.Path())
	}
	c.i = i
	c.key = c.keys[i]
	c.entry = e
	return nil
}

func (c *tableCursor) advance() error {
	next := c.i + 1
	if next >= len(c.keys) {
		c.key = nil
		return nil
	}
	return c.load(next)
}

type cursorHeap []*tableCursor

func (h cursorHeap) Len() int { return len(h) }
func (h cursorHeap) Less(i, j int) bool {
	return string(h[i].key) < string(h[j].key)
}
func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)   { *h = append(*h, x.(*tableCursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func writeOutput(dir string, entries []mergedEntry) (string, error) {
	for {
		path := filepath.Join(dir, fmt.Sprintf("L1-%020d.sst", time.Now().UnixNano()))
		w, err := sstable.NewWriter(path)
		if err != nil {
			if dberr.IsAlreadyExists(err) {
				continue
			}
			return "", err
		}
		if err := w.WriteFromMemtable(&sliceSource{entries: entries}); err != nil {
			return "", err
		}
		return path, nil
	}
}

// sliceSource adapts a pre-merged, pre-sorted entry slice to
// sstable.Source.
type sliceSource struct {
	entries []mergedEntry
	i       int
}

func (s *sliceSource) Next() ([]byte, record.Entry, bool) {
	if s.i >= len(s.entries) {
		return nil, record.Entry{}, false
	}
	e := s.entries[s.i]
	s.i++
	return e.key, e.entry, true
}
