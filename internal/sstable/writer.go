package sstable

import (
	"bufio"
	"os"

	"github.com/arclsm/lsmkv/internal/dberr"
	"github.com/arclsm/lsmkv/internal/record"
)

// Source produces (key, Entry) pairs in strictly ascending key order,
// tombstones included. internal/memtable's iterator satisfies this
// interface structurally — this package never imports internal/memtable,
// keeping the dependency order leaf-first (record → wal → sstable →
// memtable → lsm).
type Source interface {
	// Next returns the next pair, or ok=false once exhausted.
	Next() (key []byte, entry record.Entry, ok bool)
}

// Writer builds a new, immutable SSTable file. The target path must not
// already exist (NewWriter creates it exclusively); a collision is
// reported as dberr.ErrAlreadyExists so the caller can retry with a fresh
// path (see lsm's flush procedure and spec §8 scenario 6).
type Writer struct {
	path   string
	f      *os.File
	w      *bufio.Writer
	offset uint64
}

// NewWriter creates path exclusively and returns a Writer ready to
// consume a Source via WriteFromMemtable.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, dberr.WrapIO(dberr.ErrAlreadyExists, "sstable: create %s", path)
		}
		return nil, dberr.WrapIO(err, "sstable: create %s", path)
	}
	return &Writer{path: path, f: f, w: bufio.NewWriterSize(f, 64*1024)}, nil
}

// WriteFromMemtable consumes src in full, writing each entry's frame to
// the data section, then the index, then the 24-byte footer. On success
// the file is flushed and fsynced and the Writer must not be reused.
func (w *Writer) WriteFromMemtable(src Source) error {
	var index []indexEntry
	for {
		key, entry, ok := src.Next()
		if !ok {
			break
		}
		startOffset := w.offset
		payload := record.EncodeEntry(entry)
		if err := record.WriteFrame(w.w, payload); err != nil {
			return dberr.WrapIO(err, "sstable: write entry %s", w.path)
		}
		w.offset += uint64(record.HeaderSize + len(payload))
		index = append(index, indexEntry{key: cloneBytes(key), offset: startOffset})
	}

	indexOffset := w.offset
	indexBytes := encodeIndex(index)
	if len(indexBytes) > 0 {
		if _, err := w.w.Write(indexBytes); err != nil {
			return dberr.WrapIO(err, "sstable: write index %s", w.path)
		}
	}
	w.offset += uint64(len(indexBytes))

	footerBytes := encodeFooter(footer{
		indexOffset: indexOffset,
		indexSize:   uint64(len(indexBytes)),
		magic:       Magic,
	})
	if _, err := w.w.Write(footerBytes); err != nil {
		return dberr.WrapIO(err, "sstable: write footer %s", w.path)
	}

	if err := w.w.Flush(); err != nil {
		return dberr.WrapIO(err, "sstable: flush %s", w.path)
	}
	if err := w.f.Sync(); err != nil {
		return dberr.WrapIO(err, "sstable: fsync %s", w.path)
	}
	return w.f.Close()
}

// Path returns the file path this writer targets.
func (w *Writer) Path() string { return w.path }
