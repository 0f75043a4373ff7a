// Package wal implements the append-only write-ahead log: a concatenation
// of CRC-framed LogEntry records, fsynced before a mutation is considered
// durable, and replayable from the start for crash recovery.
package wal

import (
	"bufio"
	"io"
	"os"

	"github.com/arclsm/lsmkv/internal/dberr"
	"github.com/arclsm/lsmkv/internal/logging"
	"github.com/arclsm/lsmkv/internal/record"
)

// WAL is a single append-only log file. It is not safe for concurrent use;
// the engine's single-writer model serializes access at the DB layer.
type WAL struct {
	path string
	f    *os.File
	w    *bufio.Writer
	log  logging.Logger
}

// Create creates or truncates the file at path and positions at offset 0,
// ready to append.
func Create(path string, log logging.Logger) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return nil, dberr.WrapIO(err, "wal: create %s", path)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &WAL{path: path, f: f, w: bufio.NewWriter(f), log: log}, nil
}

// Open opens an existing WAL file in append mode. It returns an error if
// the file does not exist — callers must Create it first.
func Open(path string, log logging.Logger) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, dberr.WrapIO(err, "wal: open %s", path)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &WAL{path: path, f: f, w: bufio.NewWriter(f), log: log}, nil
}

// Path returns the WAL's file path.
func (w *WAL) Path() string { return w.path }

// Append serializes e and writes its CRC frame through the buffered
// writer. The record is not yet durable — call Flush to commit it.
func (w *WAL) Append(e record.LogEntry) error {
	payload := record.EncodeLogEntry(e)
	if err := record.WriteFrame(w.w, payload); err != nil {
		return dberr.WrapIO(err, "wal: append to %s", w.path)
	}
	return nil
}

// Flush flushes the buffered writer to the kernel, then forces the
// kernel's buffers to stable storage. This is the commit point: a
// mutation is durable only once Flush returns nil.
func (w *WAL) Flush() error {
	if err := w.w.Flush(); err != nil {
		return dberr.WrapIO(err, "wal: flush %s", w.path)
	}
	if err := w.f.Sync(); err != nil {
		return dberr.WrapIO(err, "wal: fsync %s", w.path)
	}
	return nil
}

// Clear truncates the log to zero length. Called by the DB after a
// successful SSTable flush that supersedes every buffered LogEntry.
func (w *WAL) Clear() error {
	if err := w.w.Flush(); err != nil {
		return dberr.WrapIO(err, "wal: flush before clear %s", w.path)
	}
	if err := w.f.Truncate(0); err != nil {
		return dberr.WrapIO(err, "wal: truncate %s", w.path)
	}
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return dberr.WrapIO(err, "wal: seek to start %s", w.path)
	}
	w.w = bufio.NewWriter(w.f)
	w.log.Debugw("wal cleared", "path", w.path)
	return nil
}

// Close flushes and closes the underlying file.
func (w *WAL) Close() error {
	if w == nil || w.f == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		_ = w.f.Close()
		return dberr.WrapIO(err, "wal: flush on close %s", w.path)
	}
	if err := w.f.Close(); err != nil {
		return dberr.WrapIO(err, "wal: close %s", w.path)
	}
	return nil
}

// Iterator opens a fresh reader at offset 0 for replay. It does not
// interfere with the writer's append position.
func (w *WAL) Iterator() (*Iterator, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return nil, dberr.WrapIO(err, "wal: open for replay %s", w.path)
	}
	return &Iterator{f: f, r: bufio.NewReaderSize(f, 64*1024)}, nil
}

// Iterator yields a lazy, finite sequence of LogEntry records by replaying
// a WAL file from the start. It is not restartable; open a fresh one via
// WAL.Iterator to replay again.
type Iterator struct {
	f *os.File
	r *bufio.Reader
}

// Next returns the next LogEntry, or io.EOF once the stream is
// exhausted cleanly. Any other error is a CorruptRecord error — a torn
// trailing record (marked so dberr.IsTornTail reports true), a CRC
// mismatch, or a payload that fails to decode; the caller decides whether
// that is fatal (see lsm.Open's recovery policy).
func (it *Iterator) Next() (record.LogEntry, error) {
	payload, err := record.ReadFrame(it.r)
	if err != nil {
		if err == io.EOF {
			return record.LogEntry{}, io.EOF
		}
		return record.LogEntry{}, err
	}
	entry, err := record.DecodeLogEntry(payload)
	if err != nil {
		return record.LogEntry{}, err
	}
	return entry, nil
}

// Close releases the iterator's file handle.
func (it *Iterator) Close() error {
	return it.f.Close()
}
