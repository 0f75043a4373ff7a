// Package dberr defines the engine's error taxonomy.
//
// Every error the core returns is one of: Io (an unclassified disk or
// filesystem failure), CorruptRecord (a framed record failed CRC or
// deserialization), CorruptSSTable (a footer/index is missing or
// malformed), or AlreadyExists (an SSTable path collision). "Not found"
// is never an error value — callers see it as a plain boolean.
package dberr

import (
	"github.com/cockroachdb/errors"
)

// Sentinel kinds. Wrap these with errors.Wrapf at the call site so callers
// can still discriminate kinds via errors.Is while getting a stack trace
// and contextual message.
var (
	ErrCorruptRecord  = errors.New("corrupt record")
	ErrCorruptSSTable = errors.New("corrupt sstable")
	ErrAlreadyExists  = errors.New("sstable path already exists")

	// errTornTail marks a CorruptRecord that resulted from a short read —
	// fewer bytes were available than the frame's own header declared.
	// This is the crash-induced "torn trailing write" the WAL replay
	// protocol treats as benign, as opposed to a CRC mismatch or
	// deserialization failure on a frame whose declared bytes were all
	// present, which is never benign regardless of its position in the
	// file (see dberr.IsTornTail and spec §7/§8 scenario 5).
	errTornTail = errors.New("torn tail")
)

// WrapIO wraps an unclassified I/O failure with operation context.
func WrapIO(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

// WrapCorruptRecord wraps ErrCorruptRecord with context, or builds a fresh
// one if err is nil (e.g. a length/CRC mismatch with no underlying OS error).
func WrapCorruptRecord(err error, format string, args ...interface{}) error {
	if err == nil {
		return errors.Wrapf(ErrCorruptRecord, format, args...)
	}
	return errors.Wrapf(errors.Mark(err, ErrCorruptRecord), format, args...)
}

// WrapTornRecord wraps ErrCorruptRecord and additionally marks the result
// as a torn-tail record: a frame whose header or payload was cut short by
// fewer bytes being on disk than its own length field declared. Use this
// only when the read failed because the stream ran out of bytes, never for
// a CRC mismatch or decode failure on a frame whose full declared length
// was present.
func WrapTornRecord(err error, format string, args ...interface{}) error {
	marked := errors.Mark(errors.Mark(err, ErrCorruptRecord), errTornTail)
	return errors.Wrapf(marked, format, args...)
}

// IsTornTail reports whether err was produced by WrapTornRecord — a
// crash-induced short read at the physical end of a WAL, as opposed to a
// CRC mismatch or deserialization failure, which is never benign regardless
// of where in the file it occurs.
func IsTornTail(err error) bool {
	return errors.Is(err, errTornTail)
}

// WrapCorruptSSTable wraps ErrCorruptSSTable with context.
func WrapCorruptSSTable(err error, format string, args ...interface{}) error {
	if err == nil {
		return errors.Wrapf(ErrCorruptSSTable, format, args...)
	}
	return errors.Wrapf(errors.Mark(err, ErrCorruptSSTable), format, args...)
}

// IsCorruptRecord reports whether err is (or wraps) ErrCorruptRecord.
func IsCorruptRecord(err error) bool {
	return errors.Is(err, ErrCorruptRecord)
}

// IsCorruptSSTable reports whether err is (or wraps) ErrCorruptSSTable.
func IsCorruptSSTable(err error) bool {
	return errors.Is(err, ErrCorruptSSTable)
}

// IsAlreadyExists reports whether err is (or wraps) ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
