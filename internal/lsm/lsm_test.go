package lsm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOpen(t *testing.T, dir string, maxBytes int64) *DB {
	t.Helper()
	d, err := Open(Options{Dir: dir, MaxMemtableSizeBytes: maxBytes})
	require.NoError(t, err)
	return d
}

// Scenario 1: basic put/get across distinct keys, absent for an unknown key.
func TestScenarioBasicPutGet(t *testing.T) {
	dir := t.TempDir()
	d := mustOpen(t, dir, 1<<20)
	defer d.Close()

	require.NoError(t, d.Put([]byte("a"), []byte("1")))
	require.NoError(t, d.Put([]byte("b"), []byte("2")))

	v, ok, err := d.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(v))

	v, ok, err = d.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", string(v))

	_, ok, err = d.Get([]byte("c"))
	require.NoError(t, err)
	assert.False(t, ok)
}

// Scenario 2: delete shadows a put, and the deletion survives a simulated
// crash (close without explicit flush, reopen).
func TestScenarioDeleteSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	d := mustOpen(t, dir, 1<<20)

	require.NoError(t, d.Put([]byte("a"), []byte("1")))
	require.NoError(t, d.Delete([]byte("a")))
	_, ok, err := d.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, d.Close())

	d2 := mustOpen(t, dir, 1<<20)
	defer d2.Close()
	_, ok, err = d2.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

// Scenario 3: a zero-byte threshold forces a flush on the very next write;
// the directory ends up with an empty WAL and exactly one L0 SSTable
// holding both keys.
func TestScenarioZeroThresholdTriggersFlush(t *testing.T) {
	dir := t.TempDir()
	d := mustOpen(t, dir, 1<<20)
	defer d.Close()

	require.NoError(t, d.Put([]byte("a"), []byte("1")))
	d.maxBytes = 0
	require.NoError(t, d.Put([]byte("b"), []byte("2")))

	v, ok, err := d.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
	v, ok, err = d.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", string(v))

	assert.Equal(t, 0, d.mem.KeyCount())
	sstFiles := listSSTables(t, dir)
	require.Len(t, sstFiles, 1)
	assert.True(t, strings.HasPrefix(sstFiles[0], "L0-"))

	walSt, err := os.Stat(filepath.Join(dir, walFileName))
	require.NoError(t, err)
	assert.Zero(t, walSt.Size())
}

// Scenario 4: after a flush, further mutations buffered only in the WAL
// survive a crash and replay correctly, including a tombstone shadowing
// the already-flushed SSTable.
func TestScenarioReplayAfterFlushShadowsSSTable(t *testing.T) {
	dir := t.TempDir()
	d := mustOpen(t, dir, 1<<20)

	d.maxBytes = 0
	require.NoError(t, d.Put([]byte("a"), []byte("1")))
	require.NoError(t, d.Put([]byte("b"), []byte("2"))) // forced flush: a,b land in L0

	d.maxBytes = 1 << 20
	require.NoError(t, d.Put([]byte("a"), []byte("3")))
	require.NoError(t, d.Delete([]byte("b")))
	// Simulate a crash: close without an extra flush.
	require.NoError(t, d.Close())

	d2 := mustOpen(t, dir, 1<<20)
	defer d2.Close()

	v, ok, err := d2.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", string(v))

	_, ok, err = d2.Get([]byte("b"))
	require.NoError(t, err)
	assert.False(t, ok)
}

// Scenario 5: corrupting the first four bytes of a flushed, single-record
// WAL surfaces a CorruptRecord during Open — it is a full-length frame
// with a bad CRC, not a torn trailing write, so it is fatal to recovery.
func TestScenarioCorruptWALIsFatal(t *testing.T) {
	dir := t.TempDir()
	d := mustOpen(t, dir, 1<<20)
	require.NoError(t, d.Put([]byte("a"), []byte("1")))
	require.NoError(t, d.Close())

	path := filepath.Join(dir, walFileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 4)
	data[0] ^= 0xFF
	data[1] ^= 0xFF
	data[2] ^= 0xFF
	data[3] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(Options{Dir: dir})
	require.Error(t, err)
}

// Scenario 6: two flushes colliding on the same nanosecond timestamp: the
// second write retries with a fresh timestamp and both files end up
// coexisting at level 0 in creation order.
func TestScenarioFlushTimestampCollisionRetries(t *testing.T) {
	dir := t.TempDir()
	d := mustOpen(t, dir, 0)
	defer d.Close()

	timestamps := []int64{1000, 1000, 1001}
	i := 0
	d.nowNanos = func() int64 {
		v := timestamps[i]
		if i < len(timestamps)-1 {
			i++
		}
		return v
	}

	require.NoError(t, d.Put([]byte("a"), []byte("1"))) // flush #1 at ts 1000
	require.NoError(t, d.Put([]byte("b"), []byte("2"))) // flush #2 collides at 1000, retries to 1001

	files := listSSTables(t, dir)
	require.Len(t, files, 2)
	assert.Equal(t, "L0-00000000000000001000.sst", files[0])
	assert.Equal(t, "L0-00000000000000001001.sst", files[1])

	v, ok, err := d.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
	v, ok, err = d.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", string(v))
}

// Reopening after one or more flushes must not reset the Seq counter:
// the WAL is empty at that point, so Seq has to be reconstructed from
// the highest Seq already durable in the loaded SSTables too, or a write
// issued right after reopen can be assigned a Seq lower than an older,
// already-flushed entry for the same key.
func TestSeqSurvivesReopenAfterFlush(t *testing.T) {
	dir := t.TempDir()
	d := mustOpen(t, dir, 0)
	require.NoError(t, d.Put([]byte("x"), []byte("irrelevant"))) // flush, seq=1
	require.NoError(t, d.Put([]byte("a"), []byte("before")))     // flush, seq=2
	require.NoError(t, d.Close())

	d2 := mustOpen(t, dir, 1<<20)
	defer d2.Close()
	require.NoError(t, d2.Put([]byte("a"), []byte("after")))

	v, ok, err := d2.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "after", string(v))

	// The next mutation after reopen must be assigned a Seq strictly
	// greater than anything already flushed, so a later compaction's
	// highest-Seq-wins tie-break cannot resurrect the stale value.
	assert.Greater(t, d2.seq, uint64(2))
}

func TestOpenEmptyDirectoryIsUsable(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	defer d.Close()

	_, ok, err := d.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenRejectsBadSSTableFooter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "L0-00000000000000000001.sst"), []byte("short"), 0o644))

	_, err := Open(Options{Dir: dir})
	assert.Error(t, err)
}

func TestOpenSkipsUnparseableSSTableName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "not-a-level.sst"), []byte("garbage"), 0o644))

	d, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	defer d.Close()
}

func listSSTables(t *testing.T, dir string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range ents {
		if strings.HasSuffix(e.Name(), ".sst") {
			names = append(names, e.Name())
		}
	}
	return names
}
