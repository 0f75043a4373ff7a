package compactlayout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclsm/lsmkv/internal/lsm"
)

func sstFiles(t *testing.T, dir string) []string {
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

func TestRunMergesLevelZeroTables(t *testing.T) {
	dir := t.TempDir()
	d, err := lsm.Open(lsm.Options{Dir: dir, MaxMemtableSizeBytes: 0})
	require.NoError(t, err)

	require.NoError(t, d.Put([]byte("a"), []byte("1")))
	require.NoError(t, d.Put([]byte("b"), []byte("2")))
	require.NoError(t, d.Put([]byte("a"), []byte("3")))
	require.NoError(t, d.Delete([]byte("b")))
	require.NoError(t, d.Put([]byte("c"), []byte("x"))) // forces the pending tombstone for b (together with c) into a fourth sstable
	require.NoError(t, d.Close())

	before := sstFiles(t, dir)
	require.True(t, len(before) >= 2, "fixture must produce at least two sstables to exercise a merge")

	res, err := Run(Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, len(before), res.InputCount)
	assert.True(t, strings.HasPrefix(filepath.Base(res.OutputPath), "L1-"))

	after := sstFiles(t, dir)
	assert.Equal(t, []string{filepath.Base(res.OutputPath)}, after)

	d2, err := lsm.Open(lsm.Options{Dir: dir, MaxMemtableSizeBytes: 1 << 20})
	require.NoError(t, err)
	defer d2.Close()

	v, ok, err := d2.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", string(v))

	_, ok, err = d2.Get([]byte("b"))
	require.NoError(t, err)
	assert.False(t, ok, "tombstone for b must win over the earlier put across merged tables")
}

func TestRunDropTombstones(t *testing.T) {
	dir := t.TempDir()
	d, err := lsm.Open(lsm.Options{Dir: dir, MaxMemtableSizeBytes: 0})
	require.NoError(t, err)
	require.NoError(t, d.Put([]byte("a"), []byte("1")))
	require.NoError(t, d.Delete([]byte("a")))
	require.NoError(t, d.Put([]byte("b"), []byte("2"))) // flushes a's tombstone (with b) into a second sstable
	require.NoError(t, d.Close())

	res, err := Run(Options{Dir: dir, DropTombstones: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.InputCount)
	assert.Equal(t, 1, res.KeyCount, "only b survives; a's winning tombstone is dropped")
}

func TestRunNoopBelowTwoTables(t *testing.T) {
	dir := t.TempDir()
	d, err := lsm.Open(lsm.Options{Dir: dir, MaxMemtableSizeBytes: 1 << 20})
	require.NoError(t, err)
	require.NoError(t, d.Put([]byte("a"), []byte("1")))
	require.NoError(t, d.Close())

	res, err := Run(Options{Dir: dir})
	require.NoError(t, err)
	assert.Zero(t, res)
	assert.Empty(t, sstFiles(t, dir))
}
