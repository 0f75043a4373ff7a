package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args and returns its stdout, or the
// error RunE produced (nil on success).
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPutGetDelRoundTrip(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "--dir", dir, "put", "a", "1")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	out, err = run(t, "--dir", dir, "get", "a")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = run(t, "--dir", dir, "del", "a")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = run(t, "--dir", dir, "get", "a")
	require.Error(t, err)
	exitErr, ok := err.(*exitError)
	require.True(t, ok)
	assert.Equal(t, 1, exitErr.code)
}

func TestGetMissingKeyExitsOne(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "--dir", dir, "get", "missing")
	require.Error(t, err)
	exitErr, ok := err.(*exitError)
	require.True(t, ok)
	assert.Equal(t, 1, exitErr.code)
}

func TestMissingDirIsUsageError(t *testing.T) {
	_, err := run(t, "get", "a")
	require.Error(t, err)
	exitErr, ok := err.(*exitError)
	require.True(t, ok)
	assert.Equal(t, 2, exitErr.code)
}

func TestPutWrongArgCountIsUsageError(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "--dir", dir, "put", "onlykey")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "arg"))
}

func TestCompactMergesAndReportsNothingWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "--dir", dir, "compact")
	require.NoError(t, err)
	assert.Equal(t, "nothing to compact\n", out)
}

func TestCompactMergesSSTables(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "--dir", dir, "--mem-max-bytes", "0", "put", "a", "1")
	require.NoError(t, err)
	_, err = run(t, "--dir", dir, "--mem-max-bytes", "0", "put", "b", "2")
	require.NoError(t, err)

	out, err := run(t, "--dir", dir, "compact")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "merged 2 sstables"))

	out, err = run(t, "--dir", dir, "get", "a")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}
