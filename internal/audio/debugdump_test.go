package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotWritesWAVWhenDebugDumpEnabled(t *testing.T) {
	dir := t.TempDir()
	b := New(0).WithDebugDump(true, dir)
	b.onData(nil, block(1), 0)

	b.Snapshot()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".wav", filepath.Ext(entries[0].Name()))
}

func TestSnapshotSkipsDumpWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	b := New(0)
	b.onData(nil, block(1), 0)

	b.Snapshot()

	_, err := os.Stat(dir)
	assert.NoError(t, err) // TempDir exists but nothing was written into it
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
