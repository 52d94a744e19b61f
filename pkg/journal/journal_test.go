package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRecordAndRecent(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	j.Record("p1", "generate", "generated from 3 selected flows")
	j.Record("p1", "amend", "version 2 appended")
	j.Record("p2", "delete", "policy and version chain removed")

	entries, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "delete", entries[0].Op)
	assert.Equal(t, "p2", entries[0].PolicyID)
	assert.Equal(t, "generate", entries[2].Op)
}

func TestJournalNilSafe(t *testing.T) {
	var j *Journal
	j.Record("p1", "generate", "noop")
	entries, err := j.Recent(10)
	require.NoError(t, err)
	assert.Nil(t, entries)
	require.NoError(t, j.Close())
}
