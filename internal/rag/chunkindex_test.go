package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zainfaisal220/Sumlyzer/internal/logging"
	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

func sampleChunks() []models.Chunk {
	return []models.Chunk{
		{Index: 0, Text: "first chunk of text", Tokens: 4},
		{Index: 1, Text: "second chunk of text", Tokens: 4},
	}
}

func TestChunkIndex_SaveLoad(t *testing.T) {
	idx, err := NewChunkIndex(t.TempDir(), logging.Discard())
	require.NoError(t, err)

	require.NoError(t, idx.Save("doc-1", sampleChunks()))
	assert.True(t, idx.IsIndexed("doc-1"))

	loaded, err := idx.Load("doc-1")
	require.NoError(t, err)
	assert.Equal(t, sampleChunks(), loaded)
}

func TestChunkIndex_LoadUnknown(t *testing.T) {
	idx, err := NewChunkIndex(t.TempDir(), logging.Discard())
	require.NoError(t, err)

	loaded, err := idx.Load("never-saved")
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.False(t, idx.IsIndexed("never-saved"))
}

func TestChunkIndex_ScanExisting(t *testing.T) {
	dir := t.TempDir()

	first, err := NewChunkIndex(dir, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, first.Save("doc-1", sampleChunks()))

	second, err := NewChunkIndex(dir, logging.Discard())
	require.NoError(t, err)

	assert.True(t, second.IsIndexed("doc-1"))
	loaded, err := second.Load("doc-1")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestChunkIndex_Delete(t *testing.T) {
	idx, err := NewChunkIndex(t.TempDir(), logging.Discard())
	require.NoError(t, err)

	require.NoError(t, idx.Save("doc-1", sampleChunks()))
	require.NoError(t, idx.Delete("doc-1"))

	assert.False(t, idx.IsIndexed("doc-1"))

	// Deleting again is not an error.
	assert.NoError(t, idx.Delete("doc-1"))
}

func TestChunkIndex_CleanupOrphaned(t *testing.T) {
	idx, err := NewChunkIndex(t.TempDir(), logging.Discard())
	require.NoError(t, err)

	require.NoError(t, idx.Save("doc-1", sampleChunks()))
	require.NoError(t, idx.Save("doc-2", sampleChunks()))

	removed := idx.CleanupOrphaned([]string{"doc-1"})

	assert.Equal(t, 1, removed)
	assert.True(t, idx.IsIndexed("doc-1"))
	assert.False(t, idx.IsIndexed("doc-2"))
}

func TestChunkIndex_Stats(t *testing.T) {
	idx, err := NewChunkIndex(t.TempDir(), logging.Discard())
	require.NoError(t, err)

	require.NoError(t, idx.Save("doc-1", sampleChunks()))
	require.NoError(t, idx.Save("doc-2", sampleChunks()))

	count, size := idx.Stats()
	assert.Equal(t, 2, count)
	assert.Greater(t, size, int64(0))
}
