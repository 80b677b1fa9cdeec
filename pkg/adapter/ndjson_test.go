package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkParser_CompleteLines(t *testing.T) {
	p := &ChunkParser{}

	chunks := p.Push([]byte(`{"message":{"content":"a"},"done":false}` + "\n" +
		`{"message":{"content":"b"},"done":true,"eval_count":2}` + "\n"))

	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].Message.Content)
	assert.True(t, chunks[1].Done)
	assert.Equal(t, 2, chunks[1].EvalCount)
	assert.Empty(t, p.Pending())
}

func TestChunkParser_PartialLineRetained(t *testing.T) {
	p := &ChunkParser{}

	chunks := p.Push([]byte(`{"message":{"content":"a"},"done":false}` + "\n" + `{"message":{"con`))
	require.Len(t, chunks, 1)
	assert.Equal(t, []byte(`{"message":{"con`), p.Pending())

	chunks = p.Push([]byte(`tent":"b"},"done":false}` + "\n"))
	require.Len(t, chunks, 1)
	assert.Equal(t, "b", chunks[0].Message.Content)
	assert.Empty(t, p.Pending())
}

func TestChunkParser_BlankAndGarbageLinesSkipped(t *testing.T) {
	p := &ChunkParser{}

	chunks := p.Push([]byte("\n\nnot json\n" + `{"message":{"content":"ok"},"done":false}` + "\n"))

	require.Len(t, chunks, 1)
	assert.Equal(t, "ok", chunks[0].Message.Content)
}
