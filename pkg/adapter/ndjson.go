package adapter

import (
	"bytes"
	"encoding/json"

	"github.com/kadirpekel/ollamabridge/pkg/ollama"
)

// ChunkParser splits Ollama's NDJSON byte stream into parsed chunks. It
// keeps a running accumulator so a read boundary falling mid-line does not
// lose data: only complete lines are parsed, the final partial line waits
// for the next Push.
type ChunkParser struct {
	buf []byte
}

// Push appends data to the accumulator and returns every chunk whose line
// completed. Blank and unparseable lines are discarded.
func (p *ChunkParser) Push(data []byte) []ollama.StreamChunk {
	p.buf = append(p.buf, data...)

	var chunks []ollama.StreamChunk
	for {
		nl := bytes.IndexByte(p.buf, '\n')
		if nl < 0 {
			return chunks
		}
		line := bytes.TrimSpace(p.buf[:nl])
		p.buf = p.buf[nl+1:]
		if len(line) == 0 {
			continue
		}
		var chunk ollama.StreamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		chunks = append(chunks, chunk)
	}
}

// Pending returns the retained partial line.
func (p *ChunkParser) Pending() []byte {
	return p.buf
}
