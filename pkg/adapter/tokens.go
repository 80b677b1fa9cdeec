package adapter

import (
	"strings"

	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
)

// ApproximateTokens estimates the input token count of a request without
// calling upstream: every whitespace-separated word costs one token up to
// four characters, then one per started group of four.
func ApproximateTokens(req *anthropic.Request) int {
	total := 0
	if req.System != nil {
		for _, b := range req.System.AsBlocks() {
			total += countWords(b.TextContent())
		}
	}
	for _, msg := range req.Messages {
		for _, b := range msg.Content.AsBlocks() {
			total += countWords(b.TextContent())
		}
	}
	return total
}

func countWords(text string) int {
	n := 0
	for _, word := range strings.Fields(text) {
		if len(word) <= 4 {
			n++
		} else {
			n += (len(word) + 3) / 4
		}
	}
	return n
}
