package anthropic

import (
	"crypto/rand"
	"encoding/hex"
)

// randomHex returns n random bytes as lowercase hex from crypto/rand.
func randomHex(n int) string {
	buf := make([]byte, n)
	// rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// NewMessageID returns a response identifier of the form msg_<16 hex chars>.
func NewMessageID() string {
	return "msg_" + randomHex(8)
}

// NewToolUseID returns a tool_use identifier of the form toolu_<16 hex chars>.
func NewToolUseID() string {
	return "toolu_" + randomHex(8)
}
