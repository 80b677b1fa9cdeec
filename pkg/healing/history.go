package healing

import (
	"log/slog"
	"strings"

	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
)

// validationErrorMarker is the signature a tool runner leaves on a
// tool_result when the call's arguments failed schema validation.
const validationErrorMarker = "InputValidationError"

var validationDetails = []string{
	"required parameter",
	"unexpected parameter",
	"type is expected as",
}

// isValidationFailure reports whether an errored tool_result's text carries
// the parameter-validation signature.
func isValidationFailure(text string) bool {
	if !strings.Contains(text, validationErrorMarker) {
		return false
	}
	for _, detail := range validationDetails {
		if strings.Contains(text, detail) {
			return true
		}
	}
	return false
}

// isSiblingAbort reports whether an errored tool_result is the marker a
// tool runner attaches to calls it cancelled because a sibling call in the
// same batch failed validation.
func isSiblingAbort(text string) bool {
	return strings.Contains(text, "sibling tool call")
}

// HealHistory sweeps the conversation before forwarding: tool_use inputs
// anywhere in history are re-canonicalized against the current schemas, and
// rounds that failed parameter validation are stripped so the model does not
// re-learn the broken call shape from its own transcript. Returns the healed
// history and the number of rounds stripped.
func HealHistory(messages []anthropic.Message, idx SchemaIndex, log *slog.Logger) ([]anthropic.Message, int) {
	if log == nil {
		log = slog.Default()
	}
	messages = canonicalizeToolUses(messages, idx)

	stripped := 0
	out := make([]anthropic.Message, 0, len(messages))
	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		if msg.Role != "assistant" || i+1 >= len(messages) {
			out = append(out, msg)
			continue
		}
		next := messages[i+1]
		assistant, user, ok := stripFailedRound(msg, next)
		if !ok {
			out = append(out, msg)
			continue
		}
		stripped++
		log.Debug("stripped failed tool round from history", "index", i)
		if assistant != nil {
			out = append(out, *assistant)
		}
		if user != nil {
			out = append(out, *user)
		}
		i++ // consumed the user message as well
	}
	return out, stripped
}

// canonicalizeToolUses runs name and type healing over every tool_use block
// in history so future turns see canonical inputs.
func canonicalizeToolUses(messages []anthropic.Message, idx SchemaIndex) []anthropic.Message {
	if idx == nil {
		return messages
	}
	out := make([]anthropic.Message, len(messages))
	for i, msg := range messages {
		out[i] = msg
		if msg.Role != "assistant" {
			continue
		}
		blocks := msg.Content.AsBlocks()
		var healedBlocks []anthropic.ContentBlock
		for j, b := range blocks {
			if b.Type != anthropic.BlockTypeToolUse {
				continue
			}
			info, ok := idx.Lookup(b.Name)
			if !ok {
				continue
			}
			input, renamed := HealNames(b.Name, b.Input, info)
			input, coerced := HealTypes(b.Name, input, info)
			if len(renamed) == 0 && len(coerced) == 0 {
				continue
			}
			if healedBlocks == nil {
				healedBlocks = make([]anthropic.ContentBlock, len(blocks))
				copy(healedBlocks, blocks)
			}
			healedBlocks[j].Input = input
		}
		if healedBlocks != nil {
			out[i].Content = anthropic.BlocksContent(healedBlocks...)
		}
	}
	return out
}

// stripFailedRound inspects an (assistant, user) pair. When the user
// message carries an errored tool_result matching the validation signature,
// the failing tool_use/tool_result pairs and any sibling-abort results are
// dropped. Returns the surviving halves (nil when a side becomes empty) and
// whether a strip happened.
func stripFailedRound(assistant, user anthropic.Message) (*anthropic.Message, *anthropic.Message, bool) {
	if user.Role != "user" {
		return nil, nil, false
	}
	toolUses := make(map[string]struct{})
	for _, b := range assistant.Content.AsBlocks() {
		if b.Type == anthropic.BlockTypeToolUse {
			toolUses[b.ID] = struct{}{}
		}
	}
	if len(toolUses) == 0 {
		return nil, nil, false
	}

	// Decide which tool_use ids are being dropped.
	drop := make(map[string]struct{})
	failed := false
	for _, b := range user.Content.AsBlocks() {
		if b.Type != anthropic.BlockTypeToolResult || !b.IsError {
			continue
		}
		if _, matches := toolUses[b.ToolUseID]; !matches {
			continue
		}
		text := b.TextContent()
		if isValidationFailure(text) {
			drop[b.ToolUseID] = struct{}{}
			failed = true
		} else if isSiblingAbort(text) {
			drop[b.ToolUseID] = struct{}{}
		}
	}
	if !failed {
		return nil, nil, false
	}

	var keptAssistant []anthropic.ContentBlock
	for _, b := range assistant.Content.AsBlocks() {
		if b.Type == anthropic.BlockTypeToolUse {
			if _, dropped := drop[b.ID]; dropped {
				continue
			}
		}
		keptAssistant = append(keptAssistant, b)
	}

	var keptUser []anthropic.ContentBlock
	for _, b := range user.Content.AsBlocks() {
		if b.Type == anthropic.BlockTypeToolResult {
			if _, dropped := drop[b.ToolUseID]; dropped {
				continue
			}
		}
		keptUser = append(keptUser, b)
	}

	var outAssistant, outUser *anthropic.Message
	if len(keptAssistant) > 0 {
		outAssistant = &anthropic.Message{Role: "assistant", Content: anthropic.BlocksContent(keptAssistant...)}
	}
	if len(keptUser) > 0 {
		outUser = &anthropic.Message{Role: "user", Content: anthropic.BlocksContent(keptUser...)}
	}
	return outAssistant, outUser, true
}
