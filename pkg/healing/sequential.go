package healing

import (
	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
)

// RewriteSequential expands parallel tool rounds into sequential ones: an
// assistant message with N tool_use blocks followed by a user message with
// their tool_results becomes N consecutive (assistant, user) pairs, each
// carrying one call and its result. Local models handle the one-at-a-time
// shape far better. The transform is idempotent: once every assistant turn
// carries a single call, nothing matches.
func RewriteSequential(messages []anthropic.Message) []anthropic.Message {
	out := make([]anthropic.Message, 0, len(messages))
	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		if msg.Role != "assistant" || i+1 >= len(messages) {
			out = append(out, msg)
			continue
		}

		var toolUses, otherBlocks []anthropic.ContentBlock
		for _, b := range msg.Content.AsBlocks() {
			if b.Type == anthropic.BlockTypeToolUse {
				toolUses = append(toolUses, b)
			} else {
				otherBlocks = append(otherBlocks, b)
			}
		}
		if len(toolUses) < 2 {
			out = append(out, msg)
			continue
		}

		next := messages[i+1]
		results, rest := splitToolResults(next, toolUses)
		if len(results) == 0 {
			out = append(out, msg)
			continue
		}

		for j, call := range toolUses {
			blocks := []anthropic.ContentBlock{call}
			if j == 0 && len(otherBlocks) > 0 {
				blocks = append(otherBlocks, call)
			}
			out = append(out, anthropic.Message{Role: "assistant", Content: anthropic.BlocksContent(blocks...)})
			if result, ok := results[call.ID]; ok {
				out = append(out, anthropic.Message{Role: "user", Content: anthropic.BlocksContent(result)})
			}
		}
		if len(rest) > 0 {
			out = append(out, anthropic.Message{Role: "user", Content: anthropic.BlocksContent(rest...)})
		}
		i++ // consumed the user message as well
	}
	return out
}

// splitToolResults indexes next's tool_result blocks by the tool_use ids
// they answer, returning unmatched blocks separately. A user message whose
// results do not reference the calls at all yields an empty index, which
// callers treat as a non-matching pattern.
func splitToolResults(next anthropic.Message, calls []anthropic.ContentBlock) (map[string]anthropic.ContentBlock, []anthropic.ContentBlock) {
	if next.Role != "user" {
		return nil, nil
	}
	ids := make(map[string]struct{}, len(calls))
	for _, c := range calls {
		ids[c.ID] = struct{}{}
	}
	results := make(map[string]anthropic.ContentBlock)
	var rest []anthropic.ContentBlock
	for _, b := range next.Content.AsBlocks() {
		if b.Type == anthropic.BlockTypeToolResult {
			if _, ok := ids[b.ToolUseID]; ok {
				results[b.ToolUseID] = b
				continue
			}
		}
		rest = append(rest, b)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results, rest
}
