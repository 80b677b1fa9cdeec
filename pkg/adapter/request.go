package adapter

import (
	"strings"

	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
	"github.com/kadirpekel/ollamabridge/pkg/ollama"
)

// BuildChatRequest converts a healed, rewritten Messages API request into
// Ollama's chat shape. The messages slice is expected to be post-history
// healing and post-sequential rewrite.
func BuildChatRequest(req *anthropic.Request, resolved string, think bool) ollama.ChatRequest {
	out := ollama.ChatRequest{
		Model:  resolved,
		Stream: req.Stream,
		Think:  think,
	}

	if req.System != nil {
		if text := flattenSystem(*req.System); text != "" {
			out.Messages = append(out.Messages, ollama.ChatMessage{Role: "system", Content: text})
		}
	}
	for _, msg := range req.Messages {
		out.Messages = append(out.Messages, convertMessage(msg)...)
	}

	out.Options = buildOptions(req)
	out.Tools = convertTools(req.Tools)
	return out
}

// flattenSystem collapses a system prompt to a single string; block lists
// concatenate the textual projection of each block.
func flattenSystem(content anthropic.MessageContent) string {
	if content.IsText() {
		return content.TextContent()
	}
	parts := make([]string, 0, len(content.Blocks))
	for _, b := range content.Blocks {
		if text := b.TextContent(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// convertMessage translates one conversation turn. Assistant tool calls
// collapse into a single message carrying tool_calls; each user tool_result
// becomes its own tool-role message.
func convertMessage(msg anthropic.Message) []ollama.ChatMessage {
	if msg.Content.IsText() {
		return []ollama.ChatMessage{{Role: msg.Role, Content: msg.Content.TextContent()}}
	}

	blocks := msg.Content.AsBlocks()

	if msg.Role == "assistant" {
		var calls []ollama.ToolCall
		var textParts []string
		for _, b := range blocks {
			switch b.Type {
			case anthropic.BlockTypeToolUse:
				calls = append(calls, ollama.ToolCall{
					Function: ollama.ToolCallFunction{Name: b.Name, Arguments: b.Input},
				})
			default:
				if text := b.TextContent(); text != "" {
					textParts = append(textParts, text)
				}
			}
		}
		if len(calls) > 0 {
			return []ollama.ChatMessage{{
				Role:      "assistant",
				Content:   strings.Join(textParts, "\n"),
				ToolCalls: calls,
			}}
		}
		return []ollama.ChatMessage{{Role: "assistant", Content: strings.Join(textParts, "\n")}}
	}

	var out []ollama.ChatMessage
	var textParts []string
	for _, b := range blocks {
		if b.Type == anthropic.BlockTypeToolResult {
			out = append(out, ollama.ChatMessage{Role: "tool", Content: b.TextContent()})
			continue
		}
		if text := b.TextContent(); text != "" {
			textParts = append(textParts, text)
		}
	}
	if len(textParts) > 0 {
		out = append(out, ollama.ChatMessage{Role: msg.Role, Content: strings.Join(textParts, "\n")})
	}
	if len(out) == 0 {
		out = append(out, ollama.ChatMessage{Role: msg.Role, Content: ""})
	}
	return out
}

// buildOptions maps sampling parameters; nil when nothing is set so the
// options field is omitted on the wire.
func buildOptions(req *anthropic.Request) *ollama.Options {
	opts := &ollama.Options{
		NumPredict:  req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        req.TopK,
		Stop:        req.StopSequences,
	}
	if opts.NumPredict == 0 && opts.Temperature == nil && opts.TopP == nil &&
		opts.TopK == nil && len(opts.Stop) == 0 {
		return nil
	}
	return opts
}

// convertTools translates tool declarations to Ollama's function wrapper.
func convertTools(tools []anthropic.ToolDefinition) []ollama.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]ollama.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, ollama.Tool{
			Type: "function",
			Function: ollama.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}
