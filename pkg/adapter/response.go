package adapter

import (
	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
	"github.com/kadirpekel/ollamabridge/pkg/healing"
	"github.com/kadirpekel/ollamabridge/pkg/ollama"
)

// stopReasonFrom maps Ollama's done_reason onto the Messages API stop
// reason. Only "length" is distinguished; everything else ended normally.
func stopReasonFrom(doneReason string) string {
	if doneReason == "length" {
		return anthropic.StopReasonMaxTokens
	}
	return anthropic.StopReasonEndTurn
}

// BuildResponse converts a non-streaming chat result. Content order is
// thinking, tool calls, text; the response always carries at least one
// block. The model field echoes the client-supplied name, never the
// resolved upstream one.
func BuildResponse(requestedModel string, healer *healing.Healer, chat ollama.ChatResponse) anthropic.Response {
	var content []anthropic.ContentBlock

	if chat.Message.Thinking != "" {
		content = append(content, anthropic.ThinkingBlock(chat.Message.Thinking))
	}
	toolUses := 0
	for _, call := range chat.Message.ToolCalls {
		block, ok := healer.HealToolCall(call.Function.Name, call.Function.Arguments)
		if !ok {
			continue
		}
		content = append(content, block)
		toolUses++
	}
	if chat.Message.Content != "" {
		content = append(content, anthropic.TextBlock(chat.Message.Content))
	}
	if len(content) == 0 {
		content = append(content, anthropic.TextBlock(""))
	}

	stopReason := stopReasonFrom(chat.DoneReason)
	if toolUses > 0 {
		stopReason = anthropic.StopReasonEndTurn
	}

	return anthropic.Response{
		ID:         anthropic.NewMessageID(),
		Type:       "message",
		Role:       "assistant",
		Content:    content,
		Model:      requestedModel,
		StopReason: &stopReason,
		Usage: anthropic.Usage{
			InputTokens:  chat.PromptEvalCount,
			OutputTokens: chat.EvalCount,
		},
	}
}
