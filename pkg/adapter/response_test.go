package adapter

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
	"github.com/kadirpekel/ollamabridge/pkg/healing"
	"github.com/kadirpekel/ollamabridge/pkg/ollama"
)

func TestBuildResponse_PlainCompletion(t *testing.T) {
	chat := ollama.ChatResponse{
		Message:         ollama.ChatMessage{Role: "assistant", Content: "Hello from Ollama!"},
		Done:            true,
		DoneReason:      "stop",
		EvalCount:       8,
		PromptEvalCount: 15,
	}

	resp := BuildResponse("claude-3-5-sonnet-20241022", healing.NewHealer(nil, nil), chat)

	assert.Equal(t, "claude-3-5-sonnet-20241022", resp.Model)
	assert.Equal(t, "message", resp.Type)
	assert.Equal(t, "assistant", resp.Role)
	assert.Regexp(t, regexp.MustCompile(`^msg_[0-9a-f]{16}$`), resp.ID)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, anthropic.TextBlock("Hello from Ollama!"), resp.Content[0])
	require.NotNil(t, resp.StopReason)
	assert.Equal(t, anthropic.StopReasonEndTurn, *resp.StopReason)
	assert.Equal(t, 15, resp.Usage.InputTokens)
	assert.Equal(t, 8, resp.Usage.OutputTokens)
}

func TestBuildResponse_LengthMapsToMaxTokens(t *testing.T) {
	chat := ollama.ChatResponse{
		Message:    ollama.ChatMessage{Content: "truncat"},
		Done:       true,
		DoneReason: "length",
	}

	resp := BuildResponse("m", healing.NewHealer(nil, nil), chat)
	assert.Equal(t, anthropic.StopReasonMaxTokens, *resp.StopReason)
}

func TestBuildResponse_ToolCallsOverrideStopReason(t *testing.T) {
	idx := healing.NewSchemaIndex([]anthropic.ToolDefinition{{
		Name: "Read",
		InputSchema: map[string]any{
			"properties": map[string]any{"file_path": map[string]any{"type": "string"}},
		},
	}})
	chat := ollama.ChatResponse{
		Message: ollama.ChatMessage{
			ToolCalls: []ollama.ToolCall{{
				Function: ollama.ToolCallFunction{Name: "Read", Arguments: `{"file":"/tmp/a"}`},
			}},
		},
		Done:       true,
		DoneReason: "length",
	}

	resp := BuildResponse("m", healing.NewHealer(idx, nil), chat)

	assert.Equal(t, anthropic.StopReasonEndTurn, *resp.StopReason)
	require.Len(t, resp.Content, 1)
	block := resp.Content[0]
	assert.Equal(t, anthropic.BlockTypeToolUse, block.Type)
	assert.Equal(t, "Read", block.Name)
	assert.Regexp(t, regexp.MustCompile(`^toolu_[0-9a-f]{16}$`), block.ID)
	assert.Equal(t, map[string]any{"file_path": "/tmp/a"}, block.Input)
}

func TestBuildResponse_UnknownToolCallDropped(t *testing.T) {
	idx := healing.NewSchemaIndex([]anthropic.ToolDefinition{{
		Name:        "Read",
		InputSchema: map[string]any{"properties": map[string]any{}},
	}})
	chat := ollama.ChatResponse{
		Message: ollama.ChatMessage{
			ToolCalls: []ollama.ToolCall{{
				Function: ollama.ToolCallFunction{Name: "Fetch", Arguments: `{"url":"x"}`},
			}},
		},
		Done:       true,
		DoneReason: "stop",
	}

	resp := BuildResponse("m", healing.NewHealer(idx, nil), chat)

	require.Len(t, resp.Content, 1)
	assert.Equal(t, anthropic.TextBlock(""), resp.Content[0])
	assert.Equal(t, anthropic.StopReasonEndTurn, *resp.StopReason)
}

func TestBuildResponse_ContentOrderThinkingToolsText(t *testing.T) {
	chat := ollama.ChatResponse{
		Message: ollama.ChatMessage{
			Content:  "done",
			Thinking: "let me call the tool",
			ToolCalls: []ollama.ToolCall{{
				Function: ollama.ToolCallFunction{Name: "Glob", Arguments: map[string]any{"pattern": "*.go"}},
			}},
		},
		Done: true,
	}

	resp := BuildResponse("m", healing.NewHealer(nil, nil), chat)

	require.Len(t, resp.Content, 3)
	assert.Equal(t, anthropic.BlockTypeThinking, resp.Content[0].Type)
	assert.Equal(t, anthropic.BlockTypeToolUse, resp.Content[1].Type)
	assert.Equal(t, anthropic.BlockTypeText, resp.Content[2].Type)
}

func TestBuildResponse_EmptyContentGetsEmptyTextBlock(t *testing.T) {
	chat := ollama.ChatResponse{Done: true, DoneReason: "stop"}

	resp := BuildResponse("m", healing.NewHealer(nil, nil), chat)

	require.Len(t, resp.Content, 1)
	assert.Equal(t, anthropic.TextBlock(""), resp.Content[0])
}
