package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
)

func TestBuildChatRequest_PlainText(t *testing.T) {
	req := &anthropic.Request{
		Model: "claude-3-5-sonnet-20241022",
		Messages: []anthropic.Message{
			{Role: "user", Content: anthropic.TextContentValue("Hello")},
		},
		MaxTokens: 100,
	}

	out := BuildChatRequest(req, "qwen3:14b", false)

	assert.Equal(t, "qwen3:14b", out.Model)
	assert.False(t, out.Stream)
	assert.False(t, out.Think)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "user", out.Messages[0].Role)
	assert.Equal(t, "Hello", out.Messages[0].Content)
	require.NotNil(t, out.Options)
	assert.Equal(t, 100, out.Options.NumPredict)
}

func TestBuildChatRequest_SystemPrompt(t *testing.T) {
	system := anthropic.TextContentValue("You are terse.")
	req := &anthropic.Request{
		System: &system,
		Messages: []anthropic.Message{
			{Role: "user", Content: anthropic.TextContentValue("hi")},
		},
	}

	out := BuildChatRequest(req, "qwen3:14b", false)

	require.Len(t, out.Messages, 2)
	assert.Equal(t, "system", out.Messages[0].Role)
	assert.Equal(t, "You are terse.", out.Messages[0].Content)
}

func TestBuildChatRequest_SystemBlockListFlattens(t *testing.T) {
	system := anthropic.BlocksContent(
		anthropic.TextBlock("Rule one."),
		anthropic.TextBlock("Rule two."),
	)
	req := &anthropic.Request{
		System:   &system,
		Messages: []anthropic.Message{{Role: "user", Content: anthropic.TextContentValue("hi")}},
	}

	out := BuildChatRequest(req, "m", false)

	assert.Equal(t, "Rule one.\nRule two.", out.Messages[0].Content)
}

func TestBuildChatRequest_AssistantToolUse(t *testing.T) {
	req := &anthropic.Request{
		Messages: []anthropic.Message{
			{Role: "assistant", Content: anthropic.BlocksContent(
				anthropic.TextBlock("Reading the file."),
				anthropic.ToolUseBlock("toolu_0000000000000001", "Read", map[string]any{"file_path": "/a"}),
			)},
		},
	}

	out := BuildChatRequest(req, "m", false)

	require.Len(t, out.Messages, 1)
	msg := out.Messages[0]
	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "Reading the file.", msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "Read", msg.ToolCalls[0].Function.Name)
	assert.Equal(t, map[string]any{"file_path": "/a"}, msg.ToolCalls[0].Function.Arguments)
}

func TestBuildChatRequest_ToolResultsBecomeToolMessages(t *testing.T) {
	req := &anthropic.Request{
		Messages: []anthropic.Message{
			{Role: "user", Content: anthropic.BlocksContent(
				anthropic.ContentBlock{Type: anthropic.BlockTypeToolResult, ToolUseID: "toolu_0000000000000001", Content: "result one"},
				anthropic.ContentBlock{Type: anthropic.BlockTypeToolResult, ToolUseID: "toolu_0000000000000002", Content: "result two"},
			)},
		},
	}

	out := BuildChatRequest(req, "m", false)

	require.Len(t, out.Messages, 2)
	assert.Equal(t, "tool", out.Messages[0].Role)
	assert.Equal(t, "result one", out.Messages[0].Content)
	assert.Equal(t, "tool", out.Messages[1].Role)
	assert.Equal(t, "result two", out.Messages[1].Content)
}

func TestBuildChatRequest_OptionsOmittedWhenEmpty(t *testing.T) {
	req := &anthropic.Request{
		Messages: []anthropic.Message{{Role: "user", Content: anthropic.TextContentValue("hi")}},
	}

	out := BuildChatRequest(req, "m", false)
	assert.Nil(t, out.Options)
}

func TestBuildChatRequest_SamplingOptions(t *testing.T) {
	temp := 0.2
	topP := 0.9
	topK := 40
	req := &anthropic.Request{
		Messages:      []anthropic.Message{{Role: "user", Content: anthropic.TextContentValue("hi")}},
		MaxTokens:     256,
		Temperature:   &temp,
		TopP:          &topP,
		TopK:          &topK,
		StopSequences: []string{"END"},
	}

	out := BuildChatRequest(req, "m", false)

	require.NotNil(t, out.Options)
	assert.Equal(t, 256, out.Options.NumPredict)
	assert.Equal(t, &temp, out.Options.Temperature)
	assert.Equal(t, &topP, out.Options.TopP)
	assert.Equal(t, &topK, out.Options.TopK)
	assert.Equal(t, []string{"END"}, out.Options.Stop)
}

func TestBuildChatRequest_Tools(t *testing.T) {
	req := &anthropic.Request{
		Messages: []anthropic.Message{{Role: "user", Content: anthropic.TextContentValue("hi")}},
		Tools: []anthropic.ToolDefinition{{
			Name:        "Read",
			Description: "Read a file",
			InputSchema: map[string]any{"type": "object"},
		}},
	}

	out := BuildChatRequest(req, "m", false)

	require.Len(t, out.Tools, 1)
	assert.Equal(t, "function", out.Tools[0].Type)
	assert.Equal(t, "Read", out.Tools[0].Function.Name)
	assert.Equal(t, map[string]any{"type": "object"}, out.Tools[0].Function.Parameters)
}

func TestBuildChatRequest_ThinkFlag(t *testing.T) {
	req := &anthropic.Request{
		Messages: []anthropic.Message{{Role: "user", Content: anthropic.TextContentValue("hi")}},
	}

	out := BuildChatRequest(req, "qwen3:14b", true)
	assert.True(t, out.Think)
}
