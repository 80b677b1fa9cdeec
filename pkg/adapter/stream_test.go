package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
	"github.com/kadirpekel/ollamabridge/pkg/healing"
	"github.com/kadirpekel/ollamabridge/pkg/ollama"
)

type recordedEvent struct {
	name    string
	payload any
}

type recordingSink struct {
	events []recordedEvent
}

func (s *recordingSink) Send(event string, payload any) error {
	s.events = append(s.events, recordedEvent{name: event, payload: payload})
	return nil
}

func (s *recordingSink) names() []string {
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.name
	}
	return out
}

func textChunk(text string, done bool) ollama.StreamChunk {
	return ollama.StreamChunk{Message: ollama.ChatMessage{Role: "assistant", Content: text}, Done: done}
}

func TestTransformer_StreamingText(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransformer(sink, healing.NewHealer(nil, nil), "claude-3-5-sonnet-20241022", 15)

	require.NoError(t, tr.Feed(textChunk("Hello", false)))
	require.NoError(t, tr.Feed(textChunk(" world", false)))
	done := ollama.StreamChunk{Done: true, DoneReason: "stop", EvalCount: 12}
	require.NoError(t, tr.Feed(done))

	assert.Equal(t, []string{
		anthropic.EventMessageStart,
		anthropic.EventContentBlockStart,
		anthropic.EventPing,
		anthropic.EventContentBlockDelta,
		anthropic.EventContentBlockDelta,
		anthropic.EventContentBlockStop,
		anthropic.EventMessageDelta,
		anthropic.EventMessageStop,
	}, sink.names())

	start := sink.events[0].payload.(anthropic.MessageStartEvent)
	assert.Equal(t, "claude-3-5-sonnet-20241022", start.Message.Model)
	assert.Equal(t, 15, start.Message.Usage.InputTokens)
	assert.Equal(t, 1, start.Message.Usage.OutputTokens)
	assert.Empty(t, start.Message.Content)

	first := sink.events[3].payload.(anthropic.ContentBlockDeltaEvent)
	assert.Equal(t, anthropic.DeltaTypeText, first.Delta.Type)
	assert.Equal(t, "Hello", first.Delta.Text)

	final := sink.events[6].payload.(anthropic.MessageDeltaEvent)
	assert.Equal(t, anthropic.StopReasonEndTurn, final.Delta.StopReason)
	assert.Equal(t, 12, final.Usage.OutputTokens)
}

func TestTransformer_ThinkingThenText(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransformer(sink, healing.NewHealer(nil, nil), "m", 0)

	require.NoError(t, tr.Feed(ollama.StreamChunk{Message: ollama.ChatMessage{Thinking: "hmm"}}))
	require.NoError(t, tr.Feed(ollama.StreamChunk{Message: ollama.ChatMessage{Thinking: " right"}}))
	require.NoError(t, tr.Feed(textChunk("Answer", false)))
	require.NoError(t, tr.Feed(ollama.StreamChunk{Done: true, DoneReason: "stop"}))

	assert.Equal(t, []string{
		anthropic.EventMessageStart,
		anthropic.EventContentBlockStart, // thinking
		anthropic.EventPing,
		anthropic.EventContentBlockDelta,
		anthropic.EventContentBlockDelta,
		anthropic.EventContentBlockStop,
		anthropic.EventContentBlockStart, // text
		anthropic.EventContentBlockDelta,
		anthropic.EventContentBlockStop,
		anthropic.EventMessageDelta,
		anthropic.EventMessageStop,
	}, sink.names())

	thinkingStart := sink.events[1].payload.(anthropic.ContentBlockStartEvent)
	assert.Equal(t, 0, thinkingStart.Index)
	assert.IsType(t, anthropic.ThinkingBlockStart{}, thinkingStart.ContentBlock)

	textStart := sink.events[6].payload.(anthropic.ContentBlockStartEvent)
	assert.Equal(t, 1, textStart.Index)
	assert.IsType(t, anthropic.TextBlockStart{}, textStart.ContentBlock)
}

func TestTransformer_ToolCallsInFirstDoneChunk(t *testing.T) {
	sink := &recordingSink{}
	idx := healing.NewSchemaIndex([]anthropic.ToolDefinition{{
		Name: "Read",
		InputSchema: map[string]any{
			"properties": map[string]any{"file_path": map[string]any{"type": "string"}},
		},
	}})
	tr := NewTransformer(sink, healing.NewHealer(idx, nil), "m", 0)

	require.NoError(t, tr.Feed(ollama.StreamChunk{
		Message: ollama.ChatMessage{
			ToolCalls: []ollama.ToolCall{{
				Function: ollama.ToolCallFunction{Name: "Read", Arguments: `{"file":"/tmp/a"}`},
			}},
		},
		Done:       true,
		DoneReason: "stop",
		EvalCount:  5,
	}))

	assert.Equal(t, []string{
		anthropic.EventMessageStart,
		anthropic.EventContentBlockStart,
		anthropic.EventContentBlockDelta,
		anthropic.EventContentBlockStop,
		anthropic.EventPing,
		anthropic.EventMessageDelta,
		anthropic.EventMessageStop,
	}, sink.names())

	start := sink.events[1].payload.(anthropic.ContentBlockStartEvent)
	toolStart := start.ContentBlock.(anthropic.ToolUseBlockStart)
	assert.Equal(t, "Read", toolStart.Name)
	assert.Regexp(t, `^toolu_[0-9a-f]{16}$`, toolStart.ID)
	assert.Equal(t, map[string]any{}, toolStart.Input)

	delta := sink.events[2].payload.(anthropic.ContentBlockDeltaEvent)
	assert.Equal(t, anthropic.DeltaTypeInputJSON, delta.Delta.Type)
	assert.JSONEq(t, `{"file_path":"/tmp/a"}`, delta.Delta.PartialJSON)

	final := sink.events[5].payload.(anthropic.MessageDeltaEvent)
	assert.Equal(t, anthropic.StopReasonEndTurn, final.Delta.StopReason)
}

func TestTransformer_ToolCallsAfterTextOverrideStopReason(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransformer(sink, healing.NewHealer(nil, nil), "m", 0)

	require.NoError(t, tr.Feed(textChunk("Let me check.", false)))
	require.NoError(t, tr.Feed(ollama.StreamChunk{
		Message: ollama.ChatMessage{
			ToolCalls: []ollama.ToolCall{{
				Function: ollama.ToolCallFunction{Name: "Glob", Arguments: map[string]any{"pattern": "*.go"}},
			}},
		},
	}))
	require.NoError(t, tr.Feed(ollama.StreamChunk{Done: true, DoneReason: "length"}))

	names := sink.names()
	// text block closes before the tool_use block opens
	assert.Equal(t, []string{
		anthropic.EventMessageStart,
		anthropic.EventContentBlockStart,
		anthropic.EventPing,
		anthropic.EventContentBlockDelta,
		anthropic.EventContentBlockStop,
		anthropic.EventContentBlockStart,
		anthropic.EventContentBlockDelta,
		anthropic.EventContentBlockStop,
		anthropic.EventMessageDelta,
		anthropic.EventMessageStop,
	}, names)

	final := sink.events[len(sink.events)-2].payload.(anthropic.MessageDeltaEvent)
	assert.Equal(t, anthropic.StopReasonEndTurn, final.Delta.StopReason)
}

func TestTransformer_LengthMapsToMaxTokens(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransformer(sink, healing.NewHealer(nil, nil), "m", 0)

	require.NoError(t, tr.Feed(textChunk("partial", false)))
	require.NoError(t, tr.Feed(ollama.StreamChunk{Done: true, DoneReason: "length"}))

	final := sink.events[len(sink.events)-2].payload.(anthropic.MessageDeltaEvent)
	assert.Equal(t, anthropic.StopReasonMaxTokens, final.Delta.StopReason)
}

func TestTransformer_BalancedBlockEvents(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransformer(sink, healing.NewHealer(nil, nil), "m", 0)

	require.NoError(t, tr.Feed(ollama.StreamChunk{Message: ollama.ChatMessage{Thinking: "a"}}))
	require.NoError(t, tr.Feed(textChunk("b", false)))
	require.NoError(t, tr.Feed(ollama.StreamChunk{
		Message: ollama.ChatMessage{ToolCalls: []ollama.ToolCall{{
			Function: ollama.ToolCallFunction{Name: "T", Arguments: map[string]any{}},
		}}},
	}))
	require.NoError(t, tr.Feed(ollama.StreamChunk{Done: true}))

	starts, stops := 0, 0
	for _, name := range sink.names() {
		switch name {
		case anthropic.EventContentBlockStart:
			starts++
		case anthropic.EventContentBlockStop:
			stops++
		}
	}
	assert.Equal(t, starts, stops)
	assert.Equal(t, anthropic.EventMessageStart, sink.names()[0])
	assert.Equal(t, anthropic.EventMessageStop, sink.names()[len(sink.names())-1])
}

func TestTransformer_EmptyDeltasSuppressed(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTransformer(sink, healing.NewHealer(nil, nil), "m", 0)

	require.NoError(t, tr.Feed(textChunk("a", false)))
	require.NoError(t, tr.Feed(textChunk("", false)))
	require.NoError(t, tr.Feed(ollama.StreamChunk{Done: true}))

	deltas := 0
	for _, name := range sink.names() {
		if name == anthropic.EventContentBlockDelta {
			deltas++
		}
	}
	assert.Equal(t, 1, deltas)
}
