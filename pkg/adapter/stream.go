package adapter

import (
	"encoding/json"

	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
	"github.com/kadirpekel/ollamabridge/pkg/healing"
	"github.com/kadirpekel/ollamabridge/pkg/ollama"
)

// EventSink receives formatted streaming events. The HTTP layer implements
// it over an SSE writer; tests implement it over a slice.
type EventSink interface {
	Send(event string, payload any) error
}

type blockState int

const (
	blockNone blockState = iota
	blockThinking
	blockText
	blockToolUse
)

// Transformer converts Ollama stream chunks into a well-formed Messages
// API event sequence. One instance serves exactly one request.
type Transformer struct {
	sink        EventSink
	healer      *healing.Healer
	model       string
	inputTokens int

	isFirst     bool
	state       blockState
	index       int
	toolUseSeen bool
}

// NewTransformer builds the per-request stream state. model is the
// client-supplied name echoed in message_start; inputTokens seeds the
// opening usage figure.
func NewTransformer(sink EventSink, healer *healing.Healer, model string, inputTokens int) *Transformer {
	return &Transformer{
		sink:        sink,
		healer:      healer,
		model:       model,
		inputTokens: inputTokens,
		isFirst:     true,
	}
}

// Feed processes one parsed upstream chunk, emitting whatever events it
// implies. The chunk with done=true finalizes the transcript.
func (t *Transformer) Feed(chunk ollama.StreamChunk) error {
	msg := chunk.Message

	if t.isFirst {
		t.isFirst = false
		if err := t.start(); err != nil {
			return err
		}
		switch {
		case msg.Thinking != "":
			if err := t.openBlock(blockThinking); err != nil {
				return err
			}
		case len(msg.ToolCalls) > 0:
			if err := t.emitToolCalls(msg.ToolCalls); err != nil {
				return err
			}
			if err := t.ping(); err != nil {
				return err
			}
			if chunk.Done {
				return t.finish(chunk)
			}
			return nil
		default:
			if err := t.openBlock(blockText); err != nil {
				return err
			}
		}
		if err := t.ping(); err != nil {
			return err
		}
	}

	// thinking ended, prose begins
	if t.state == blockThinking && msg.Thinking == "" && msg.Content != "" {
		if err := t.closeBlock(); err != nil {
			return err
		}
		if err := t.openBlock(blockText); err != nil {
			return err
		}
	}

	switch {
	case len(msg.ToolCalls) > 0:
		if t.state != blockNone {
			if err := t.closeBlock(); err != nil {
				return err
			}
		}
		if err := t.emitToolCalls(msg.ToolCalls); err != nil {
			return err
		}
	case msg.Thinking != "" && t.state == blockThinking:
		if err := t.delta(anthropic.Delta{Type: anthropic.DeltaTypeThinking, Thinking: msg.Thinking}); err != nil {
			return err
		}
	case msg.Content != "" && t.state == blockText:
		if err := t.delta(anthropic.Delta{Type: anthropic.DeltaTypeText, Text: msg.Content}); err != nil {
			return err
		}
	}

	if chunk.Done {
		if t.state != blockNone {
			if err := t.closeBlock(); err != nil {
				return err
			}
		}
		return t.finish(chunk)
	}
	return nil
}

func (t *Transformer) start() error {
	return t.sink.Send(anthropic.EventMessageStart, anthropic.MessageStartEvent{
		Type: anthropic.EventMessageStart,
		Message: anthropic.Response{
			ID:      anthropic.NewMessageID(),
			Type:    "message",
			Role:    "assistant",
			Content: []anthropic.ContentBlock{},
			Model:   t.model,
			Usage: anthropic.Usage{
				InputTokens:  t.inputTokens,
				OutputTokens: 1,
			},
		},
	})
}

func (t *Transformer) ping() error {
	return t.sink.Send(anthropic.EventPing, anthropic.PingEvent{Type: anthropic.EventPing})
}

func (t *Transformer) openBlock(state blockState) error {
	var block any
	switch state {
	case blockThinking:
		block = anthropic.NewThinkingBlockStart()
	default:
		block = anthropic.NewTextBlockStart()
	}
	t.state = state
	return t.sink.Send(anthropic.EventContentBlockStart, anthropic.ContentBlockStartEvent{
		Type:         anthropic.EventContentBlockStart,
		Index:        t.index,
		ContentBlock: block,
	})
}

func (t *Transformer) delta(d anthropic.Delta) error {
	return t.sink.Send(anthropic.EventContentBlockDelta, anthropic.ContentBlockDeltaEvent{
		Type:  anthropic.EventContentBlockDelta,
		Index: t.index,
		Delta: d,
	})
}

func (t *Transformer) closeBlock() error {
	err := t.sink.Send(anthropic.EventContentBlockStop, anthropic.ContentBlockStopEvent{
		Type:  anthropic.EventContentBlockStop,
		Index: t.index,
	})
	t.index++
	t.state = blockNone
	return err
}

// emitToolCalls heals each call and emits its full block lifecycle: start,
// one input_json_delta carrying the serialized input, stop. Calls the
// healer drops produce no events.
func (t *Transformer) emitToolCalls(calls []ollama.ToolCall) error {
	for _, call := range calls {
		block, ok := t.healer.HealToolCall(call.Function.Name, call.Function.Arguments)
		if !ok {
			continue
		}
		t.toolUseSeen = true

		if err := t.sink.Send(anthropic.EventContentBlockStart, anthropic.ContentBlockStartEvent{
			Type:         anthropic.EventContentBlockStart,
			Index:        t.index,
			ContentBlock: anthropic.NewToolUseBlockStart(block.ID, block.Name),
		}); err != nil {
			return err
		}

		input, err := json.Marshal(block.Input)
		if err != nil {
			input = []byte("{}")
		}
		if err := t.delta(anthropic.Delta{Type: anthropic.DeltaTypeInputJSON, PartialJSON: string(input)}); err != nil {
			return err
		}
		if err := t.closeBlock(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transformer) finish(chunk ollama.StreamChunk) error {
	// a transcript carries at least one block lifecycle, even when the
	// upstream produced nothing usable
	if t.index == 0 && t.state == blockNone {
		if err := t.openBlock(blockText); err != nil {
			return err
		}
		if err := t.closeBlock(); err != nil {
			return err
		}
	}

	stopReason := stopReasonFrom(chunk.DoneReason)
	if t.toolUseSeen {
		stopReason = anthropic.StopReasonEndTurn
	}
	if err := t.sink.Send(anthropic.EventMessageDelta, anthropic.MessageDeltaEvent{
		Type:  anthropic.EventMessageDelta,
		Delta: anthropic.MessageDeltaBody{StopReason: stopReason},
		Usage: anthropic.MessageDeltaUsage{OutputTokens: chunk.EvalCount},
	}); err != nil {
		return err
	}
	return t.sink.Send(anthropic.EventMessageStop, anthropic.MessageStopEvent{Type: anthropic.EventMessageStop})
}
