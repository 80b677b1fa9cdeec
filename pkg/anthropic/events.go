package anthropic

// Streaming event names, in the order a well-formed transcript emits them.
const (
	EventMessageStart      = "message_start"
	EventContentBlockStart = "content_block_start"
	EventPing              = "ping"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
)

// Delta discriminators within content_block_delta events.
const (
	DeltaTypeText      = "text_delta"
	DeltaTypeThinking  = "thinking_delta"
	DeltaTypeInputJSON = "input_json_delta"
)

// MessageStartEvent opens a streaming transcript.
type MessageStartEvent struct {
	Type    string   `json:"type"`
	Message Response `json:"message"`
}

// ContentBlockStartEvent opens one content block at Index. ContentBlock is
// typed loosely because the wire shape differs per block kind: an opening
// text block carries an explicit empty "text", a tool_use block an explicit
// empty "input" object.
type ContentBlockStartEvent struct {
	Type         string `json:"type"`
	Index        int    `json:"index"`
	ContentBlock any    `json:"content_block"`
}

// Opening block payloads for content_block_start events.

type TextBlockStart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ThinkingBlockStart struct {
	Type     string `json:"type"`
	Thinking string `json:"thinking"`
}

type ToolUseBlockStart struct {
	Type  string         `json:"type"`
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// NewTextBlockStart opens an empty text block.
func NewTextBlockStart() TextBlockStart {
	return TextBlockStart{Type: BlockTypeText}
}

// NewThinkingBlockStart opens an empty thinking block.
func NewThinkingBlockStart() ThinkingBlockStart {
	return ThinkingBlockStart{Type: BlockTypeThinking}
}

// NewToolUseBlockStart opens a tool_use block; the input arrives through a
// following input_json_delta.
func NewToolUseBlockStart(id, name string) ToolUseBlockStart {
	return ToolUseBlockStart{Type: BlockTypeToolUse, ID: id, Name: name, Input: map[string]any{}}
}

// Delta is the payload of a content_block_delta event.
type Delta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

// ContentBlockDeltaEvent extends the block at Index.
type ContentBlockDeltaEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Delta Delta  `json:"delta"`
}

// ContentBlockStopEvent closes the block at Index.
type ContentBlockStopEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// MessageDeltaBody carries the terminal stop reason.
type MessageDeltaBody struct {
	StopReason   string  `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

// MessageDeltaUsage carries final output token usage.
type MessageDeltaUsage struct {
	OutputTokens int `json:"output_tokens"`
}

// MessageDeltaEvent precedes message_stop and finalizes usage.
type MessageDeltaEvent struct {
	Type  string            `json:"type"`
	Delta MessageDeltaBody  `json:"delta"`
	Usage MessageDeltaUsage `json:"usage"`
}

// PingEvent is emitted once after the first content_block_start.
type PingEvent struct {
	Type string `json:"type"`
}

// MessageStopEvent terminates the transcript.
type MessageStopEvent struct {
	Type string `json:"type"`
}
