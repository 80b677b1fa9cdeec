// Package anthropic defines the wire types of the Anthropic Messages API
// surface the gateway presents to clients: requests, responses, content
// blocks, streaming events, and error envelopes.
package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Content block discriminators.
const (
	BlockTypeText       = "text"
	BlockTypeThinking   = "thinking"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// Stop reasons.
const (
	StopReasonEndTurn      = "end_turn"
	StopReasonMaxTokens    = "max_tokens"
	StopReasonStopSequence = "stop_sequence"
)

// ContentBlock is a tagged unit of message content. Type selects which of
// the payload fields are meaningful.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking
	Thinking string `json:"thinking,omitempty"`

	// tool_use. Input is omitzero, not omitempty: a no-argument call must
	// still serialize an explicit empty "input" object.
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitzero"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   any    `json:"content,omitempty"` // string or []ContentBlock
	IsError   bool   `json:"is_error,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

// ThinkingBlock builds a thinking content block.
func ThinkingBlock(thinking string) ContentBlock {
	return ContentBlock{Type: BlockTypeThinking, Thinking: thinking}
}

// ToolUseBlock builds a tool_use content block.
func ToolUseBlock(id, name string, input map[string]any) ContentBlock {
	if input == nil {
		input = map[string]any{}
	}
	return ContentBlock{Type: BlockTypeToolUse, ID: id, Name: name, Input: input}
}

// TextContent returns the textual projection of a content block: text and
// thinking blocks yield their payload, tool_use yields the JSON-serialized
// input, tool_result projects its content recursively.
func (b ContentBlock) TextContent() string {
	switch b.Type {
	case BlockTypeText:
		return b.Text
	case BlockTypeThinking:
		return b.Thinking
	case BlockTypeToolUse:
		data, err := json.Marshal(b.Input)
		if err != nil {
			return ""
		}
		return string(data)
	case BlockTypeToolResult:
		return toolResultText(b.Content)
	}
	return ""
}

// toolResultText flattens a tool_result content value. The wire form is
// either a plain string or a list of content blocks.
func toolResultText(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case []ContentBlock:
		parts := make([]string, 0, len(v))
		for _, b := range v {
			parts = append(parts, b.TextContent())
		}
		return strings.Join(parts, "\n")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := m["text"].(string); ok {
				parts = append(parts, text)
			} else if thinking, ok := m["thinking"].(string); ok {
				parts = append(parts, thinking)
			}
		}
		return strings.Join(parts, "\n")
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// MessageContent holds message content that arrives on the wire either as a
// plain string or as a list of content blocks.
type MessageContent struct {
	Blocks []ContentBlock
	text   string
	isText bool
}

// TextContentValue builds a MessageContent carrying a plain string.
func TextContentValue(text string) MessageContent {
	return MessageContent{text: text, isText: true}
}

// BlocksContent builds a MessageContent carrying content blocks.
func BlocksContent(blocks ...ContentBlock) MessageContent {
	return MessageContent{Blocks: blocks}
}

// UnmarshalJSON accepts both wire shapes.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.text = text
		c.isText = true
		c.Blocks = nil
		return nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("content must be a string or a list of content blocks: %w", err)
	}
	c.Blocks = blocks
	c.isText = false
	return nil
}

// MarshalJSON preserves the original wire shape.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.isText {
		return json.Marshal(c.text)
	}
	return json.Marshal(c.Blocks)
}

// IsText reports whether the content was a plain string on the wire.
func (c MessageContent) IsText() bool { return c.isText }

// AsBlocks normalizes the content to a block list. Plain text becomes a
// single text block; empty content yields nil.
func (c MessageContent) AsBlocks() []ContentBlock {
	if c.isText {
		if c.text == "" {
			return nil
		}
		return []ContentBlock{TextBlock(c.text)}
	}
	return c.Blocks
}

// TextContent flattens the content to a single string, concatenating the
// textual projection of every block.
func (c MessageContent) TextContent() string {
	if c.isText {
		return c.text
	}
	var sb strings.Builder
	for _, b := range c.Blocks {
		sb.WriteString(b.TextContent())
	}
	return sb.String()
}

// Message is one conversation turn.
type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// ToolDefinition declares a tool the model may call. InputSchema is JSON
// Schema with a "properties" object whose values carry a "type" string.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// ThinkingConfig is the request-level extended-thinking switch.
type ThinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens,omitempty"`
	Effort       string `json:"effort,omitempty"`
}

// Request is an Anthropic Messages API request.
type Request struct {
	Model         string          `json:"model"`
	Messages      []Message       `json:"messages"`
	System        *MessageContent `json:"system,omitempty"`
	MaxTokens     int             `json:"max_tokens,omitempty"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	TopK          *int            `json:"top_k,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Stream        bool            `json:"stream,omitempty"`
	Tools         []ToolDefinition `json:"tools,omitempty"`
	ToolChoice    json.RawMessage `json:"tool_choice,omitempty"`
	Thinking      *ThinkingConfig `json:"thinking,omitempty"`
}

// Usage carries token accounting.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is an Anthropic Messages API response.
type Response struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   *string        `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// CountTokensResponse is the body of POST /v1/messages/count_tokens.
type CountTokensResponse struct {
	InputTokens int `json:"input_tokens"`
}

// Error kinds used in error envelopes.
const (
	ErrorTypeAPI                  = "api_error"
	ErrorTypeAPIConnection        = "api_connection_error"
	ErrorTypeThinkingNotSupported = "thinking_not_supported"
)

// ErrorDetail is the inner error object of an error envelope.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorResponse is the Anthropic-shaped error envelope.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// NewErrorResponse builds an error envelope of the given kind.
func NewErrorResponse(kind, message string) ErrorResponse {
	return ErrorResponse{Type: "error", Error: ErrorDetail{Type: kind, Message: message}}
}
