// Package ollama implements the client side of the Ollama HTTP API: chat
// (streaming and non-streaming) and model listing.
package ollama

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *Options      `json:"options,omitempty"`
	Tools    []Tool        `json:"tools,omitempty"`
	Think    bool          `json:"think,omitempty"`
}

// ChatMessage is one turn in Ollama's chat shape.
type ChatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Thinking  string     `json:"thinking,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Options carries sampling parameters. Only non-zero fields are sent.
type Options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// Tool is Ollama's function-wrapper tool definition.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the inner function declaration of a Tool.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a model-produced call request.
type ToolCall struct {
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction names the tool and carries its arguments. Arguments is
// declared as any because local models sometimes emit the object as a JSON
// string (or worse); the healer normalizes it downstream.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

// ChatResponse is the single-object body of a non-streaming chat call and
// the per-line shape of a streaming one.
type ChatResponse struct {
	Model           string      `json:"model"`
	CreatedAt       string      `json:"created_at,omitempty"`
	Message         ChatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// StreamChunk is one NDJSON line of a streaming chat response.
type StreamChunk = ChatResponse

// ModelInfo describes one installed model from GET /api/tags.
type ModelInfo struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
	Size       int64  `json:"size,omitempty"`
}

// TagsResponse is the body of GET /api/tags.
type TagsResponse struct {
	Models []ModelInfo `json:"models"`
}
