package anthropic

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageContent_UnmarshalString(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"hello"}`), &msg))

	assert.True(t, msg.Content.IsText())
	assert.Equal(t, "hello", msg.Content.TextContent())

	blocks := msg.Content.AsBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockTypeText, blocks[0].Type)
}

func TestMessageContent_UnmarshalBlocks(t *testing.T) {
	raw := `{"role":"assistant","content":[
		{"type":"thinking","thinking":"hmm"},
		{"type":"tool_use","id":"toolu_0000000000000001","name":"Read","input":{"file_path":"/x"}},
		{"type":"text","text":"done"}
	]}`
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	assert.False(t, msg.Content.IsText())
	blocks := msg.Content.AsBlocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, "hmm", blocks[0].Thinking)
	assert.Equal(t, "Read", blocks[1].Name)
	assert.Equal(t, "/x", blocks[1].Input["file_path"])
	assert.Equal(t, "done", blocks[2].Text)
}

func TestMessageContent_RejectsOtherShapes(t *testing.T) {
	var c MessageContent
	assert.Error(t, json.Unmarshal([]byte(`42`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"text":"x"}`), &c))
}

func TestMessageContent_MarshalPreservesWireShape(t *testing.T) {
	text, err := json.Marshal(TextContentValue("hi"))
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, string(text))

	blocks, err := json.Marshal(BlocksContent(TextBlock("hi")))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"text","text":"hi"}]`, string(blocks))
}

func TestToolResultTextProjection(t *testing.T) {
	var msg Message
	raw := `{"role":"user","content":[
		{"type":"tool_result","tool_use_id":"toolu_0000000000000001","content":"plain"},
		{"type":"tool_result","tool_use_id":"toolu_0000000000000002","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}
	]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	blocks := msg.Content.AsBlocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "plain", blocks[0].TextContent())
	assert.Equal(t, "a\nb", blocks[1].TextContent())
}

func TestToolUseBlock_EmptyInputStaysOnTheWire(t *testing.T) {
	b := ToolUseBlock("toolu_0000000000000001", "Read", nil)
	require.NotNil(t, b.Input)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"input":{}`)

	start, err := json.Marshal(NewToolUseBlockStart(b.ID, b.Name))
	require.NoError(t, err)
	assert.Contains(t, string(start), `"input":{}`)

	text, err := json.Marshal(TextBlock("hi"))
	require.NoError(t, err)
	assert.NotContains(t, string(text), "input")
}

func TestIDShapes(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^msg_[0-9a-f]{16}$`), NewMessageID())
	assert.Regexp(t, regexp.MustCompile(`^toolu_[0-9a-f]{16}$`), NewToolUseID())
	assert.NotEqual(t, NewToolUseID(), NewToolUseID())
}
