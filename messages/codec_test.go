package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("user", func(t *testing.T) {
		msg, err := Decode(map[string]any{"id": "u1", "role": "user", "content": "hi", "name": "ada"})
		require.NoError(t, err)
		u := msg.(*User)
		assert.Equal(t, "u1", u.Ident())
		assert.Equal(t, "hi", u.Content)
		assert.Equal(t, "ada", u.Name)
	})

	t.Run("assistant with tool calls", func(t *testing.T) {
		msg, err := Decode(map[string]any{
			"id": "a1", "role": "assistant",
			"toolCalls": []any{
				map[string]any{"id": "c1", "function": map[string]any{"name": "search", "arguments": `{"q":"go"}`}},
			},
		})
		require.NoError(t, err)
		a := msg.(*Assistant)
		require.Len(t, a.ToolCalls, 1)
		assert.Equal(t, "function", a.ToolCalls[0].Type)
		assert.Equal(t, "search", a.ToolCalls[0].Function.Name)
	})

	t.Run("tool with error", func(t *testing.T) {
		msg, err := Decode(map[string]any{"id": "t1", "role": "tool", "content": "404", "toolCallId": "c1", "error": "not found"})
		require.NoError(t, err)
		tool := msg.(*Tool)
		assert.Equal(t, "c1", tool.ToolCallID)
		assert.Equal(t, "not found", tool.Error)
	})

	t.Run("activity", func(t *testing.T) {
		msg, err := Decode(map[string]any{"id": "act1", "role": "activity", "activityType": "plan", "content": map[string]any{"done": false}})
		require.NoError(t, err)
		a := msg.(*Activity)
		assert.Equal(t, "plan", a.ActivityType)
	})
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name   string
		wire   any
		tag    ErrorTag
		fields []string
	}{
		{name: "not a map", wire: 42, tag: TagInvalidInput},
		{name: "unknown role", wire: map[string]any{"id": "x", "role": "alien"}, tag: TagInvalidRole},
		{
			name: "user missing content",
			wire: map[string]any{"id": "u1", "role": "user"},
			tag:  TagMissingRequiredFields, fields: []string{"content"},
		},
		{
			name: "tool missing call id",
			wire: map[string]any{"id": "t1", "role": "tool", "content": "ok"},
			tag:  TagMissingRequiredFields, fields: []string{"toolCallId"},
		},
		{
			name: "assistant tool call without function name",
			wire: map[string]any{"id": "a1", "role": "assistant", "toolCalls": []any{
				map[string]any{"id": "c1", "function": map[string]any{}},
			}},
			tag: TagMissingRequiredFields, fields: []string{"toolCalls.function.name"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.wire)
			require.Error(t, err)
			var derr *DecodeError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tc.tag, derr.Tag)
			if tc.fields != nil {
				assert.Equal(t, tc.fields, derr.Fields)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Run("round-trips decoded wire with extra fields", func(t *testing.T) {
		wire := map[string]any{"id": "u1", "role": "user", "content": "hi", "x-client": "web"}
		msg, err := Decode(wire)
		require.NoError(t, err)
		assert.Equal(t, wire, Encode(msg))
	})

	t.Run("canonical form for constructed messages", func(t *testing.T) {
		msg := &Assistant{Content: "hello", ToolCalls: []*ToolCall{
			{ID: "c1", Type: "function", Function: FunctionCall{Name: "f", Arguments: "{}"}},
		}}
		msg.ID = "a1"
		assert.Equal(t, map[string]any{
			"id":      "a1",
			"role":    "assistant",
			"content": "hello",
			"toolCalls": []any{map[string]any{
				"id":   "c1",
				"type": "function",
				"function": map[string]any{
					"name":      "f",
					"arguments": "{}",
				},
			}},
		}, Encode(msg))
	})

	t.Run("mark dirty drops stale wire", func(t *testing.T) {
		wire := map[string]any{"id": "a1", "role": "assistant", "content": "par"}
		msg, err := Decode(wire)
		require.NoError(t, err)
		a := msg.(*Assistant)
		a.Content += "tial"
		a.MarkDirty()
		assert.Equal(t, map[string]any{"id": "a1", "role": "assistant", "content": "partial"}, Encode(a))
	})
}
