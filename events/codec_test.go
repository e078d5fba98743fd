package events

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ag-ui-protocol/ag-ui-go/messages"
)

func TestDecodeVariants(t *testing.T) {
	cases := []struct {
		name  string
		wire  map[string]any
		check func(t *testing.T, ev Event)
	}{
		{
			name: "run started",
			wire: map[string]any{"type": "RUN_STARTED", "threadId": "t1", "runId": "r1", "timestamp": float64(1712000000000)},
			check: func(t *testing.T, ev Event) {
				rs := ev.(*RunStarted)
				assert.Equal(t, "t1", rs.ThreadID)
				assert.Equal(t, "r1", rs.RunID)
				assert.Equal(t, int64(1712000000000), rs.Time())
			},
		},
		{
			name: "run finished with result",
			wire: map[string]any{"type": "RUN_FINISHED", "threadId": "t1", "runId": "r1", "result": map[string]any{"ok": true}},
			check: func(t *testing.T, ev Event) {
				rf := ev.(*RunFinished)
				assert.Equal(t, map[string]any{"ok": true}, rf.Result)
			},
		},
		{
			name: "run error",
			wire: map[string]any{"type": "RUN_ERROR", "message": "boom", "code": "E42"},
			check: func(t *testing.T, ev Event) {
				re := ev.(*RunError)
				assert.Equal(t, "boom", re.Message)
				assert.Equal(t, "E42", re.Code)
			},
		},
		{
			name: "text message start defaults role",
			wire: map[string]any{"type": "TEXT_MESSAGE_START", "messageId": "m1"},
			check: func(t *testing.T, ev Event) {
				ts := ev.(*TextMessageStart)
				assert.Equal(t, "assistant", ts.Role)
			},
		},
		{
			name: "tool call start",
			wire: map[string]any{"type": "TOOL_CALL_START", "toolCallId": "c1", "toolCallName": "search", "parentMessageId": "m1"},
			check: func(t *testing.T, ev Event) {
				ts := ev.(*ToolCallStart)
				assert.Equal(t, "search", ts.ToolCallName)
				assert.Equal(t, "m1", ts.ParentMessageID)
			},
		},
		{
			name: "state delta",
			wire: map[string]any{"type": "STATE_DELTA", "delta": []any{
				map[string]any{"op": "replace", "path": "/count", "value": 2.0},
			}},
			check: func(t *testing.T, ev Event) {
				sd := ev.(*StateDelta)
				require.Len(t, sd.Delta, 1)
				assert.Equal(t, "replace", sd.Delta[0].Op)
				assert.Equal(t, "/count", sd.Delta[0].Path)
			},
		},
		{
			name: "messages snapshot",
			wire: map[string]any{"type": "MESSAGES_SNAPSHOT", "messages": []any{
				map[string]any{"id": "u1", "role": "user", "content": "hi"},
				map[string]any{"id": "a1", "role": "assistant", "content": "hello", "toolCalls": []any{
					map[string]any{"id": "c1", "type": "function", "function": map[string]any{"name": "f", "arguments": "{}"}},
				}},
			}},
			check: func(t *testing.T, ev Event) {
				ms := ev.(*MessagesSnapshot)
				require.Len(t, ms.Messages, 2)
				assert.Equal(t, messages.RoleUser, ms.Messages[0].Role())
				a := ms.Messages[1].(*messages.Assistant)
				require.Len(t, a.ToolCalls, 1)
				assert.Equal(t, "f", a.ToolCalls[0].Function.Name)
			},
		},
		{
			name: "activity snapshot replace defaults true",
			wire: map[string]any{"type": "ACTIVITY_SNAPSHOT", "messageId": "act1", "activityType": "plan", "content": map[string]any{"steps": []any{}}},
			check: func(t *testing.T, ev Event) {
				as := ev.(*ActivitySnapshot)
				assert.True(t, as.Replace)
			},
		},
		{
			name: "thinking start with title",
			wire: map[string]any{"type": "THINKING_START", "title": "planning"},
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, "planning", ev.(*ThinkingStart).Title)
			},
		},
		{
			name: "raw with source",
			wire: map[string]any{"type": "RAW", "event": map[string]any{"kind": "x"}, "source": "openai"},
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, "openai", ev.(*Raw).Source)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := Decode(tc.wire)
			require.NoError(t, err)
			tc.check(t, ev)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		wire any
		tag  ErrorTag
	}{
		{name: "not a map", wire: "nope", tag: TagInvalidInput},
		{name: "missing type", wire: map[string]any{"messageId": "m1"}, tag: TagUnknownEventType},
		{name: "unknown type", wire: map[string]any{"type": "NOT_A_THING"}, tag: TagUnknownEventType},
		{
			name: "run started without ids",
			wire: map[string]any{"type": "RUN_STARTED"},
			tag:  TagMissingRequiredFields,
		},
		{
			name: "text content empty delta",
			wire: map[string]any{"type": "TEXT_MESSAGE_CONTENT", "messageId": "m1", "delta": ""},
			tag:  TagMissingDelta,
		},
		{
			name: "thinking content absent delta",
			wire: map[string]any{"type": "THINKING_TEXT_MESSAGE_CONTENT"},
			tag:  TagMissingDelta,
		},
		{
			name: "state snapshot without snapshot",
			wire: map[string]any{"type": "STATE_SNAPSHOT"},
			tag:  TagMissingSnapshot,
		},
		{
			name: "text start with tool role",
			wire: map[string]any{"type": "TEXT_MESSAGE_START", "messageId": "m1", "role": "tool"},
			tag:  TagInvalidRole,
		},
		{
			name: "text chunk with tool role",
			wire: map[string]any{"type": "TEXT_MESSAGE_CHUNK", "messageId": "m1", "role": "tool"},
			tag:  TagInvalidRole,
		},
		{
			name: "state delta with malformed op",
			wire: map[string]any{"type": "STATE_DELTA", "delta": []any{map[string]any{"path": "/a"}}},
			tag:  TagInvalidPatch,
		},
		{
			name: "messages snapshot with bad role",
			wire: map[string]any{"type": "MESSAGES_SNAPSHOT", "messages": []any{
				map[string]any{"id": "m1", "role": "alien", "content": "?"},
			}},
			tag: ErrorTag("invalid_role"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.wire)
			require.Error(t, err)
			var derr *DecodeError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tc.tag, derr.Tag)
		})
	}
}

func TestRoundTripPreservesUnknownFields(t *testing.T) {
	wires := []map[string]any{
		{"type": "RUN_STARTED", "threadId": "t1", "runId": "r1", "x-vendor": "custom"},
		{"type": "TEXT_MESSAGE_CONTENT", "messageId": "m1", "delta": "hi", "trace": map[string]any{"hop": 1.0}},
		{"type": "TOOL_CALL_ARGS", "toolCallId": "c1", "delta": "{\"q\":", "seq": 7.0},
		{"type": "STATE_SNAPSHOT", "snapshot": map[string]any{"n": 1.0}, "extra": []any{"a", "b"}},
		{"type": "CUSTOM", "name": "ping", "value": nil, "timestamp": 1700000000000.0},
		{"type": "MESSAGES_SNAPSHOT", "messages": []any{
			map[string]any{"id": "u1", "role": "user", "content": "hi", "meta": map[string]any{"lang": "en"}},
		}},
	}
	for _, wire := range wires {
		ev, err := Decode(wire)
		require.NoError(t, err)
		assert.Equal(t, wire, Encode(ev))
	}
}

func TestRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	id := gen.Identifier()
	delta := gen.AlphaString().SuchThat(func(s string) bool { return s != "" })

	properties.Property("text content round-trips", prop.ForAll(
		func(msgID, d, extra string) bool {
			wire := map[string]any{"type": "TEXT_MESSAGE_CONTENT", "messageId": msgID, "delta": d, "extra": extra}
			ev, err := Decode(wire)
			if err != nil {
				return false
			}
			return assert.ObjectsAreEqual(wire, Encode(ev))
		},
		id, delta, gen.AlphaString(),
	))

	properties.Property("tool call start round-trips", prop.ForAll(
		func(callID, name string) bool {
			wire := map[string]any{"type": "TOOL_CALL_START", "toolCallId": callID, "toolCallName": name}
			ev, err := Decode(wire)
			if err != nil {
				return false
			}
			return assert.ObjectsAreEqual(wire, Encode(ev))
		},
		id, delta,
	))

	properties.Property("encoded wire is a fresh map", prop.ForAll(
		func(msgID string) bool {
			wire := map[string]any{"type": "TEXT_MESSAGE_END", "messageId": msgID, "nested": map[string]any{"k": "v"}}
			ev, err := Decode(wire)
			if err != nil {
				return false
			}
			out := Encode(ev)
			out["nested"].(map[string]any)["k"] = "mutated"
			return wire["nested"].(map[string]any)["k"] == "v"
		},
		id,
	))

	properties.TestingRun(t)
}

func TestEncodeConstructedEvents(t *testing.T) {
	t.Run("canonical form", func(t *testing.T) {
		ev := &TextMessageStart{MessageID: "m1", Role: "assistant"}
		assert.Equal(t, map[string]any{
			"type":      "TEXT_MESSAGE_START",
			"messageId": "m1",
			"role":      "assistant",
		}, Encode(ev))
	})

	t.Run("timestamp included when set", func(t *testing.T) {
		ev := &ToolCallEnd{ToolCallID: "c1"}
		ev.TimestampMS = 1712000000000
		assert.Equal(t, map[string]any{
			"type":       "TOOL_CALL_END",
			"toolCallId": "c1",
			"timestamp":  int64(1712000000000),
		}, Encode(ev))
	})

	t.Run("optional fields omitted", func(t *testing.T) {
		ev := &RunError{Message: "boom"}
		assert.Equal(t, map[string]any{"type": "RUN_ERROR", "message": "boom"}, Encode(ev))
	})
}
