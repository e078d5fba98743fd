package events

import (
	"github.com/ag-ui-protocol/ag-ui-go/jsonpatch"
	"github.com/ag-ui-protocol/ag-ui-go/messages"
)

// Encode converts an Event back into a wire map. Decoded events encode to a
// copy of their original map, preserving unknown fields; events constructed
// in process encode to the canonical form.
func Encode(ev Event) map[string]any {
	if w := ev.Wire(); w != nil {
		return cloneMap(w)
	}
	out := map[string]any{"type": string(ev.Type())}
	if ts := ev.Time(); ts != 0 {
		out["timestamp"] = ts
	}
	if raw := ev.(interface{ rawSource() any }).rawSource(); raw != nil {
		out["rawEvent"] = raw
	}

	switch t := ev.(type) {
	case *RunStarted:
		out["threadId"] = t.ThreadID
		out["runId"] = t.RunID
	case *RunFinished:
		out["threadId"] = t.ThreadID
		out["runId"] = t.RunID
		if t.Result != nil {
			out["result"] = t.Result
		}
	case *RunError:
		out["message"] = t.Message
		if t.Code != "" {
			out["code"] = t.Code
		}
	case *StepStarted:
		out["stepName"] = t.StepName
	case *StepFinished:
		out["stepName"] = t.StepName
	case *TextMessageStart:
		out["messageId"] = t.MessageID
		out["role"] = t.Role
	case *TextMessageContent:
		out["messageId"] = t.MessageID
		out["delta"] = t.Delta
	case *TextMessageEnd:
		out["messageId"] = t.MessageID
	case *TextMessageChunk:
		setIf(out, "messageId", t.MessageID)
		setIf(out, "role", t.Role)
		setIf(out, "delta", t.Delta)
	case *ToolCallStart:
		out["toolCallId"] = t.ToolCallID
		out["toolCallName"] = t.ToolCallName
		setIf(out, "parentMessageId", t.ParentMessageID)
	case *ToolCallArgs:
		out["toolCallId"] = t.ToolCallID
		out["delta"] = t.Delta
	case *ToolCallEnd:
		out["toolCallId"] = t.ToolCallID
	case *ToolCallChunk:
		setIf(out, "toolCallId", t.ToolCallID)
		setIf(out, "toolCallName", t.ToolCallName)
		setIf(out, "parentMessageId", t.ParentMessageID)
		setIf(out, "delta", t.Delta)
	case *ToolCallResult:
		out["messageId"] = t.MessageID
		out["toolCallId"] = t.ToolCallID
		out["content"] = t.Content
		setIf(out, "role", t.Role)
	case *ThinkingStart:
		setIf(out, "title", t.Title)
	case *ThinkingEnd, *ThinkingTextMessageStart, *ThinkingTextMessageEnd:
		// Type and timestamp only.
	case *ThinkingTextMessageContent:
		out["delta"] = t.Delta
	case *StateSnapshot:
		out["snapshot"] = t.Snapshot
	case *StateDelta:
		out["delta"] = encodePatch(t.Delta)
	case *MessagesSnapshot:
		msgs := make([]any, len(t.Messages))
		for i, msg := range t.Messages {
			msgs[i] = messages.Encode(msg)
		}
		out["messages"] = msgs
	case *ActivitySnapshot:
		out["messageId"] = t.MessageID
		out["activityType"] = t.ActivityType
		if t.Content != nil {
			out["content"] = t.Content
		}
		if !t.Replace {
			out["replace"] = false
		}
	case *ActivityDelta:
		out["messageId"] = t.MessageID
		setIf(out, "activityType", t.ActivityType)
		out["patch"] = encodePatch(t.Patch)
	case *Raw:
		out["event"] = t.Event
		setIf(out, "source", t.Source)
	case *Custom:
		out["name"] = t.Name
		if t.Value != nil {
			out["value"] = t.Value
		}
	}
	return out
}

func encodePatch(ops []jsonpatch.Operation) []any {
	out := make([]any, len(ops))
	for i, op := range ops {
		m := map[string]any{"op": op.Op, "path": op.Path}
		if op.From != "" {
			m["from"] = op.From
		}
		if op.Value != nil {
			m["value"] = op.Value
		}
		out[i] = m
	}
	return out
}

func setIf(m map[string]any, key, val string) {
	if val != "" {
		m[key] = val
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
