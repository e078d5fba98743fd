package events

import (
	"fmt"
	"strings"

	"github.com/ag-ui-protocol/ag-ui-go/jsonpatch"
	"github.com/ag-ui-protocol/ag-ui-go/messages"
)

type (
	// DecodeError reports why a wire map could not be decoded into an
	// Event. Tag is one of the enumerable decode failure tags.
	DecodeError struct {
		Tag    ErrorTag
		Event  string
		Fields []string
	}

	// ErrorTag enumerates event decode failures.
	ErrorTag string
)

const (
	// TagInvalidInput marks input that is not a JSON object.
	TagInvalidInput ErrorTag = "invalid_input"
	// TagUnknownEventType marks a missing or unrecognized type discriminator.
	TagUnknownEventType ErrorTag = "unknown_event_type"
	// TagMissingRequiredFields marks a variant missing mandatory fields.
	TagMissingRequiredFields ErrorTag = "missing_required_fields"
	// TagMissingDelta marks a content event with an absent or empty delta.
	TagMissingDelta ErrorTag = "missing_delta"
	// TagMissingSnapshot marks a snapshot event without a snapshot value.
	TagMissingSnapshot ErrorTag = "missing_snapshot"
	// TagInvalidRole marks a forbidden role on a text message event.
	TagInvalidRole ErrorTag = "invalid_role"
	// TagInvalidPatch marks a delta event whose patch is not a list of
	// well-formed RFC 6902 operations.
	TagInvalidPatch ErrorTag = "invalid_patch"
)

// Error implements error.
func (e *DecodeError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("decode event %q: %s (%s)", e.Event, e.Tag, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("decode event %q: %s", e.Event, e.Tag)
}

// Decode converts a wire map into an Event. The input map is retained on the
// result so Encode can reproduce it exactly, unknown fields included.
func Decode(wire any) (Event, error) {
	m, ok := wire.(map[string]any)
	if !ok {
		return nil, &DecodeError{Tag: TagInvalidInput}
	}
	typ, ok := m["type"].(string)
	if !ok {
		return nil, &DecodeError{Tag: TagUnknownEventType}
	}
	base := Base{wire: m, RawEvent: m["rawEvent"]}
	if ts, ok := asInt64(m["timestamp"]); ok {
		base.TimestampMS = ts
	}
	d := decoder{event: typ, wire: m}

	switch EventType(typ) {
	case EventRunStarted:
		ev := &RunStarted{Base: base, ThreadID: d.str("threadId"), RunID: d.str("runId")}
		return d.done(ev)
	case EventRunFinished:
		ev := &RunFinished{Base: base, ThreadID: d.str("threadId"), RunID: d.str("runId"), Result: m["result"]}
		return d.done(ev)
	case EventRunError:
		ev := &RunError{Base: base, Message: d.str("message"), Code: d.opt("code")}
		return d.done(ev)
	case EventStepStarted:
		ev := &StepStarted{Base: base, StepName: d.str("stepName")}
		return d.done(ev)
	case EventStepFinished:
		ev := &StepFinished{Base: base, StepName: d.str("stepName")}
		return d.done(ev)
	case EventTextMessageStart:
		ev := &TextMessageStart{Base: base, MessageID: d.str("messageId"), Role: d.opt("role")}
		if ev.Role == "" {
			ev.Role = string(messages.RoleAssistant)
		}
		if ev.Role == string(messages.RoleTool) {
			return nil, &DecodeError{Tag: TagInvalidRole, Event: typ, Fields: []string{"role"}}
		}
		return d.done(ev)
	case EventTextMessageContent:
		ev := &TextMessageContent{Base: base, MessageID: d.str("messageId"), Delta: d.opt("delta")}
		if err := d.err(); err != nil {
			return nil, err
		}
		if ev.Delta == "" {
			return nil, &DecodeError{Tag: TagMissingDelta, Event: typ, Fields: []string{"delta"}}
		}
		return ev, nil
	case EventTextMessageEnd:
		ev := &TextMessageEnd{Base: base, MessageID: d.str("messageId")}
		return d.done(ev)
	case EventTextMessageChunk:
		ev := &TextMessageChunk{Base: base, MessageID: d.opt("messageId"), Role: d.opt("role"), Delta: d.opt("delta")}
		if ev.Role == string(messages.RoleTool) {
			return nil, &DecodeError{Tag: TagInvalidRole, Event: typ, Fields: []string{"role"}}
		}
		return ev, nil
	case EventToolCallStart:
		ev := &ToolCallStart{
			Base:            base,
			ToolCallID:      d.str("toolCallId"),
			ToolCallName:    d.str("toolCallName"),
			ParentMessageID: d.opt("parentMessageId"),
		}
		return d.done(ev)
	case EventToolCallArgs:
		ev := &ToolCallArgs{Base: base, ToolCallID: d.str("toolCallId")}
		delta, ok := m["delta"].(string)
		if !ok {
			return nil, &DecodeError{Tag: TagMissingDelta, Event: typ, Fields: []string{"delta"}}
		}
		ev.Delta = delta
		return d.done(ev)
	case EventToolCallEnd:
		ev := &ToolCallEnd{Base: base, ToolCallID: d.str("toolCallId")}
		return d.done(ev)
	case EventToolCallChunk:
		ev := &ToolCallChunk{
			Base:            base,
			ToolCallID:      d.opt("toolCallId"),
			ToolCallName:    d.opt("toolCallName"),
			ParentMessageID: d.opt("parentMessageId"),
			Delta:           d.opt("delta"),
		}
		return ev, nil
	case EventToolCallResult:
		ev := &ToolCallResult{
			Base:       base,
			MessageID:  d.str("messageId"),
			ToolCallID: d.str("toolCallId"),
			Content:    d.str("content"),
			Role:       d.opt("role"),
		}
		if ev.Role != "" && ev.Role != string(messages.RoleTool) {
			return nil, &DecodeError{Tag: TagInvalidRole, Event: typ, Fields: []string{"role"}}
		}
		return d.done(ev)
	case EventThinkingStart:
		return &ThinkingStart{Base: base, Title: d.opt("title")}, nil
	case EventThinkingEnd:
		return &ThinkingEnd{Base: base}, nil
	case EventThinkingTextMessageStart:
		return &ThinkingTextMessageStart{Base: base}, nil
	case EventThinkingTextMessageContent:
		delta, _ := m["delta"].(string)
		if delta == "" {
			return nil, &DecodeError{Tag: TagMissingDelta, Event: typ, Fields: []string{"delta"}}
		}
		return &ThinkingTextMessageContent{Base: base, Delta: delta}, nil
	case EventThinkingTextMessageEnd:
		return &ThinkingTextMessageEnd{Base: base}, nil
	case EventStateSnapshot:
		snap, ok := m["snapshot"]
		if !ok {
			return nil, &DecodeError{Tag: TagMissingSnapshot, Event: typ, Fields: []string{"snapshot"}}
		}
		return &StateSnapshot{Base: base, Snapshot: snap}, nil
	case EventStateDelta:
		ops, err := decodePatch(typ, m["delta"], "delta")
		if err != nil {
			return nil, err
		}
		return &StateDelta{Base: base, Delta: ops}, nil
	case EventMessagesSnapshot:
		raw, ok := m["messages"].([]any)
		if !ok {
			return nil, &DecodeError{Tag: TagMissingRequiredFields, Event: typ, Fields: []string{"messages"}}
		}
		msgs := make([]messages.Message, 0, len(raw))
		for _, rm := range raw {
			msg, err := messages.Decode(rm)
			if err != nil {
				return nil, liftMessageError(typ, err)
			}
			msgs = append(msgs, msg)
		}
		return &MessagesSnapshot{Base: base, Messages: msgs}, nil
	case EventActivitySnapshot:
		ev := &ActivitySnapshot{
			Base:         base,
			MessageID:    d.str("messageId"),
			ActivityType: d.str("activityType"),
			Content:      m["content"],
			Replace:      true,
		}
		if r, ok := m["replace"].(bool); ok {
			ev.Replace = r
		}
		return d.done(ev)
	case EventActivityDelta:
		ev := &ActivityDelta{Base: base, MessageID: d.str("messageId"), ActivityType: d.opt("activityType")}
		if err := d.err(); err != nil {
			return nil, err
		}
		ops, err := decodePatch(typ, m["patch"], "patch")
		if err != nil {
			return nil, err
		}
		ev.Patch = ops
		return ev, nil
	case EventRaw:
		raw, ok := m["event"]
		if !ok {
			return nil, &DecodeError{Tag: TagMissingRequiredFields, Event: typ, Fields: []string{"event"}}
		}
		return &Raw{Base: base, Event: raw, Source: d.opt("source")}, nil
	case EventCustom:
		ev := &Custom{Base: base, Name: d.str("name"), Value: m["value"]}
		return d.done(ev)
	default:
		return nil, &DecodeError{Tag: TagUnknownEventType, Event: typ}
	}
}

// decoder accumulates missing required fields while a variant is read so a
// single error can report them all.
type decoder struct {
	event   string
	wire    map[string]any
	missing []string
}

// str reads a required string field.
func (d *decoder) str(key string) string {
	v, ok := d.wire[key].(string)
	if !ok || v == "" {
		d.missing = append(d.missing, key)
	}
	return v
}

// opt reads an optional string field.
func (d *decoder) opt(key string) string {
	v, _ := d.wire[key].(string)
	return v
}

func (d *decoder) err() error {
	if len(d.missing) == 0 {
		return nil
	}
	return &DecodeError{Tag: TagMissingRequiredFields, Event: d.event, Fields: d.missing}
}

func (d *decoder) done(ev Event) (Event, error) {
	if err := d.err(); err != nil {
		return nil, err
	}
	return ev, nil
}

// decodePatch converts a wire patch list into RFC 6902 operations. Structural
// validation only: pointer syntax and applicability are checked at apply time.
func decodePatch(event string, raw any, field string) ([]jsonpatch.Operation, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, &DecodeError{Tag: TagInvalidPatch, Event: event, Fields: []string{field}}
	}
	ops := make([]jsonpatch.Operation, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &DecodeError{Tag: TagInvalidPatch, Event: event, Fields: []string{field}}
		}
		op, opOK := m["op"].(string)
		path, pathOK := m["path"].(string)
		if !opOK || !pathOK {
			return nil, &DecodeError{Tag: TagInvalidPatch, Event: event, Fields: []string{field}}
		}
		from, _ := m["from"].(string)
		ops = append(ops, jsonpatch.Operation{Op: op, Path: path, From: from, Value: m["value"]})
	}
	return ops, nil
}

// liftMessageError rewraps a message decode failure as an event decode
// failure so callers see a single error type with the same tag vocabulary.
func liftMessageError(event string, err error) error {
	if me, ok := err.(*messages.DecodeError); ok {
		return &DecodeError{Tag: ErrorTag(me.Tag), Event: event, Fields: me.Fields}
	}
	return err
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}
