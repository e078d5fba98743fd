// Package events defines the canonical AG-UI event model: a closed set of
// tagged event variants covering run/step lifecycle, text-message and
// tool-call streams, state and messages snapshots/deltas, activity updates,
// thinking streams, and raw/custom passthrough.
//
// Events decode from wire maps (an UPPER_SNAKE "type" discriminator plus
// camelCase fields) and encode back to them. A decoded event retains its
// original wire map, so Encode(Decode(m)) reproduces m exactly, unknown
// extra fields included.
//
// The variant set is closed: every Event is one of the concrete types in
// this package and consumers dispatch with an exhaustive type switch.
package events

import (
	"github.com/ag-ui-protocol/ag-ui-go/jsonpatch"
	"github.com/ag-ui-protocol/ag-ui-go/messages"
)

type (
	// Event is the closed set of protocol event variants.
	Event interface {
		// Type returns the wire type discriminator of the variant.
		Type() EventType
		// Time returns the event timestamp in Unix epoch milliseconds,
		// zero when the producer did not set one.
		Time() int64
		// Wire returns the original wire map the event was decoded from,
		// preserved for round-trip and audit fidelity. Nil for events
		// constructed in process.
		Wire() map[string]any

		isEvent()
	}

	// Base carries the optional fields shared by every event variant.
	Base struct {
		// TimestampMS is the event timestamp in Unix epoch milliseconds.
		// Zero means unset.
		TimestampMS int64
		// RawEvent optionally carries the source-protocol event a bridge
		// translated this event from.
		RawEvent any

		wire map[string]any
	}

	// RunStarted opens a run on a thread. Exactly one RunStarted precedes
	// all other events of a run.
	RunStarted struct {
		Base
		ThreadID string
		RunID    string
	}

	// RunFinished terminates a run successfully. Result optionally carries
	// the run outcome as an arbitrary JSON value.
	RunFinished struct {
		Base
		ThreadID string
		RunID    string
		Result   any
	}

	// RunError terminates a run with an error. It is legal at any point,
	// including before RunStarted (a pre-run failure) and mid-stream.
	RunError struct {
		Base
		Message string
		Code    string
	}

	// StepStarted opens a named step within the current run.
	StepStarted struct {
		Base
		StepName string
	}

	// StepFinished closes a named step.
	StepFinished struct {
		Base
		StepName string
	}

	// TextMessageStart opens a streaming text message. Role defaults to
	// "assistant"; "tool" is rejected at decode time (tool output travels
	// via ToolCallResult).
	TextMessageStart struct {
		Base
		MessageID string
		Role      string
	}

	// TextMessageContent appends a delta to an open text message.
	TextMessageContent struct {
		Base
		MessageID string
		Delta     string
	}

	// TextMessageEnd closes a streaming text message.
	TextMessageEnd struct {
		Base
		MessageID string
	}

	// TextMessageChunk is the wire shorthand combining start and delta
	// semantics. It must be expanded by the normalizer before reduction.
	TextMessageChunk struct {
		Base
		MessageID string
		Role      string
		Delta     string
	}

	// ToolCallStart opens a streaming tool call. ParentMessageID links the
	// call to the assistant message that requested it, when known.
	ToolCallStart struct {
		Base
		ToolCallID      string
		ToolCallName    string
		ParentMessageID string
	}

	// ToolCallArgs appends an argument fragment to an open tool call. The
	// fragment is raw JSON text, not guaranteed to be well formed alone.
	ToolCallArgs struct {
		Base
		ToolCallID string
		Delta      string
	}

	// ToolCallEnd closes a streaming tool call.
	ToolCallEnd struct {
		Base
		ToolCallID string
	}

	// ToolCallChunk is the wire shorthand for tool call streams. The first
	// chunk of a call must carry ToolCallName.
	ToolCallChunk struct {
		Base
		ToolCallID      string
		ToolCallName    string
		ParentMessageID string
		Delta           string
	}

	// ToolCallResult delivers the result of a completed tool call as a
	// standalone tool message.
	ToolCallResult struct {
		Base
		MessageID  string
		ToolCallID string
		Content    string
		Role       string
	}

	// ThinkingStart opens a thinking phase.
	ThinkingStart struct {
		Base
		Title string
	}

	// ThinkingEnd closes a thinking phase. Accumulated thinking content is
	// retained until explicitly overwritten.
	ThinkingEnd struct {
		Base
	}

	// ThinkingTextMessageStart opens a thinking text stream within a
	// thinking phase.
	ThinkingTextMessageStart struct {
		Base
	}

	// ThinkingTextMessageContent appends a delta to the thinking buffer.
	ThinkingTextMessageContent struct {
		Base
		Delta string
	}

	// ThinkingTextMessageEnd closes the thinking text stream.
	ThinkingTextMessageEnd struct {
		Base
	}

	// StateSnapshot replaces the session state wholesale.
	StateSnapshot struct {
		Base
		Snapshot any
	}

	// StateDelta patches the session state with an RFC 6902 patch. The
	// patch applies atomically: one failing operation rejects it entirely.
	StateDelta struct {
		Base
		Delta []jsonpatch.Operation
	}

	// MessagesSnapshot replaces the session message list wholesale.
	MessagesSnapshot struct {
		Base
		Messages []messages.Message
	}

	// ActivitySnapshot inserts or replaces an activity message. Replace
	// defaults to true: an existing activity message with the same id is
	// replaced in place; with Replace false the snapshot always appends.
	ActivitySnapshot struct {
		Base
		MessageID    string
		ActivityType string
		Content      any
		Replace      bool
	}

	// ActivityDelta patches the content of the activity message addressed
	// by MessageID.
	ActivityDelta struct {
		Base
		MessageID    string
		ActivityType string
		Patch        []jsonpatch.Operation
	}

	// Raw passes a foreign-protocol event through untouched. Raw events
	// exist for audit and bridging; the reducer ignores them.
	Raw struct {
		Base
		Event  any
		Source string
	}

	// Custom carries an application-defined event.
	Custom struct {
		Base
		Name  string
		Value any
	}

	// EventType is the wire type discriminator.
	EventType string
)

const (
	EventRunStarted                 EventType = "RUN_STARTED"
	EventRunFinished                EventType = "RUN_FINISHED"
	EventRunError                   EventType = "RUN_ERROR"
	EventStepStarted                EventType = "STEP_STARTED"
	EventStepFinished               EventType = "STEP_FINISHED"
	EventTextMessageStart           EventType = "TEXT_MESSAGE_START"
	EventTextMessageContent         EventType = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd             EventType = "TEXT_MESSAGE_END"
	EventTextMessageChunk           EventType = "TEXT_MESSAGE_CHUNK"
	EventToolCallStart              EventType = "TOOL_CALL_START"
	EventToolCallArgs               EventType = "TOOL_CALL_ARGS"
	EventToolCallEnd                EventType = "TOOL_CALL_END"
	EventToolCallChunk              EventType = "TOOL_CALL_CHUNK"
	EventToolCallResult             EventType = "TOOL_CALL_RESULT"
	EventThinkingStart              EventType = "THINKING_START"
	EventThinkingEnd                EventType = "THINKING_END"
	EventThinkingTextMessageStart   EventType = "THINKING_TEXT_MESSAGE_START"
	EventThinkingTextMessageContent EventType = "THINKING_TEXT_MESSAGE_CONTENT"
	EventThinkingTextMessageEnd     EventType = "THINKING_TEXT_MESSAGE_END"
	EventStateSnapshot              EventType = "STATE_SNAPSHOT"
	EventStateDelta                 EventType = "STATE_DELTA"
	EventMessagesSnapshot           EventType = "MESSAGES_SNAPSHOT"
	EventActivitySnapshot           EventType = "ACTIVITY_SNAPSHOT"
	EventActivityDelta              EventType = "ACTIVITY_DELTA"
	EventRaw                        EventType = "RAW"
	EventCustom                     EventType = "CUSTOM"
)

func (b *Base) isEvent() {}

// Time implements Event.
func (b *Base) Time() int64 { return b.TimestampMS }

// Wire implements Event.
func (b *Base) Wire() map[string]any { return b.wire }

func (b *Base) rawSource() any { return b.RawEvent }

func (*RunStarted) Type() EventType                 { return EventRunStarted }
func (*RunFinished) Type() EventType                { return EventRunFinished }
func (*RunError) Type() EventType                   { return EventRunError }
func (*StepStarted) Type() EventType                { return EventStepStarted }
func (*StepFinished) Type() EventType               { return EventStepFinished }
func (*TextMessageStart) Type() EventType           { return EventTextMessageStart }
func (*TextMessageContent) Type() EventType         { return EventTextMessageContent }
func (*TextMessageEnd) Type() EventType             { return EventTextMessageEnd }
func (*TextMessageChunk) Type() EventType           { return EventTextMessageChunk }
func (*ToolCallStart) Type() EventType              { return EventToolCallStart }
func (*ToolCallArgs) Type() EventType               { return EventToolCallArgs }
func (*ToolCallEnd) Type() EventType                { return EventToolCallEnd }
func (*ToolCallChunk) Type() EventType              { return EventToolCallChunk }
func (*ToolCallResult) Type() EventType             { return EventToolCallResult }
func (*ThinkingStart) Type() EventType              { return EventThinkingStart }
func (*ThinkingEnd) Type() EventType                { return EventThinkingEnd }
func (*ThinkingTextMessageStart) Type() EventType   { return EventThinkingTextMessageStart }
func (*ThinkingTextMessageContent) Type() EventType { return EventThinkingTextMessageContent }
func (*ThinkingTextMessageEnd) Type() EventType     { return EventThinkingTextMessageEnd }
func (*StateSnapshot) Type() EventType              { return EventStateSnapshot }
func (*StateDelta) Type() EventType                 { return EventStateDelta }
func (*MessagesSnapshot) Type() EventType           { return EventMessagesSnapshot }
func (*ActivitySnapshot) Type() EventType           { return EventActivitySnapshot }
func (*ActivityDelta) Type() EventType              { return EventActivityDelta }
func (*Raw) Type() EventType                        { return EventRaw }
func (*Custom) Type() EventType                     { return EventCustom }
