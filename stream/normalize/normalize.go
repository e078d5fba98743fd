// Package normalize expands the wire chunk shorthand into canonical
// start/content/end triples so downstream consumers only ever see canonical
// streams.
//
// A Normalizer is a pure, synchronous, single-pass transform: one transport
// connection drives one instance, feeding it decoded events in order and
// calling Finalize when the sequence ends. Output order equals input order
// except for the synthetic End/Start events inserted around stream
// transitions.
package normalize

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ag-ui-protocol/ag-ui-go/events"
	"github.com/ag-ui-protocol/ag-ui-go/messages"
)

type (
	// Normalizer tracks the chunk-opened text and tool streams so it can
	// synthesize the canonical Start and End events the shorthand omits.
	Normalizer struct {
		openText string
		openTool string
		// order of open stream kinds, oldest first, for Finalize.
		opened []kind

		runErrorMode bool
		failed       bool
	}

	// Option configures a Normalizer.
	Option func(*Normalizer)

	// Error reports a producer bug the normalizer cannot recover from.
	Error struct {
		// Reason is a short stable tag.
		Reason string
		// ID is the stream id involved, when known.
		ID string
	}

	kind int
)

const (
	kindText kind = iota
	kindTool
)

// ReasonMissingToolCallName tags the first chunk of a tool call arriving
// without the tool name.
const ReasonMissingToolCallName = "missing_tool_call_name"

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("normalize: %s (id %q)", e.Reason, e.ID)
}

// WithRunErrorMode converts producer bugs into a terminal RUN_ERROR event
// instead of returning an error, so a consuming stream degrades into an
// errored run rather than crashing. After emitting the RunError the
// normalizer swallows all subsequent input.
func WithRunErrorMode() Option {
	return func(n *Normalizer) { n.runErrorMode = true }
}

// New constructs a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize accepts one event and returns the canonical events to emit in
// its place. Chunk events expand into Start/Content as needed; lifecycle and
// explicit stream events close any chunk-opened streams first; everything
// else passes through untouched.
func (n *Normalizer) Normalize(ev events.Event) ([]events.Event, error) {
	if n.failed {
		return nil, nil
	}
	switch t := ev.(type) {
	case *events.TextMessageChunk:
		return n.textChunk(t), nil
	case *events.ToolCallChunk:
		return n.toolChunk(t)
	case *events.RunStarted, *events.RunFinished, *events.RunError,
		*events.StepStarted, *events.StepFinished,
		*events.TextMessageStart, *events.TextMessageEnd,
		*events.ToolCallStart, *events.ToolCallEnd:
		// Lifecycle and explicit stream boundaries close every pending
		// chunk stream, text before tool.
		out := n.closeAll()
		return append(out, ev), nil
	default:
		// State, messages, activity, thinking, result, raw and custom
		// events may legally interleave inside an open stream.
		return []events.Event{ev}, nil
	}
}

// Finalize closes any still-open chunk streams in the order they were
// opened. The driver calls it exactly once, when the event sequence ends.
func (n *Normalizer) Finalize() []events.Event {
	if n.failed {
		return nil
	}
	var out []events.Event
	for _, k := range n.opened {
		out = append(out, n.closeOne(k)...)
	}
	n.opened = nil
	return out
}

func (n *Normalizer) textChunk(chunk *events.TextMessageChunk) []events.Event {
	var out []events.Event
	// A text chunk ends any open tool stream: the producer switched modes.
	out = append(out, n.closeKind(kindTool)...)

	id := chunk.MessageID
	if id == "" {
		id = n.openText
	}
	if id == "" {
		id = uuid.NewString()
	}
	if id != n.openText {
		// Reopening a previously closed id still starts a fresh logical
		// stream, so no id memory beyond the currently open one.
		out = append(out, n.closeKind(kindText)...)
		role := chunk.Role
		if role == "" {
			role = string(messages.RoleAssistant)
		}
		out = append(out, &events.TextMessageStart{MessageID: id, Role: role})
		n.openText = id
		n.opened = append(n.opened, kindText)
	}
	if chunk.Delta != "" {
		out = append(out, &events.TextMessageContent{MessageID: id, Delta: chunk.Delta})
	}
	return out
}

func (n *Normalizer) toolChunk(chunk *events.ToolCallChunk) ([]events.Event, error) {
	var out []events.Event
	out = append(out, n.closeKind(kindText)...)

	id := chunk.ToolCallID
	if id == "" {
		id = n.openTool
	}
	if id == "" {
		id = uuid.NewString()
	}
	if id != n.openTool {
		if chunk.ToolCallName == "" {
			// Producer bug: the opening chunk of a call must name the tool.
			if n.runErrorMode {
				n.failed = true
				return []events.Event{&events.RunError{
					Message: fmt.Sprintf("tool call chunk for %q is missing the tool name", id),
					Code:    "normalizer_error",
				}}, nil
			}
			return nil, &Error{Reason: ReasonMissingToolCallName, ID: id}
		}
		out = append(out, n.closeKind(kindTool)...)
		out = append(out, &events.ToolCallStart{
			ToolCallID:      id,
			ToolCallName:    chunk.ToolCallName,
			ParentMessageID: chunk.ParentMessageID,
		})
		n.openTool = id
		n.opened = append(n.opened, kindTool)
	}
	if chunk.Delta != "" {
		out = append(out, &events.ToolCallArgs{ToolCallID: id, Delta: chunk.Delta})
	}
	return out, nil
}

// closeAll ends every pending chunk stream, text before tool.
func (n *Normalizer) closeAll() []events.Event {
	out := n.closeKind(kindText)
	return append(out, n.closeKind(kindTool)...)
}

func (n *Normalizer) closeKind(k kind) []events.Event {
	out := n.closeOne(k)
	if out == nil {
		return nil
	}
	for i, o := range n.opened {
		if o == k {
			n.opened = append(n.opened[:i], n.opened[i+1:]...)
			break
		}
	}
	return out
}

func (n *Normalizer) closeOne(k kind) []events.Event {
	switch k {
	case kindText:
		if n.openText == "" {
			return nil
		}
		id := n.openText
		n.openText = ""
		return []events.Event{&events.TextMessageEnd{MessageID: id}}
	default:
		if n.openTool == "" {
			return nil
		}
		id := n.openTool
		n.openTool = ""
		return []events.Event{&events.ToolCallEnd{ToolCallID: id}}
	}
}
