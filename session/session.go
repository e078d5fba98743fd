// Package session folds canonical event sequences into the observable
// conversation state: the message list, the shared state document, run and
// step status, and the thinking buffer.
//
// Apply is a synchronous, single-pass fold. One connection drives one
// Session; instances share no state. Messages materialize as soon as their
// Start event arrives so partial content is observable mid-stream, and
// patch failures are advisory: the session keeps its prior state and the
// run continues.
package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ag-ui-protocol/ag-ui-go/events"
	"github.com/ag-ui-protocol/ag-ui-go/jsonpatch"
	"github.com/ag-ui-protocol/ag-ui-go/messages"
)

type (
	// Session is the state accumulated by folding events.
	Session struct {
		// ThreadID and RunID identify the conversation thread and the
		// current (or last) run on it.
		ThreadID string
		RunID    string
		// Status is the current run status.
		Status Status
		// Error and ErrorCode carry the RunError payload when Status is
		// StatusError.
		Error     string
		ErrorCode string
		// Result is the optional RunFinished payload.
		Result any
		// Messages is the conversation so far. Messages persist across
		// sequential runs on the same thread.
		Messages []messages.Message
		// State is the shared state document, replaced by snapshots and
		// patched by deltas.
		State any
		// Steps lists the steps of the current run in start order.
		Steps []*Step
		// Thinking is the reasoning-phase buffer.
		Thinking Thinking

		// message and tool call lookup for streamed appends.
		msgIndex  map[string]messages.Message
		toolIndex map[string]*toolRef
	}

	// Step tracks one named step of a run.
	Step struct {
		Name     string `json:"name"`
		Finished bool   `json:"finished"`
	}

	// Thinking is the reasoning buffer. Content persists after ThinkingEnd
	// until a new thinking text message overwrites it.
	Thinking struct {
		Active  bool   `json:"active"`
		Title   string `json:"title,omitempty"`
		Content string `json:"content,omitempty"`
	}

	// Status enumerates run states.
	Status string

	// toolRef binds a streamed tool call to the assistant message holding
	// it, so argument deltas can dirty the parent.
	toolRef struct {
		call   *messages.ToolCall
		parent *messages.Assistant
	}
)

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusError    Status = "error"
)

// New constructs an empty Session.
func New() *Session {
	return &Session{
		Status:    StatusIdle,
		msgIndex:  make(map[string]messages.Message),
		toolIndex: make(map[string]*toolRef),
	}
}

// Apply folds one event into the session. The returned error is advisory:
// it reports swallowed anomalies (failed patches, orphan deltas) for the
// driver to log, and the session is always left in a valid state.
func (s *Session) Apply(ev events.Event) error {
	switch t := ev.(type) {
	case *events.RunStarted:
		// A new run resets run-scoped state but keeps the conversation:
		// messages, state document and thinking content survive.
		s.ThreadID = t.ThreadID
		s.RunID = t.RunID
		s.Status = StatusRunning
		s.Error = ""
		s.ErrorCode = ""
		s.Result = nil
		s.Steps = nil
		// Stream buffers are run-scoped: a new run must not append into the
		// previous run's tool calls.
		s.toolIndex = make(map[string]*toolRef)
	case *events.RunFinished:
		s.Status = StatusFinished
		s.Result = t.Result
		// The normalizer should have closed all streams already; drop any
		// leftovers so a stale id cannot receive appends next run.
		s.toolIndex = make(map[string]*toolRef)
	case *events.RunError:
		s.Status = StatusError
		s.Error = t.Message
		s.ErrorCode = t.Code
		s.toolIndex = make(map[string]*toolRef)
	case *events.StepStarted:
		s.Steps = append(s.Steps, &Step{Name: t.StepName})
	case *events.StepFinished:
		for i := len(s.Steps) - 1; i >= 0; i-- {
			if s.Steps[i].Name == t.StepName && !s.Steps[i].Finished {
				s.Steps[i].Finished = true
				break
			}
		}
	case *events.TextMessageStart:
		s.startMessage(t.MessageID, t.Role)
	case *events.TextMessageContent:
		msg, ok := s.msgIndex[t.MessageID]
		if !ok {
			// Orphan content: materialize an assistant message so the
			// delta is not lost.
			msg = s.startMessage(t.MessageID, string(messages.RoleAssistant))
		}
		appendContent(msg, t.Delta)
	case *events.TextMessageEnd:
		// The message already holds its final content.
	case *events.ToolCallStart:
		s.startToolCall(t.ToolCallID, t.ToolCallName, t.ParentMessageID)
	case *events.ToolCallArgs:
		ref, ok := s.toolIndex[t.ToolCallID]
		if !ok {
			ref = s.startToolCall(t.ToolCallID, "", "")
		}
		ref.call.Function.Arguments += t.Delta
		ref.parent.MarkDirty()
	case *events.ToolCallEnd:
		// The call keeps its accumulated arguments on the parent message.
	case *events.ToolCallResult:
		msg := &messages.Tool{Content: t.Content, ToolCallID: t.ToolCallID}
		msg.ID = t.MessageID
		s.append(msg)
	case *events.StateSnapshot:
		s.State = jsonpatch.Clone(t.Snapshot)
	case *events.StateDelta:
		patched, err := jsonpatch.Apply(s.State, t.Delta)
		if err != nil {
			return fmt.Errorf("state delta ignored: %w", err)
		}
		s.State = patched
	case *events.MessagesSnapshot:
		s.Messages = nil
		s.msgIndex = make(map[string]messages.Message)
		s.toolIndex = make(map[string]*toolRef)
		for _, msg := range t.Messages {
			s.append(msg)
		}
	case *events.ActivitySnapshot:
		s.applyActivitySnapshot(t)
	case *events.ActivityDelta:
		return s.applyActivityDelta(t)
	case *events.ThinkingStart:
		s.Thinking.Active = true
		s.Thinking.Title = t.Title
	case *events.ThinkingEnd:
		// Content persists until a new thinking text message overwrites it.
		s.Thinking.Active = false
	case *events.ThinkingTextMessageStart:
		s.Thinking.Content = ""
	case *events.ThinkingTextMessageContent:
		s.Thinking.Content += t.Delta
	case *events.ThinkingTextMessageEnd:
		// Buffer already holds the final content.
	default:
		// Raw, Custom and unexpanded chunks do not affect the session.
	}
	return nil
}

// startMessage materializes the message a text stream writes into and
// registers it for content appends.
func (s *Session) startMessage(id, role string) messages.Message {
	var msg messages.Message
	switch messages.Role(role) {
	case messages.RoleUser:
		m := &messages.User{}
		m.ID = id
		msg = m
	case messages.RoleSystem:
		m := &messages.System{}
		m.ID = id
		msg = m
	case messages.RoleDeveloper:
		m := &messages.Developer{}
		m.ID = id
		msg = m
	default:
		m := &messages.Assistant{}
		m.ID = id
		msg = m
	}
	s.append(msg)
	return msg
}

// startToolCall attaches a tool call stub to its parent assistant message,
// materializing the parent when the producer did not announce one.
func (s *Session) startToolCall(id, name, parentID string) *toolRef {
	var parent *messages.Assistant
	if parentID != "" {
		if msg, ok := s.msgIndex[parentID]; ok {
			parent, _ = msg.(*messages.Assistant)
		}
		if parent == nil {
			parent = &messages.Assistant{}
			parent.ID = parentID
			s.append(parent)
		}
	} else {
		parent = &messages.Assistant{}
		parent.ID = uuid.NewString()
		s.append(parent)
	}
	call := &messages.ToolCall{ID: id, Type: "function", Function: messages.FunctionCall{Name: name}}
	parent.ToolCalls = append(parent.ToolCalls, call)
	parent.MarkDirty()
	ref := &toolRef{call: call, parent: parent}
	s.toolIndex[id] = ref
	return ref
}

func (s *Session) applyActivitySnapshot(ev *events.ActivitySnapshot) {
	msg := &messages.Activity{ActivityType: ev.ActivityType, Content: jsonpatch.Clone(ev.Content)}
	msg.ID = ev.MessageID
	if ev.Replace {
		for i, existing := range s.Messages {
			if a, ok := existing.(*messages.Activity); ok && a.Ident() == ev.MessageID {
				s.Messages[i] = msg
				s.msgIndex[ev.MessageID] = msg
				return
			}
		}
	}
	s.append(msg)
}

func (s *Session) applyActivityDelta(ev *events.ActivityDelta) error {
	var target *messages.Activity
	for _, existing := range s.Messages {
		if a, ok := existing.(*messages.Activity); ok && a.Ident() == ev.MessageID {
			target = a
		}
	}
	if target == nil {
		return fmt.Errorf("activity delta ignored: no activity message %q", ev.MessageID)
	}
	patched, err := jsonpatch.Apply(target.Content, ev.Patch)
	if err != nil {
		return fmt.Errorf("activity delta ignored: %w", err)
	}
	target.Content = patched
	if ev.ActivityType != "" {
		target.ActivityType = ev.ActivityType
	}
	target.MarkDirty()
	return nil
}

// append adds a message to the conversation and indexes it and any tool
// calls it carries.
func (s *Session) append(msg messages.Message) {
	s.Messages = append(s.Messages, msg)
	if id := msg.Ident(); id != "" {
		s.msgIndex[id] = msg
	}
	if a, ok := msg.(*messages.Assistant); ok {
		for _, call := range a.ToolCalls {
			s.toolIndex[call.ID] = &toolRef{call: call, parent: a}
		}
	}
}

// appendContent grows the streamed content of a message in place.
func appendContent(msg messages.Message, delta string) {
	switch m := msg.(type) {
	case *messages.User:
		m.Content += delta
		m.MarkDirty()
	case *messages.System:
		m.Content += delta
		m.MarkDirty()
	case *messages.Developer:
		m.Content += delta
		m.MarkDirty()
	case *messages.Assistant:
		m.Content += delta
		m.MarkDirty()
	}
}
