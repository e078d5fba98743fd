// Package verify checks that an event sequence is protocol-legal: runs open
// before anything else happens, streamed messages and tool calls end what
// they start, steps balance, and thinking phases nest correctly.
//
// The Verifier never mutates or repairs a sequence. It reports the first
// violation as a structured error carrying a stable reason tag plus the
// state that made the event illegal, and leaves legal events untouched.
// Concurrent text and tool streams with distinct ids are legal.
package verify

import (
	"fmt"
	"sort"

	"github.com/ag-ui-protocol/ag-ui-go/events"
)

type (
	// Verifier is the protocol-legality state machine for one event
	// sequence. One connection drives one Verifier; instances share no
	// state.
	Verifier struct {
		phase    phase
		sawEvent bool

		openText  map[string]struct{}
		openTools map[string]struct{}
		openSteps map[string]struct{}

		thinking    bool
		thinkingMsg bool
	}

	// Error reports a protocol violation.
	Error struct {
		// Reason is the stable violation tag.
		Reason Reason
		// Event is the type of the offending event.
		Event events.EventType
		// ID is the message id, tool call id or step name involved, when
		// the violation concerns a specific stream.
		ID string
		// OpenText, OpenTools and OpenSteps are the open stream sets at
		// the point of failure, sorted for stable output.
		OpenText  []string
		OpenTools []string
		OpenSteps []string
	}

	// Reason is a stable protocol violation tag.
	Reason string

	phase int
)

const (
	phaseNone phase = iota
	phaseRunning
	phaseFinished
	phaseErrored
)

const (
	ReasonFirstEventMustBeRunStarted Reason = "first_event_must_be_run_started"
	ReasonRunAlreadyStarted          Reason = "run_already_started"
	ReasonRunAlreadyFinished         Reason = "run_already_finished"
	ReasonRunNotStarted              Reason = "run_not_started"
	ReasonTextNotStarted             Reason = "text_not_started"
	ReasonTextAlreadyStarted         Reason = "text_already_started"
	ReasonTextNotEnded               Reason = "text_not_ended"
	ReasonToolNotStarted             Reason = "tool_not_started"
	ReasonToolAlreadyStarted         Reason = "tool_already_started"
	ReasonToolNotEnded               Reason = "tool_not_ended"
	ReasonStepNotStarted             Reason = "step_not_started"
	ReasonStepAlreadyStarted         Reason = "step_already_started"
	ReasonStepNotFinished            Reason = "step_not_finished"
	ReasonThinkingNotStarted         Reason = "thinking_not_started"
	ReasonThinkingAlreadyStarted     Reason = "thinking_already_started"
	ReasonThinkingMsgNotStarted      Reason = "thinking_message_not_started"
	ReasonThinkingMsgAlreadyStarted  Reason = "thinking_message_already_started"
)

// Error implements error.
func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("verify %s: %s (id %q)", e.Event, e.Reason, e.ID)
	}
	return fmt.Sprintf("verify %s: %s", e.Event, e.Reason)
}

// New constructs a Verifier for a fresh event sequence.
func New() *Verifier {
	return &Verifier{
		openText:  make(map[string]struct{}),
		openTools: make(map[string]struct{}),
		openSteps: make(map[string]struct{}),
	}
}

// Verify checks a complete sequence and returns the first violation, or nil
// when the whole sequence is legal.
func Verify(evts []events.Event) error {
	v := New()
	for _, ev := range evts {
		if err := v.Check(ev); err != nil {
			return err
		}
	}
	return nil
}

// Guard wraps an event callback. Legal events advance the state machine and
// pass through to next unchanged; the first violation is returned without
// invoking next, and without advancing the machine.
func (v *Verifier) Guard(next func(events.Event) error) func(events.Event) error {
	return func(ev events.Event) error {
		if err := v.Check(ev); err != nil {
			return err
		}
		return next(ev)
	}
}

// Check validates one event against the current state and advances the
// machine when the event is legal. On violation the machine is left
// untouched so the caller can inspect the failure state.
func (v *Verifier) Check(ev events.Event) error {
	first := !v.sawEvent
	v.sawEvent = true

	switch t := ev.(type) {
	case *events.RunStarted:
		// Legal on a fresh sequence and after any terminal phase: sequential
		// runs on one thread and error recovery both reopen here. Only a
		// still-running run rejects it.
		if v.phase == phaseRunning {
			return v.fail(ev, ReasonRunAlreadyStarted, "")
		}
		v.reset()
		v.phase = phaseRunning
		return nil
	case *events.RunError:
		// Legal at any point, including before RunStarted (a pre-run
		// failure). Terminal for the current run, and a subsequent
		// RunStarted may open a fresh one.
		v.phase = phaseErrored
		return nil
	case *events.RunFinished:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if len(v.openText) > 0 {
			return v.fail(ev, ReasonTextNotEnded, "")
		}
		if len(v.openTools) > 0 {
			return v.fail(ev, ReasonToolNotEnded, "")
		}
		if len(v.openSteps) > 0 {
			return v.fail(ev, ReasonStepNotFinished, "")
		}
		v.phase = phaseFinished
		return nil
	case *events.StepStarted:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if _, open := v.openSteps[t.StepName]; open {
			return v.fail(ev, ReasonStepAlreadyStarted, t.StepName)
		}
		v.openSteps[t.StepName] = struct{}{}
		return nil
	case *events.StepFinished:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if _, open := v.openSteps[t.StepName]; !open {
			return v.fail(ev, ReasonStepNotStarted, t.StepName)
		}
		delete(v.openSteps, t.StepName)
		return nil
	case *events.TextMessageStart:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if _, open := v.openText[t.MessageID]; open {
			return v.fail(ev, ReasonTextAlreadyStarted, t.MessageID)
		}
		v.openText[t.MessageID] = struct{}{}
		return nil
	case *events.TextMessageContent:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if _, open := v.openText[t.MessageID]; !open {
			return v.fail(ev, ReasonTextNotStarted, t.MessageID)
		}
		return nil
	case *events.TextMessageEnd:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if _, open := v.openText[t.MessageID]; !open {
			return v.fail(ev, ReasonTextNotStarted, t.MessageID)
		}
		delete(v.openText, t.MessageID)
		return nil
	case *events.ToolCallStart:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if _, open := v.openTools[t.ToolCallID]; open {
			return v.fail(ev, ReasonToolAlreadyStarted, t.ToolCallID)
		}
		v.openTools[t.ToolCallID] = struct{}{}
		return nil
	case *events.ToolCallArgs:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if _, open := v.openTools[t.ToolCallID]; !open {
			return v.fail(ev, ReasonToolNotStarted, t.ToolCallID)
		}
		return nil
	case *events.ToolCallEnd:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if _, open := v.openTools[t.ToolCallID]; !open {
			return v.fail(ev, ReasonToolNotStarted, t.ToolCallID)
		}
		delete(v.openTools, t.ToolCallID)
		return nil
	case *events.ThinkingStart:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if v.thinking {
			return v.fail(ev, ReasonThinkingAlreadyStarted, "")
		}
		v.thinking = true
		return nil
	case *events.ThinkingEnd:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if !v.thinking {
			return v.fail(ev, ReasonThinkingNotStarted, "")
		}
		v.thinking = false
		v.thinkingMsg = false
		return nil
	case *events.ThinkingTextMessageStart:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if !v.thinking {
			return v.fail(ev, ReasonThinkingNotStarted, "")
		}
		if v.thinkingMsg {
			return v.fail(ev, ReasonThinkingMsgAlreadyStarted, "")
		}
		v.thinkingMsg = true
		return nil
	case *events.ThinkingTextMessageContent:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if !v.thinkingMsg {
			return v.fail(ev, ReasonThinkingMsgNotStarted, "")
		}
		return nil
	case *events.ThinkingTextMessageEnd:
		if err := v.requireRunning(ev, first); err != nil {
			return err
		}
		if !v.thinkingMsg {
			return v.fail(ev, ReasonThinkingMsgNotStarted, "")
		}
		v.thinkingMsg = false
		return nil
	default:
		// Chunks, state, messages, activity, result, raw and custom
		// events only need an open run.
		return v.requireRunning(ev, first)
	}
}

func (v *Verifier) requireRunning(ev events.Event, first bool) error {
	switch v.phase {
	case phaseRunning:
		return nil
	case phaseFinished:
		return v.fail(ev, ReasonRunAlreadyFinished, "")
	default:
		if first {
			return v.fail(ev, ReasonFirstEventMustBeRunStarted, "")
		}
		return v.fail(ev, ReasonRunNotStarted, "")
	}
}

func (v *Verifier) reset() {
	v.openText = make(map[string]struct{})
	v.openTools = make(map[string]struct{})
	v.openSteps = make(map[string]struct{})
	v.thinking = false
	v.thinkingMsg = false
}

func (v *Verifier) fail(ev events.Event, reason Reason, id string) error {
	return &Error{
		Reason:    reason,
		Event:     ev.Type(),
		ID:        id,
		OpenText:  sorted(v.openText),
		OpenTools: sorted(v.openTools),
		OpenSteps: sorted(v.openSteps),
	}
}

func sorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
