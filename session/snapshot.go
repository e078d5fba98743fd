package session

import (
	"encoding/json"
	"fmt"

	"github.com/ag-ui-protocol/ag-ui-go/messages"
)

// snapshot is the serialized session form used by stores. Messages encode
// through the message codec so extra wire fields survive persistence.
type snapshot struct {
	ThreadID  string           `json:"threadId"`
	RunID     string           `json:"runId"`
	Status    Status           `json:"status"`
	Error     string           `json:"error,omitempty"`
	ErrorCode string           `json:"errorCode,omitempty"`
	Result    any              `json:"result,omitempty"`
	Messages  []map[string]any `json:"messages"`
	State     any              `json:"state,omitempty"`
	Steps     []*Step          `json:"steps,omitempty"`
	Thinking  Thinking         `json:"thinking"`
}

// Snapshot serializes the session so a store can persist it and a fresh
// instance can later resume from it via Restore.
func (s *Session) Snapshot() ([]byte, error) {
	snap := snapshot{
		ThreadID:  s.ThreadID,
		RunID:     s.RunID,
		Status:    s.Status,
		Error:     s.Error,
		ErrorCode: s.ErrorCode,
		Result:    s.Result,
		State:     s.State,
		Steps:     s.Steps,
		Thinking:  s.Thinking,
	}
	snap.Messages = make([]map[string]any, len(s.Messages))
	for i, msg := range s.Messages {
		snap.Messages[i] = messages.Encode(msg)
	}
	return json.Marshal(snap)
}

// Restore rebuilds a Session from a Snapshot payload. Restarting a stream
// means constructing fresh component instances and replaying from a restored
// session, never resuming internal buffers.
func Restore(data []byte) (*Session, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	s := New()
	s.ThreadID = snap.ThreadID
	s.RunID = snap.RunID
	s.Status = snap.Status
	if s.Status == "" {
		s.Status = StatusIdle
	}
	s.Error = snap.Error
	s.ErrorCode = snap.ErrorCode
	s.Result = snap.Result
	s.State = snap.State
	s.Steps = snap.Steps
	s.Thinking = snap.Thinking
	for _, wire := range snap.Messages {
		msg, err := messages.Decode(wire)
		if err != nil {
			return nil, fmt.Errorf("restore session: %w", err)
		}
		s.append(msg)
	}
	return s, nil
}
