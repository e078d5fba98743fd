// Package messages defines the protocol message model shared by the event
// model and the session reducer: role-discriminated message variants and the
// OpenAI-style tool call structure embedded in assistant messages.
//
// Messages decode from wire maps (camelCase fields, "role" discriminator) and
// encode back to them. Decoding preserves the original map so unrecognized
// extra fields survive a decode/encode round trip.
package messages

import (
	"fmt"
	"strings"
)

type (
	// Message is the closed set of message variants. Concrete types embed
	// Base; the unexported method keeps the set closed to this package.
	Message interface {
		// Role returns the role discriminator of the variant.
		Role() Role
		// Ident returns the message id.
		Ident() string

		isMessage()
	}

	// Base carries the fields shared by every message variant.
	Base struct {
		// ID uniquely identifies the message within a thread.
		ID string
		// Name optionally labels the participant that produced the message.
		Name string

		wire map[string]any
	}

	// User is an end-user message.
	User struct {
		Base
		Content string
	}

	// System is a system prompt message.
	System struct {
		Base
		Content string
	}

	// Developer is a developer-authored instruction message.
	Developer struct {
		Base
		Content string
	}

	// Assistant is a model-produced message. Content accumulates while the
	// text stream is open; ToolCalls collects the calls requested by the
	// assistant in this message.
	Assistant struct {
		Base
		Content   string
		ToolCalls []*ToolCall
	}

	// Tool carries the result of a tool call back into the conversation.
	Tool struct {
		Base
		Content    string
		ToolCallID string
		// Error holds the tool failure message when the call did not succeed.
		Error string
	}

	// Activity is a renderable activity card. Activity messages are
	// addressed by id: a later activity snapshot with the same id replaces
	// this one in place, and activity deltas patch Content.
	Activity struct {
		Base
		ActivityType string
		// Content is an arbitrary JSON tree (as decoded by encoding/json).
		Content any
	}

	// ToolCall is a tool invocation requested by an assistant message,
	// modelled after OpenAI tool calls.
	ToolCall struct {
		// ID correlates the call with its streamed arguments and result.
		ID string `json:"id"`
		// Type is always "function".
		Type string `json:"type"`
		// Function names the tool and carries the accumulated argument JSON.
		Function FunctionCall `json:"function"`
	}

	// FunctionCall is the name/arguments pair of a tool call. Arguments is
	// the raw accumulated JSON string, not guaranteed to be complete until
	// the tool call stream has ended.
	FunctionCall struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	}

	// Role discriminates message variants on the wire.
	Role string

	// DecodeError reports why a wire map could not be decoded into a
	// Message. Tag is one of the enumerable decode failure tags.
	DecodeError struct {
		Tag    ErrorTag
		Role   string
		Fields []string
	}

	// ErrorTag enumerates message decode failures.
	ErrorTag string
)

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleActivity  Role = "activity"
)

const (
	// TagInvalidInput marks input that is not a JSON object.
	TagInvalidInput ErrorTag = "invalid_input"
	// TagInvalidRole marks an unknown or forbidden role discriminator.
	TagInvalidRole ErrorTag = "invalid_role"
	// TagMissingRequiredFields marks a variant missing mandatory fields.
	TagMissingRequiredFields ErrorTag = "missing_required_fields"
)

// Error implements error.
func (e *DecodeError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("decode message role %q: %s (%s)", e.Role, e.Tag, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("decode message role %q: %s", e.Role, e.Tag)
}

func (b *Base) isMessage() {}

// Ident returns the message id.
func (b *Base) Ident() string { return b.ID }

// Wire returns the original wire map the message was decoded from, or nil
// for messages constructed in process.
func (b *Base) Wire() map[string]any { return b.wire }

// MarkDirty discards the preserved wire map. Callers that mutate a decoded
// message in place must call it so Encode reflects the new field values
// instead of the stale wire form.
func (b *Base) MarkDirty() { b.wire = nil }

func (*User) Role() Role      { return RoleUser }
func (*System) Role() Role    { return RoleSystem }
func (*Developer) Role() Role { return RoleDeveloper }
func (*Assistant) Role() Role { return RoleAssistant }
func (*Tool) Role() Role      { return RoleTool }
func (*Activity) Role() Role  { return RoleActivity }
