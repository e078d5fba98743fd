// Package apitypes defines the request-side wire types a client sends to
// start an agent run: the run input with its message history, tool
// definitions and context entries. Tool parameter schemas are JSON Schema
// documents and can be compiled for argument validation.
package apitypes

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ag-ui-protocol/ag-ui-go/messages"
)

type (
	// RunAgentInput is the payload a client submits to start a run.
	RunAgentInput struct {
		// ThreadID identifies the conversation thread.
		ThreadID string
		// RunID identifies the run to open on the thread.
		RunID string
		// State is the shared state document the run starts from.
		State any
		// Messages is the conversation history.
		Messages []messages.Message
		// Tools lists the frontend tools available to the agent.
		Tools []Tool
		// Context carries additional context entries for the agent.
		Context []Context
		// ForwardedProps is passed through to the agent untouched.
		ForwardedProps any
	}

	// Tool describes a frontend tool the agent may call.
	Tool struct {
		// Name is the tool identifier used in tool call events.
		Name string
		// Description tells the model when to use the tool.
		Description string
		// Parameters is the JSON Schema for the tool's arguments, as a
		// decoded JSON tree.
		Parameters any
	}

	// Context is one contextual value provided to the agent.
	Context struct {
		Description string
		Value       string
	}
)

// DecodeRunAgentInput converts a wire map into a RunAgentInput. Messages
// decode through the message codec; threadId and runId are required.
func DecodeRunAgentInput(wire any) (*RunAgentInput, error) {
	m, ok := wire.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode run input: not an object")
	}
	threadID, _ := m["threadId"].(string)
	runID, _ := m["runId"].(string)
	if threadID == "" || runID == "" {
		return nil, fmt.Errorf("decode run input: threadId and runId are required")
	}
	in := &RunAgentInput{
		ThreadID:       threadID,
		RunID:          runID,
		State:          m["state"],
		ForwardedProps: m["forwardedProps"],
	}
	if raw, ok := m["messages"].([]any); ok {
		for i, rm := range raw {
			msg, err := messages.Decode(rm)
			if err != nil {
				return nil, fmt.Errorf("decode run input: message %d: %w", i, err)
			}
			in.Messages = append(in.Messages, msg)
		}
	}
	if raw, ok := m["tools"].([]any); ok {
		for i, rt := range raw {
			tm, ok := rt.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("decode run input: tool %d: not an object", i)
			}
			name, _ := tm["name"].(string)
			if name == "" {
				return nil, fmt.Errorf("decode run input: tool %d: name is required", i)
			}
			desc, _ := tm["description"].(string)
			in.Tools = append(in.Tools, Tool{Name: name, Description: desc, Parameters: tm["parameters"]})
		}
	}
	if raw, ok := m["context"].([]any); ok {
		for i, rc := range raw {
			cm, ok := rc.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("decode run input: context %d: not an object", i)
			}
			desc, _ := cm["description"].(string)
			val, _ := cm["value"].(string)
			in.Context = append(in.Context, Context{Description: desc, Value: val})
		}
	}
	return in, nil
}

// CompileParameters compiles the tool's parameter schema. Tools without a
// schema compile to nil, meaning any arguments are accepted.
func (t Tool) CompileParameters() (*jsonschema.Schema, error) {
	if t.Parameters == nil {
		return nil, nil
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", t.Parameters); err != nil {
		return nil, fmt.Errorf("tool %q: add schema resource: %w", t.Name, err)
	}
	schema, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("tool %q: compile schema: %w", t.Name, err)
	}
	return schema, nil
}

// ValidateArguments checks decoded tool call arguments against the tool's
// parameter schema.
func (t Tool) ValidateArguments(args any) error {
	schema, err := t.CompileParameters()
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	if err := schema.Validate(args); err != nil {
		return fmt.Errorf("tool %q: invalid arguments: %w", t.Name, err)
	}
	return nil
}
