package messages

// Decode converts a wire map into a Message. The input map is retained on
// the result so Encode can reproduce it exactly, unknown fields included.
func Decode(wire any) (Message, error) {
	m, ok := wire.(map[string]any)
	if !ok {
		return nil, &DecodeError{Tag: TagInvalidInput}
	}
	role, _ := m["role"].(string)
	id, hasID := m["id"].(string)
	name, _ := m["name"].(string)
	base := Base{ID: id, Name: name, wire: m}

	switch Role(role) {
	case RoleUser, RoleSystem, RoleDeveloper:
		content, hasContent := m["content"].(string)
		if !hasID || !hasContent {
			return nil, missing(role, need(hasID, "id"), need(hasContent, "content"))
		}
		switch Role(role) {
		case RoleUser:
			return &User{Base: base, Content: content}, nil
		case RoleSystem:
			return &System{Base: base, Content: content}, nil
		default:
			return &Developer{Base: base, Content: content}, nil
		}
	case RoleAssistant:
		if !hasID {
			return nil, missing(role, "id")
		}
		msg := &Assistant{Base: base}
		msg.Content, _ = m["content"].(string)
		if rawCalls, ok := m["toolCalls"].([]any); ok {
			for _, rc := range rawCalls {
				tc, err := decodeToolCall(rc)
				if err != nil {
					return nil, err
				}
				msg.ToolCalls = append(msg.ToolCalls, tc)
			}
		}
		return msg, nil
	case RoleTool:
		content, hasContent := m["content"].(string)
		callID, hasCallID := m["toolCallId"].(string)
		if !hasID || !hasContent || !hasCallID {
			return nil, missing(role, need(hasID, "id"), need(hasContent, "content"), need(hasCallID, "toolCallId"))
		}
		msg := &Tool{Base: base, Content: content, ToolCallID: callID}
		msg.Error, _ = m["error"].(string)
		return msg, nil
	case RoleActivity:
		activityType, hasType := m["activityType"].(string)
		if !hasID || !hasType {
			return nil, missing(role, need(hasID, "id"), need(hasType, "activityType"))
		}
		return &Activity{Base: base, ActivityType: activityType, Content: m["content"]}, nil
	default:
		return nil, &DecodeError{Tag: TagInvalidRole, Role: role}
	}
}

// Encode converts a Message back into a wire map. Decoded messages encode
// to their original map; constructed messages encode to the canonical form.
func Encode(msg Message) map[string]any {
	if b := baseOf(msg); b.wire != nil {
		return cloneMap(b.wire)
	}
	out := map[string]any{
		"id":   msg.Ident(),
		"role": string(msg.Role()),
	}
	if n := baseOf(msg).Name; n != "" {
		out["name"] = n
	}
	switch t := msg.(type) {
	case *User:
		out["content"] = t.Content
	case *System:
		out["content"] = t.Content
	case *Developer:
		out["content"] = t.Content
	case *Assistant:
		if t.Content != "" {
			out["content"] = t.Content
		}
		if len(t.ToolCalls) > 0 {
			calls := make([]any, len(t.ToolCalls))
			for i, tc := range t.ToolCalls {
				calls[i] = map[string]any{
					"id":   tc.ID,
					"type": tc.Type,
					"function": map[string]any{
						"name":      tc.Function.Name,
						"arguments": tc.Function.Arguments,
					},
				}
			}
			out["toolCalls"] = calls
		}
	case *Tool:
		out["content"] = t.Content
		out["toolCallId"] = t.ToolCallID
		if t.Error != "" {
			out["error"] = t.Error
		}
	case *Activity:
		out["activityType"] = t.ActivityType
		if t.Content != nil {
			out["content"] = t.Content
		}
	}
	return out
}

func decodeToolCall(wire any) (*ToolCall, error) {
	m, ok := wire.(map[string]any)
	if !ok {
		return nil, &DecodeError{Tag: TagInvalidInput, Role: string(RoleAssistant), Fields: []string{"toolCalls"}}
	}
	id, hasID := m["id"].(string)
	fn, hasFn := m["function"].(map[string]any)
	if !hasID || !hasFn {
		return nil, missing(string(RoleAssistant), need(hasID, "toolCalls.id"), need(hasFn, "toolCalls.function"))
	}
	fnName, hasName := fn["name"].(string)
	if !hasName {
		return nil, missing(string(RoleAssistant), "toolCalls.function.name")
	}
	callType, _ := m["type"].(string)
	if callType == "" {
		callType = "function"
	}
	args, _ := fn["arguments"].(string)
	return &ToolCall{ID: id, Type: callType, Function: FunctionCall{Name: fnName, Arguments: args}}, nil
}

func baseOf(msg Message) *Base {
	switch t := msg.(type) {
	case *User:
		return &t.Base
	case *System:
		return &t.Base
	case *Developer:
		return &t.Base
	case *Assistant:
		return &t.Base
	case *Tool:
		return &t.Base
	case *Activity:
		return &t.Base
	default:
		return &Base{}
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

func missing(role string, fields ...string) *DecodeError {
	var present []string
	for _, f := range fields {
		if f != "" {
			present = append(present, f)
		}
	}
	return &DecodeError{Tag: TagMissingRequiredFields, Role: role, Fields: present}
}

func need(ok bool, field string) string {
	if ok {
		return ""
	}
	return field
}
