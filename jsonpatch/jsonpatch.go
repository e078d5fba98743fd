// Package jsonpatch implements RFC 6902 JSON Patch over decoded JSON trees
// (map[string]any, []any and scalars, as produced by encoding/json).
//
// Apply is transactional: operations run against a deep copy of the input
// document and the copy is only returned when every operation succeeds. A
// failing operation discards the copy, so callers never observe a partially
// patched document.
package jsonpatch

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type (
	// Operation is a single RFC 6902 patch operation.
	Operation struct {
		// Op is one of "add", "remove", "replace", "move", "copy" or "test".
		Op string `json:"op" yaml:"op"`
		// Path is a JSON Pointer to the operation target. For "add" on an
		// array, a final "-" segment appends.
		Path string `json:"path" yaml:"path"`
		// From is the source pointer for "move" and "copy".
		From string `json:"from,omitempty" yaml:"from,omitempty"`
		// Value is the operand for "add", "replace" and "test".
		Value any `json:"value,omitempty" yaml:"value,omitempty"`
	}

	// Error reports why a patch could not be applied. The whole patch is
	// rejected as soon as one operation fails.
	Error struct {
		// Index is the position of the failing operation within the patch.
		Index int
		// Op is the failing operation verb.
		Op string
		// Path is the pointer involved in the failure.
		Path string
		// Reason is a short human-readable explanation.
		Reason string
	}
)

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("json patch op %d (%s %s): %s", e.Index, e.Op, e.Path, e.Reason)
}

// Apply applies ops to doc and returns the patched document. doc is never
// modified: on success the result is a fresh tree sharing no mutable nodes
// with the input, on failure the error describes the first failing operation
// and the caller keeps its original document.
func Apply(doc any, ops []Operation) (any, error) {
	out := Clone(doc)
	for i, op := range ops {
		var err error
		switch op.Op {
		case "add":
			out, err = add(out, op.Path, Clone(op.Value))
		case "remove":
			out, err = remove(out, op.Path)
		case "replace":
			out, err = replace(out, op.Path, Clone(op.Value))
		case "move":
			out, err = move(out, op.From, op.Path)
		case "copy":
			out, err = copyOp(out, op.From, op.Path)
		case "test":
			err = test(out, op.Path, op.Value)
		default:
			err = fmt.Errorf("unknown op %q", op.Op)
		}
		if err != nil {
			return nil, &Error{Index: i, Op: op.Op, Path: op.Path, Reason: err.Error()}
		}
	}
	return out, nil
}

// Clone returns a deep copy of a decoded JSON tree. Scalars are returned
// as-is (they are immutable), maps and slices are copied recursively.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// parsePointer splits an RFC 6901 JSON Pointer into unescaped segments.
// The empty pointer addresses the whole document.
func parsePointer(ptr string) ([]string, error) {
	if ptr == "" {
		return nil, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, fmt.Errorf("pointer %q must start with '/'", ptr)
	}
	segs := strings.Split(ptr[1:], "/")
	for i, s := range segs {
		s = strings.ReplaceAll(s, "~1", "/")
		s = strings.ReplaceAll(s, "~0", "~")
		segs[i] = s
	}
	return segs, nil
}

// get resolves a pointer against the document.
func get(doc any, ptr string) (any, error) {
	segs, err := parsePointer(ptr)
	if err != nil {
		return nil, err
	}
	cur := doc
	for _, seg := range segs {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("member %q not found", seg)
			}
			cur = v
		case []any:
			idx, err := arrayIndex(seg, len(node), false)
			if err != nil {
				return nil, err
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("segment %q addresses a scalar", seg)
		}
	}
	return cur, nil
}

// setAt walks to the parent of ptr and invokes fn with the parent node and
// final segment, replacing the parent in the tree with fn's result. It is
// the shared plumbing for add, remove and replace.
func setAt(doc any, ptr string, fn func(parent any, seg string) (any, error)) (any, error) {
	segs, err := parsePointer(ptr)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return fn(nil, "")
	}
	return descend(doc, segs, fn)
}

func descend(node any, segs []string, fn func(parent any, seg string) (any, error)) (any, error) {
	if len(segs) == 1 {
		return fn(node, segs[0])
	}
	seg := segs[0]
	switch t := node.(type) {
	case map[string]any:
		child, ok := t[seg]
		if !ok {
			return nil, fmt.Errorf("member %q not found", seg)
		}
		updated, err := descend(child, segs[1:], fn)
		if err != nil {
			return nil, err
		}
		t[seg] = updated
		return t, nil
	case []any:
		idx, err := arrayIndex(seg, len(t), false)
		if err != nil {
			return nil, err
		}
		updated, err := descend(t[idx], segs[1:], fn)
		if err != nil {
			return nil, err
		}
		t[idx] = updated
		return t, nil
	default:
		return nil, fmt.Errorf("segment %q addresses a scalar", seg)
	}
}

// arrayIndex parses an array segment. When appendOK is true the "-" segment
// is accepted and returned as len (the append position).
func arrayIndex(seg string, n int, appendOK bool) (int, error) {
	if seg == "-" {
		if appendOK {
			return n, nil
		}
		return 0, fmt.Errorf("'-' is only valid as an add target")
	}
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return 0, fmt.Errorf("invalid array index %q", seg)
	}
	limit := n
	if appendOK {
		limit = n + 1
	}
	if idx < 0 || idx >= limit {
		return 0, fmt.Errorf("array index %d out of bounds (len %d)", idx, n)
	}
	return idx, nil
}

func add(doc any, ptr string, value any) (any, error) {
	return setAt(doc, ptr, func(parent any, seg string) (any, error) {
		if parent == nil {
			// Whole-document replacement.
			return value, nil
		}
		switch t := parent.(type) {
		case map[string]any:
			t[seg] = value
			return t, nil
		case []any:
			idx, err := arrayIndex(seg, len(t), true)
			if err != nil {
				return nil, err
			}
			t = append(t, nil)
			copy(t[idx+1:], t[idx:])
			t[idx] = value
			return t, nil
		default:
			return nil, fmt.Errorf("segment %q addresses a scalar", seg)
		}
	})
}

func remove(doc any, ptr string) (any, error) {
	if ptr == "" {
		return nil, fmt.Errorf("cannot remove the whole document")
	}
	return setAt(doc, ptr, func(parent any, seg string) (any, error) {
		switch t := parent.(type) {
		case map[string]any:
			if _, ok := t[seg]; !ok {
				return nil, fmt.Errorf("member %q not found", seg)
			}
			delete(t, seg)
			return t, nil
		case []any:
			idx, err := arrayIndex(seg, len(t), false)
			if err != nil {
				return nil, err
			}
			return append(t[:idx], t[idx+1:]...), nil
		default:
			return nil, fmt.Errorf("segment %q addresses a scalar", seg)
		}
	})
}

func replace(doc any, ptr string, value any) (any, error) {
	if ptr == "" {
		return value, nil
	}
	return setAt(doc, ptr, func(parent any, seg string) (any, error) {
		switch t := parent.(type) {
		case map[string]any:
			if _, ok := t[seg]; !ok {
				return nil, fmt.Errorf("member %q not found", seg)
			}
			t[seg] = value
			return t, nil
		case []any:
			idx, err := arrayIndex(seg, len(t), false)
			if err != nil {
				return nil, err
			}
			t[idx] = value
			return t, nil
		default:
			return nil, fmt.Errorf("segment %q addresses a scalar", seg)
		}
	})
}

func move(doc any, from, to string) (any, error) {
	if from == to {
		return doc, nil
	}
	if strings.HasPrefix(to, from+"/") {
		return nil, fmt.Errorf("cannot move %q into its own child %q", from, to)
	}
	v, err := get(doc, from)
	if err != nil {
		return nil, err
	}
	v = Clone(v)
	doc, err = remove(doc, from)
	if err != nil {
		return nil, err
	}
	return add(doc, to, v)
}

func copyOp(doc any, from, to string) (any, error) {
	v, err := get(doc, from)
	if err != nil {
		return nil, err
	}
	return add(doc, to, Clone(v))
}

func test(doc any, ptr string, expected any) error {
	v, err := get(doc, ptr)
	if err != nil {
		return err
	}
	if !Equal(v, expected) {
		return fmt.Errorf("test failed: value at %q does not match", ptr)
	}
	return nil
}

// Equal reports deep equality of two decoded JSON values. Numbers compare
// by value so 1 and 1.0 are equal regardless of how they were decoded.
func Equal(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok || bok {
		return aok && bok && af == bf
	}
	switch at := a.(type) {
	case map[string]any:
		bt, ok := b.(map[string]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for k, av := range at {
			bv, ok := bt[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case []any:
		bt, ok := b.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !Equal(at[i], bt[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return 0, false
	}
}
