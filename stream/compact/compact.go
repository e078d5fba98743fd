// Package compact merges runs of streamed content events in a finished,
// already-canonical event sequence, for audit and storage efficiency.
//
// Compaction never changes semantic content: the concatenated text and
// argument payloads are identical before and after. The only reordering is
// the documented, stream-bounded one — events interleaved inside a merged
// stream are replayed immediately after that stream's End, keeping their
// relative order. Compaction is an offline pass, never part of live
// delivery.
package compact

import (
	"strings"

	"github.com/ag-ui-protocol/ag-ui-go/events"
)

// Compact merges each Start..End text and tool stream in evts into at most
// one Content/Args event carrying the concatenation of its deltas and the
// first constituent's timestamp. Events of other streams encountered inside
// a merged stream are deferred to just after its End and then compacted
// themselves. State and activity events never merge; every snapshot and
// delta remains individually auditable. Orphan Content or End events and
// unterminated Starts pass through unchanged.
func Compact(evts []events.Event) []events.Event {
	out := make([]events.Event, 0, len(evts))
	rest := evts
	for len(rest) > 0 {
		ev := rest[0]
		switch t := ev.(type) {
		case *events.TextMessageStart:
			seg, ok := collectText(t.MessageID, rest[1:])
			if !ok {
				out = append(out, ev)
				rest = rest[1:]
				continue
			}
			out = append(out, ev)
			if merged := mergeText(t.MessageID, seg.contents); merged != nil {
				out = append(out, merged)
			}
			out = append(out, seg.end)
			rest = append(seg.deferred, rest[1+seg.n:]...)
		case *events.ToolCallStart:
			seg, ok := collectTool(t.ToolCallID, rest[1:])
			if !ok {
				out = append(out, ev)
				rest = rest[1:]
				continue
			}
			out = append(out, ev)
			if merged := mergeTool(t.ToolCallID, seg.contents); merged != nil {
				out = append(out, merged)
			}
			out = append(out, seg.end)
			rest = append(seg.deferred, rest[1+seg.n:]...)
		default:
			out = append(out, ev)
			rest = rest[1:]
		}
	}
	return out
}

// segment is the body of one Start..End stream: the content events belonging
// to the stream, the foreign events to replay after its End, the End event
// itself and the number of input events consumed.
type segment struct {
	contents []events.Event
	deferred []events.Event
	end      events.Event
	n        int
}

func collectText(id string, rest []events.Event) (segment, bool) {
	var seg segment
	for i, ev := range rest {
		switch t := ev.(type) {
		case *events.TextMessageContent:
			if t.MessageID == id {
				seg.contents = append(seg.contents, t)
				continue
			}
		case *events.TextMessageEnd:
			if t.MessageID == id {
				seg.end = t
				seg.n = i + 1
				return seg, true
			}
		}
		seg.deferred = append(seg.deferred, ev)
	}
	// Unterminated stream: no merge, no reorder.
	return segment{}, false
}

func collectTool(id string, rest []events.Event) (segment, bool) {
	var seg segment
	for i, ev := range rest {
		switch t := ev.(type) {
		case *events.ToolCallArgs:
			if t.ToolCallID == id {
				seg.contents = append(seg.contents, t)
				continue
			}
		case *events.ToolCallEnd:
			if t.ToolCallID == id {
				seg.end = t
				seg.n = i + 1
				return seg, true
			}
		}
		seg.deferred = append(seg.deferred, ev)
	}
	return segment{}, false
}

func mergeText(id string, contents []events.Event) events.Event {
	switch len(contents) {
	case 0:
		// An empty stream stays Start..End with no synthetic content.
		return nil
	case 1:
		return contents[0]
	}
	var sb strings.Builder
	for _, ev := range contents {
		sb.WriteString(ev.(*events.TextMessageContent).Delta)
	}
	merged := &events.TextMessageContent{MessageID: id, Delta: sb.String()}
	merged.TimestampMS = contents[0].Time()
	return merged
}

func mergeTool(id string, contents []events.Event) events.Event {
	switch len(contents) {
	case 0:
		return nil
	case 1:
		return contents[0]
	}
	var sb strings.Builder
	for _, ev := range contents {
		sb.WriteString(ev.(*events.ToolCallArgs).Delta)
	}
	merged := &events.ToolCallArgs{ToolCallID: id, Delta: sb.String()}
	merged.TimestampMS = contents[0].Time()
	return merged
}
