package stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ag-ui-protocol/ag-ui-go/events"
	"github.com/ag-ui-protocol/ag-ui-go/session"
	"github.com/ag-ui-protocol/ag-ui-go/stream/normalize"
	"github.com/ag-ui-protocol/ag-ui-go/stream/verify"
)

func TestProcessorPipeline(t *testing.T) {
	ctx := context.Background()
	var forwarded []events.Event
	p := NewProcessor(
		WithVerification(),
		WithSink(SinkFunc(func(_ context.Context, ev events.Event) error {
			forwarded = append(forwarded, ev)
			return nil
		})),
	)

	wires := []map[string]any{
		{"type": "RUN_STARTED", "threadId": "t1", "runId": "r1"},
		{"type": "TEXT_MESSAGE_CHUNK", "messageId": "m1", "delta": "Hel"},
		{"type": "TEXT_MESSAGE_CHUNK", "delta": "lo"},
		{"type": "STATE_SNAPSHOT", "snapshot": map[string]any{"n": 1.0}},
		{"type": "RUN_FINISHED", "threadId": "t1", "runId": "r1"},
	}
	for _, wire := range wires {
		require.NoError(t, p.Process(ctx, wire))
	}
	require.NoError(t, p.Finalize(ctx))

	sess := p.Session()
	assert.Equal(t, session.StatusFinished, sess.Status)
	require.Len(t, sess.Messages, 1)

	// The chunk shorthand reached the sink in canonical form, with the
	// synthetic End emitted before RUN_FINISHED.
	types := make([]events.EventType, len(forwarded))
	for i, ev := range forwarded {
		types[i] = ev.Type()
	}
	assert.Equal(t, []events.EventType{
		events.EventRunStarted,
		events.EventTextMessageStart,
		events.EventTextMessageContent,
		events.EventTextMessageContent,
		events.EventStateSnapshot,
		events.EventTextMessageEnd,
		events.EventRunFinished,
	}, types)
}

func TestProcessorDecodeErrorLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor()
	require.NoError(t, p.Process(ctx, map[string]any{"type": "RUN_STARTED", "threadId": "t1", "runId": "r1"}))

	err := p.Process(ctx, map[string]any{"type": "NOT_A_THING"})
	var derr *events.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, session.StatusRunning, p.Session().Status)
}

func TestProcessorVerificationGate(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor(WithVerification())

	err := p.Process(ctx, map[string]any{"type": "TEXT_MESSAGE_START", "messageId": "m1"})
	var verr *verify.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, verify.ReasonFirstEventMustBeRunStarted, verr.Reason)

	// The illegal event never reached the session.
	assert.Empty(t, p.Session().Messages)
}

func TestProcessorPatchFailureIsAdvisory(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor()
	require.NoError(t, p.Process(ctx, map[string]any{"type": "RUN_STARTED", "threadId": "t1", "runId": "r1"}))
	require.NoError(t, p.Process(ctx, map[string]any{"type": "STATE_SNAPSHOT", "snapshot": map[string]any{"n": 1.0}}))

	// The bad delta is swallowed; processing continues.
	require.NoError(t, p.Process(ctx, map[string]any{
		"type":  "STATE_DELTA",
		"delta": []any{map[string]any{"op": "remove", "path": "/missing"}},
	}))
	require.NoError(t, p.Process(ctx, map[string]any{"type": "RUN_FINISHED", "threadId": "t1", "runId": "r1"}))
	assert.Equal(t, session.StatusFinished, p.Session().Status)
}

func TestProcessorRunErrorMode(t *testing.T) {
	ctx := context.Background()
	p := NewProcessor(WithNormalizerOptions(normalize.WithRunErrorMode()))
	require.NoError(t, p.Process(ctx, map[string]any{"type": "RUN_STARTED", "threadId": "t1", "runId": "r1"}))

	// A nameless first tool chunk degrades into a terminal RUN_ERROR.
	require.NoError(t, p.Process(ctx, map[string]any{"type": "TOOL_CALL_CHUNK", "toolCallId": "c1", "delta": "{"}))
	assert.Equal(t, session.StatusError, p.Session().Status)
	assert.Equal(t, "normalizer_error", p.Session().ErrorCode)
}

func TestProcessorResumesFromRestoredSession(t *testing.T) {
	ctx := context.Background()
	first := NewProcessor()
	require.NoError(t, first.Process(ctx, map[string]any{"type": "RUN_STARTED", "threadId": "t1", "runId": "r1"}))
	require.NoError(t, first.Process(ctx, map[string]any{"type": "RUN_FINISHED", "threadId": "t1", "runId": "r1"}))

	data, err := first.Session().Snapshot()
	require.NoError(t, err)
	restored, err := session.Restore(data)
	require.NoError(t, err)

	second := NewProcessor(WithSession(restored))
	require.NoError(t, second.Process(ctx, map[string]any{"type": "RUN_STARTED", "threadId": "t1", "runId": "r2"}))
	assert.Equal(t, "r2", second.Session().RunID)
	assert.Equal(t, session.StatusRunning, second.Session().Status)
}
