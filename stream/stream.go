// Package stream composes the protocol core into a one-connection driver:
// decode, normalize, optionally verify, reduce into a session and forward to
// a sink. The components themselves are pure; this package owns the I/O
// edges, the telemetry and the skip-vs-abort policy hooks.
package stream

import (
	"context"

	"github.com/ag-ui-protocol/ag-ui-go/events"
)

// Sink delivers canonical events to a client or a recorder. The Processor
// sends every event it emits, after the session has absorbed it.
type Sink interface {
	Send(ctx context.Context, ev events.Event) error
	Close(ctx context.Context) error
}

// SinkFunc adapts a function to the Sink interface with a no-op Close.
type SinkFunc func(ctx context.Context, ev events.Event) error

// Send implements Sink.
func (f SinkFunc) Send(ctx context.Context, ev events.Event) error { return f(ctx, ev) }

// Close implements Sink.
func (SinkFunc) Close(context.Context) error { return nil }
