package stream

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"github.com/ag-ui-protocol/ag-ui-go/events"
	"github.com/ag-ui-protocol/ag-ui-go/session"
	"github.com/ag-ui-protocol/ag-ui-go/stream/normalize"
	"github.com/ag-ui-protocol/ag-ui-go/stream/verify"
	"github.com/ag-ui-protocol/ag-ui-go/telemetry"
)

type (
	// Processor drives one connection's event sequence through the
	// protocol core. It is not safe for concurrent use: one connection,
	// one Processor, driven by one goroutine.
	Processor struct {
		sess   *session.Session
		norm   *normalize.Normalizer
		ver    *verify.Verifier
		sink   Sink
		logger telemetry.Logger
		meter  telemetry.Metrics
		tracer telemetry.Tracer

		runSpan telemetry.Span
	}

	// ProcessorOption configures a Processor.
	ProcessorOption func(*Processor)
)

// WithSink forwards every emitted canonical event to sink after the session
// has absorbed it.
func WithSink(sink Sink) ProcessorOption {
	return func(p *Processor) { p.sink = sink }
}

// WithSession resumes from a previously restored session instead of an
// empty one.
func WithSession(sess *session.Session) ProcessorOption {
	return func(p *Processor) { p.sess = sess }
}

// WithVerification gates the stream through the protocol verifier: the
// first illegal event aborts processing with a *verify.Error.
func WithVerification() ProcessorOption {
	return func(p *Processor) { p.ver = verify.New() }
}

// WithNormalizerOptions configures the chunk normalizer, e.g.
// normalize.WithRunErrorMode to downgrade producer bugs into RUN_ERROR.
func WithNormalizerOptions(opts ...normalize.Option) ProcessorOption {
	return func(p *Processor) { p.norm = normalize.New(opts...) }
}

// WithLogger sets the structured logger. Defaults to a no-op.
func WithLogger(logger telemetry.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logger }
}

// WithMetrics sets the metrics recorder. Defaults to a no-op.
func WithMetrics(meter telemetry.Metrics) ProcessorOption {
	return func(p *Processor) { p.meter = meter }
}

// WithTracer sets the tracer used for the per-run span. Defaults to a no-op.
func WithTracer(tracer telemetry.Tracer) ProcessorOption {
	return func(p *Processor) { p.tracer = tracer }
}

// NewProcessor constructs a Processor.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		sess:   session.New(),
		norm:   normalize.New(),
		logger: telemetry.NewNoopLogger(),
		meter:  telemetry.NewNoopMetrics(),
		tracer: telemetry.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Session returns the session the processor folds events into.
func (p *Processor) Session() *session.Session { return p.sess }

// Process decodes one wire map and runs it through the pipeline. Decode and
// verification errors abort the call without touching the session; the
// caller chooses whether to skip the event or drop the connection.
func (p *Processor) Process(ctx context.Context, wire any) error {
	ev, err := events.Decode(wire)
	if err != nil {
		p.meter.IncCounter("agui.decode.errors", 1)
		p.logger.Warn(ctx, "event decode failed", "err", err)
		return err
	}
	p.meter.IncCounter("agui.events.decoded", 1)
	return p.ProcessEvent(ctx, ev)
}

// ProcessEvent runs one already-decoded event through normalize, verify,
// reduce and the sink.
func (p *Processor) ProcessEvent(ctx context.Context, ev events.Event) error {
	out, err := p.norm.Normalize(ev)
	if err != nil {
		p.logger.Error(ctx, "normalize failed", "err", err, "event", string(ev.Type()))
		return err
	}
	return p.emit(ctx, out)
}

// Finalize flushes the normalizer's still-open streams and closes the sink.
// The driver calls it exactly once, when its event sequence ends.
func (p *Processor) Finalize(ctx context.Context) error {
	err := p.emit(ctx, p.norm.Finalize())
	if p.runSpan != nil {
		p.runSpan.End()
		p.runSpan = nil
	}
	if p.sink != nil {
		if cerr := p.sink.Close(ctx); err == nil {
			err = cerr
		}
	}
	return err
}

func (p *Processor) emit(ctx context.Context, evts []events.Event) error {
	for _, ev := range evts {
		if p.ver != nil {
			if err := p.ver.Check(ev); err != nil {
				p.meter.IncCounter("agui.verify.failures", 1)
				p.logger.Error(ctx, "protocol violation", "err", err, "event", string(ev.Type()))
				return err
			}
		}
		p.trace(ctx, ev)
		if err := p.sess.Apply(ev); err != nil {
			// Advisory: the session kept its prior state and the run
			// continues.
			p.meter.IncCounter("agui.patch.failures", 1)
			p.logger.Warn(ctx, "event partially applied", "err", err, "event", string(ev.Type()))
		}
		p.meter.IncCounter("agui.events.emitted", 1, "type", string(ev.Type()))
		if p.sink != nil {
			if err := p.sink.Send(ctx, ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// trace maintains the per-run span.
func (p *Processor) trace(ctx context.Context, ev events.Event) {
	switch t := ev.(type) {
	case *events.RunStarted:
		if p.runSpan != nil {
			p.runSpan.End()
		}
		_, p.runSpan = p.tracer.Start(ctx, "agui.run")
		p.runSpan.AddEvent("run started", "thread_id", t.ThreadID, "run_id", t.RunID)
	case *events.RunFinished:
		if p.runSpan != nil {
			p.runSpan.SetStatus(codes.Ok, "run finished")
			p.runSpan.End()
			p.runSpan = nil
		}
	case *events.RunError:
		if p.runSpan != nil {
			p.runSpan.SetStatus(codes.Error, t.Message)
			p.runSpan.End()
			p.runSpan = nil
		}
	}
}
