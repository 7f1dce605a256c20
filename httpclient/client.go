// Package httpclient is the asynchronous execution core of the Airtable client. It submits
// requests through a Transport, classifies each completed attempt, transparently resubmits
// rate-limited requests and completes a Future exactly once per logical call.
package httpclient

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-airtable/httpclient/internal/tracking"
	"github.com/gaborage/go-airtable/logger"
	"github.com/gaborage/go-airtable/trace"
)

const tracerName = "go-airtable/httpclient"

// Client executes requests against the Airtable API.
type Client interface {
	// Execute submits req and returns immediately. The future completes with the first
	// non-retryable outcome: a 2xx *Response or an *Error.
	Execute(ctx context.Context, req *Request) *Future[*Response]
	// Do is Execute followed by Await on ctx.
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Config holds the client configuration.
type Config struct {
	Retry RetryPolicy
	// LogPayloads enables debug-level logging of headers and body previews.
	LogPayloads bool
	// MaxPayloadLogBytes caps logged body bytes; defaults to 1024.
	MaxPayloadLogBytes int
	// RequestIDHeader, when set, is added to the request snapshot with the call's request ID.
	RequestIDHeader string
}

type client struct {
	transport  Transport
	classifier Classifier
	executor   Executor
	logger     logger.Logger
	config     *Config
	tracer     oteltrace.Tracer
}

var _ Client = (*client)(nil)

// Execute implements Client.
func (c *client) Execute(ctx context.Context, req *Request) *Future[*Response] {
	future := NewFuture[*Response]()
	if req == nil {
		future.Complete(nil, NewTransportError(ErrNilRequest))
		return future
	}

	requestID := trace.EnsureRequestID(ctx)
	snapshot := req.Clone()
	if c.config.RequestIDHeader != "" && snapshot.Header.Get(c.config.RequestIDHeader) == "" {
		snapshot.Header.Set(c.config.RequestIDHeader, requestID)
	}

	ctx, span := c.tracer.Start(ctx, "airtable "+snapshot.Method,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("http.request.method", snapshot.Method),
			attribute.String("url.full", snapshot.URL),
		))

	call := &pendingCall{
		client:    c,
		ctx:       ctx,
		req:       snapshot,
		future:    future,
		requestID: requestID,
		span:      span,
		started:   time.Now(),
	}
	call.submit()
	return future
}

// Do implements Client.
func (c *client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.Execute(ctx, req).Await(ctx)
}

// pendingCall is one logical call. Its fields are only touched by the goroutine running
// the current attempt's completion, and attempts are strictly sequential.
type pendingCall struct {
	client    *client
	ctx       context.Context
	req       *Request
	future    *Future[*Response]
	requestID string
	span      oteltrace.Span
	started   time.Time

	attempts     int
	attemptStart time.Time
}

// submit starts the next attempt. Submission faults go through the executor and the
// classifier exactly like completion faults.
func (p *pendingCall) submit() {
	if err := p.ctx.Err(); err != nil {
		p.dispatch(nil, err)
		return
	}

	p.attempts++
	p.attemptStart = time.Now()
	p.client.logRequest(p.req, p.requestID, p.attempts)

	if err := p.client.transport.Submit(p.ctx, p.req, p.dispatch); err != nil {
		p.dispatch(nil, err)
	}
}

func (p *pendingCall) dispatch(resp *Response, err error) {
	p.client.executor.Execute(func() {
		p.handle(resp, err)
	})
}

func (p *pendingCall) handle(resp *Response, err error) {
	if p.attempts > 0 {
		tracking.RecordAttempt(p.ctx, p.req.Method, statusOf(resp), time.Since(p.attemptStart), err)
	}
	if resp != nil {
		p.client.logResponse(resp, p.requestID, p.attempts, time.Since(p.attemptStart))
	} else if err != nil {
		p.client.logger.Debug().
			Err(err).
			Str("method", p.req.Method).
			Str("url", p.req.URL).
			Str("request_id", p.requestID).
			Int("attempt", p.attempts).
			Msg("Airtable transport fault")
	}

	outcome := p.client.classifier.Classify(resp, err)
	switch outcome.Kind {
	case OutcomeSuccess:
		out := outcome.Response
		if out == nil {
			out = resp
		}
		if out == nil {
			p.finish(nil, NewTransportError(ErrNilResponse), ReasonTransportFault)
			return
		}
		out.Stats = Stats{ElapsedTime: time.Since(p.started), Attempts: p.attempts}
		p.finish(out, nil, outcome.Reason)
	case OutcomeRetryable:
		p.retry(outcome)
	default:
		p.finish(nil, terminalError(outcome), outcome.Reason)
	}
}

// retry schedules the next attempt, or completes with the outcome's error when the policy
// forbids another one.
func (p *pendingCall) retry(outcome Outcome) {
	retry := p.attempts - 1
	policy := p.client.config.Retry
	if !policy.Allows(retry) {
		p.finish(nil, terminalError(outcome), "retries_exhausted")
		return
	}

	delay := policy.Delay(retry, outcome.Response)
	tracking.RecordRetry(p.ctx, p.req.Method, outcome.Reason)
	p.span.AddEvent("retry", oteltrace.WithAttributes(
		attribute.Int("attempt", p.attempts),
		attribute.String("reason", outcome.Reason),
		attribute.Int64("delay_ms", delay.Milliseconds()),
	))
	p.client.logger.Warn().
		Str("method", p.req.Method).
		Str("url", p.req.URL).
		Str("request_id", p.requestID).
		Int("attempt", p.attempts).
		Str("reason", outcome.Reason).
		Dur("delay", delay).
		Msg("Airtable request rate limited, retrying")

	if delay <= 0 {
		p.submit()
		return
	}

	// The timer and the context race for the wait; only the side that claims it proceeds.
	var claimed atomic.Bool
	stopWatch := context.AfterFunc(p.ctx, func() {
		if claimed.CompareAndSwap(false, true) {
			p.dispatch(nil, p.ctx.Err())
		}
	})
	time.AfterFunc(delay, func() {
		stopWatch()
		if claimed.CompareAndSwap(false, true) {
			p.submit()
		}
	})
}

func (p *pendingCall) finish(resp *Response, err *Error, reason string) {
	status := statusOf(resp)
	if err != nil {
		status = err.StatusCode
		p.span.RecordError(err)
		p.span.SetStatus(codes.Error, err.Error())
	}
	p.span.SetAttributes(
		attribute.Int("http.response.status_code", status),
		attribute.Int("airtable.attempts", p.attempts),
		attribute.String("airtable.outcome", reason),
	)
	p.span.End()
	tracking.RecordCall(p.ctx, p.req.Method, reason, time.Since(p.started), p.attempts)

	if err != nil {
		p.future.Complete(nil, err)
		return
	}
	p.future.Complete(resp, nil)
}

// terminalError guarantees a non-nil *Error for failure outcomes produced by custom
// classifiers.
func terminalError(o Outcome) *Error {
	if o.Err != nil {
		return o.Err
	}
	if o.Response != nil {
		return NewStatusError(o.Response.StatusCode, o.Response.Body, nil)
	}
	return NewTransportError(ErrNilResponse)
}

func statusOf(resp *Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

// New creates a client from explicit collaborators. Nil collaborators get defaults: a
// RestyTransport with zero config, a StatusClassifier with the default codec, an
// InlineExecutor and a no-op logger.
func New(transport Transport, classifier Classifier, executor Executor, log logger.Logger, cfg *Config) (Client, error) {
	if transport == nil {
		t, err := NewRestyTransport(TransportConfig{})
		if err != nil {
			return nil, err
		}
		transport = t
	}
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	if executor == nil {
		executor = InlineExecutor{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg == nil {
		cfg = &Config{Retry: DefaultRetryPolicy()}
	}
	if cfg.MaxPayloadLogBytes <= 0 {
		cfg.MaxPayloadLogBytes = defaultMaxPayloadLogBytes
	}
	return &client{
		transport:  transport,
		classifier: classifier,
		executor:   executor,
		logger:     log,
		config:     cfg,
		tracer:     otel.Tracer(tracerName),
	}, nil
}
