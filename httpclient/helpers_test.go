package httpclient

import (
	"context"
	"maps"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-airtable/logger"
)

// Test constants to avoid string duplication
const (
	testRecordsURL  = "https://api.airtable.com/v0/appTest/Table%201"
	testContentType = "application/json"
	testAuthHeader  = "Bearer keyTest"
	testRequestID   = "req-123"
	testAwaitLimit  = 5 * time.Second
)

// attempt scripts the outcome of one physical attempt.
type attempt struct {
	status    int
	body      string
	header    http.Header
	err       error // completion fault
	submitErr error // returned from Submit
}

// scriptedTransport replays attempts in order, repeating the last one once exhausted.
type scriptedTransport struct {
	mu       sync.Mutex
	attempts []attempt
	requests []*Request
	onSubmit func(n int)
}

func newScriptedTransport(attempts ...attempt) *scriptedTransport {
	return &scriptedTransport{attempts: attempts}
}

func (s *scriptedTransport) Submit(_ context.Context, req *Request, done CompletionFunc) error {
	s.mu.Lock()
	s.requests = append(s.requests, req.Clone())
	n := len(s.requests)
	a := s.attempts[min(n, len(s.attempts))-1]
	hook := s.onSubmit
	s.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if a.submitErr != nil {
		return a.submitErr
	}
	go func() {
		if a.err != nil {
			done(nil, a.err)
			return
		}
		header := a.header.Clone()
		if header == nil {
			header = make(http.Header)
		}
		done(&Response{StatusCode: a.status, Header: header, Body: []byte(a.body)}, nil)
	}()
	return nil
}

func (s *scriptedTransport) submitted() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}

// countingClassifier counts Classify calls made on the wrapped classifier.
type countingClassifier struct {
	next  Classifier
	calls atomic.Int32
}

func (c *countingClassifier) Classify(resp *Response, err error) Outcome {
	c.calls.Add(1)
	return c.next.Classify(resp, err)
}

// countingExecutor runs tasks inline and counts them.
type countingExecutor struct {
	tasks atomic.Int32
}

func (e *countingExecutor) Execute(task func()) {
	e.tasks.Add(1)
	task()
}

// immediateRetry resubmits without waiting.
func immediateRetry(maxRetries int) RetryPolicy {
	return RetryPolicy{MaxRetries: maxRetries}
}

func newTestClient(t *testing.T, transport Transport, classifier Classifier, executor Executor, cfg *Config) Client {
	t.Helper()
	c, err := New(transport, classifier, executor, nil, cfg)
	require.NoError(t, err)
	return c
}

func newRecordsRequest() *Request {
	req := NewRequest(http.MethodGet, testRecordsURL, nil)
	req.Header.Set("Authorization", testAuthHeader)
	return req
}

func await(t *testing.T, f *Future[*Response]) (*Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testAwaitLimit)
	defer cancel()
	resp, err := f.Await(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "future did not complete in time")
	return resp, err
}

// fakeLogEvent implements logger.LogEvent for testing
type fakeLogEvent struct {
	logger *fakeLogger
	level  string
	fields map[string]any
}

func (e *fakeLogEvent) Msg(msg string) {
	e.logger.mu.Lock()
	defer e.logger.mu.Unlock()
	e.logger.events = append(e.logger.events, loggedEvent{
		level:   e.level,
		fields:  maps.Clone(e.fields),
		message: msg,
	})
}

func (e *fakeLogEvent) Msgf(format string, _ ...any) {
	e.Msg(format)
}

func (e *fakeLogEvent) Err(err error) logger.LogEvent {
	e.fields["error"] = err
	return e
}

func (e *fakeLogEvent) Str(key, value string) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Int(key string, value int) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Int64(key string, value int64) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Uint64(key string, value uint64) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Dur(key string, d time.Duration) logger.LogEvent {
	e.fields[key] = d
	return e
}

func (e *fakeLogEvent) Interface(key string, i any) logger.LogEvent {
	e.fields[key] = i
	return e
}

func (e *fakeLogEvent) Bytes(key string, val []byte) logger.LogEvent {
	e.fields[key] = val
	return e
}

// fakeLogger implements logger.Logger for testing
type fakeLogger struct {
	mu     sync.Mutex
	events []loggedEvent
}

type loggedEvent struct {
	level   string
	fields  map[string]any
	message string
}

func (l *fakeLogger) newEvent(level string) logger.LogEvent {
	return &fakeLogEvent{logger: l, level: level, fields: make(map[string]any)}
}

func (l *fakeLogger) Info() logger.LogEvent  { return l.newEvent("info") }
func (l *fakeLogger) Error() logger.LogEvent { return l.newEvent("error") }
func (l *fakeLogger) Debug() logger.LogEvent { return l.newEvent("debug") }
func (l *fakeLogger) Warn() logger.LogEvent  { return l.newEvent("warn") }
func (l *fakeLogger) Fatal() logger.LogEvent { return l.newEvent("fatal") }

func (l *fakeLogger) WithContext(_ any) logger.Logger {
	return l
}

func (l *fakeLogger) WithFields(_ map[string]any) logger.Logger {
	return l
}

func (l *fakeLogger) find(level, message string) []loggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []loggedEvent
	for _, e := range l.events {
		if e.level == level && e.message == message {
			out = append(out, e)
		}
	}
	return out
}
