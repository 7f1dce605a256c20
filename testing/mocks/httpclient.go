package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/go-airtable/httpclient"
)

// MockClient provides a testify-based mock implementation of httpclient.Client.
//
// Example usage:
//
//	client := &mocks.MockClient{}
//	client.ExpectResponse(http.MethodGet, 200, `{"id":"rec1","fields":{}}`)
//	at, _ := airtable.NewBuilder(nil).WithConfig(cfg).WithHTTPClient(client).Build()
type MockClient struct {
	mock.Mock
}

var _ httpclient.Client = (*MockClient)(nil)

// Execute implements httpclient.Client. The mocked return may be a *httpclient.Future,
// a *httpclient.Response or an error; the latter two are wrapped in a completed future.
func (m *MockClient) Execute(ctx context.Context, req *httpclient.Request) *httpclient.Future[*httpclient.Response] {
	arguments := m.Called(ctx, req)
	switch v := arguments.Get(0).(type) {
	case *httpclient.Future[*httpclient.Response]:
		return v
	case *httpclient.Response:
		return httpclient.Completed(v, nil)
	case error:
		return httpclient.Completed[*httpclient.Response](nil, v)
	default:
		return httpclient.Completed[*httpclient.Response](nil, arguments.Error(1))
	}
}

// Do implements httpclient.Client by awaiting Execute.
func (m *MockClient) Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	return m.Execute(ctx, req).Await(ctx)
}

// ExpectResponse answers the next request with the given method with a response.
func (m *MockClient) ExpectResponse(method string, status int, body string) *mock.Call {
	return m.On("Execute", mock.Anything, MatchMethod(method)).
		Return(&httpclient.Response{StatusCode: status, Body: []byte(body)}).
		Once()
}

// ExpectError answers the next request with the given method with err.
func (m *MockClient) ExpectError(method string, err error) *mock.Call {
	return m.On("Execute", mock.Anything, MatchMethod(method)).Return(err).Once()
}

// MatchMethod matches requests by HTTP method.
func MatchMethod(method string) any {
	return mock.MatchedBy(func(req *httpclient.Request) bool {
		return req != nil && req.Method == method
	})
}

// MockTransport provides a testify-based mock implementation of httpclient.Transport.
// Completions are delivered on a new goroutine, like a real transport.
//
// Example usage:
//
//	transport := mocks.NewMockTransport()
//	transport.On("Submit", mock.Anything, mock.Anything).Return(&httpclient.Response{StatusCode: 429}, nil).Once()
//	transport.On("Submit", mock.Anything, mock.Anything).Return(&httpclient.Response{StatusCode: 200}, nil).Once()
type MockTransport struct {
	mock.Mock

	mu       sync.Mutex
	requests []*httpclient.Request
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

var _ httpclient.Transport = (*MockTransport)(nil)

// Submit implements httpclient.Transport. Mock returns are (*Response, error) for the
// completion, and an optional third error returned from Submit itself.
func (m *MockTransport) Submit(ctx context.Context, req *httpclient.Request, done httpclient.CompletionFunc) error {
	m.mu.Lock()
	m.requests = append(m.requests, req.Clone())
	m.mu.Unlock()

	arguments := m.Called(ctx, req)
	if len(arguments) > 2 {
		if err := arguments.Error(2); err != nil {
			return err
		}
	}

	var resp *httpclient.Response
	if r := arguments.Get(0); r != nil {
		resp = r.(*httpclient.Response)
	}
	err := arguments.Error(1)
	go done(resp, err)
	return nil
}

// Requests returns copies of every submitted request, in order.
func (m *MockTransport) Requests() []*httpclient.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*httpclient.Request(nil), m.requests...)
}

// MockClassifier provides a testify-based mock implementation of httpclient.Classifier.
type MockClassifier struct {
	mock.Mock
}

var _ httpclient.Classifier = (*MockClassifier)(nil)

// Classify implements httpclient.Classifier
func (m *MockClassifier) Classify(resp *httpclient.Response, err error) httpclient.Outcome {
	arguments := m.Called(resp, err)
	return arguments.Get(0).(httpclient.Outcome)
}
