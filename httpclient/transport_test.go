package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completion struct {
	resp *Response
	err  error
}

func submitAndWait(t *testing.T, tr Transport, ctx context.Context, req *Request) completion {
	t.Helper()
	ch := make(chan completion, 1)
	err := tr.Submit(ctx, req, func(resp *Response, err error) {
		ch <- completion{resp: resp, err: err}
	})
	require.NoError(t, err)

	select {
	case c := <-ch:
		return c
	case <-time.After(testAwaitLimit):
		t.Fatal("transport did not complete")
		return completion{}
	}
}

func TestRestyTransportSendsRequest(t *testing.T) {
	var gotMethod, gotAuth, gotAgent, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", testContentType)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"rec1"}`))
	}))
	defer server.Close()

	tr, err := NewRestyTransport(TransportConfig{Timeout: time.Second})
	require.NoError(t, err)

	req := NewRequest(http.MethodPost, server.URL+"/v0/app/Table", []byte(`{"fields":{}}`))
	req.Header.Set("Authorization", testAuthHeader)
	req.Header.Set("Content-Type", testContentType)
	c := submitAndWait(t, tr, context.Background(), req)

	require.NoError(t, c.err)
	assert.Equal(t, http.StatusCreated, c.resp.StatusCode)
	assert.Equal(t, `{"id":"rec1"}`, string(c.resp.Body))
	assert.Equal(t, testContentType, c.resp.Header.Get("Content-Type"))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, testAuthHeader, gotAuth)
	assert.Equal(t, DefaultUserAgent, gotAgent)
	assert.Equal(t, `{"fields":{}}`, gotBody)
}

func TestRestyTransportReturnsErrorStatusesAsResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"RATE_LIMIT_REACHED"}`))
	}))
	defer server.Close()

	tr, err := NewRestyTransport(TransportConfig{UserAgent: "custom/2.0"})
	require.NoError(t, err)

	c := submitAndWait(t, tr, context.Background(), NewRequest(http.MethodGet, server.URL, nil))

	require.NoError(t, c.err)
	assert.Equal(t, http.StatusTooManyRequests, c.resp.StatusCode)
}

func TestRestyTransportTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := NewRestyTransport(TransportConfig{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	c := submitAndWait(t, tr, context.Background(), NewRequest(http.MethodGet, server.URL, nil))

	assert.Error(t, c.err)
	assert.Nil(t, c.resp)
}

func TestRestyTransportRejectsRelativeURL(t *testing.T) {
	tr, err := NewRestyTransport(TransportConfig{})
	require.NoError(t, err)

	called := false
	err = tr.Submit(context.Background(), NewRequest(http.MethodGet, "/v0/app/Table", nil), func(*Response, error) {
		called = true
	})

	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.False(t, called)
	assert.ErrorIs(t, tr.Submit(context.Background(), nil, nil), ErrNilRequest)
}

func TestRestyTransportInvalidProxy(t *testing.T) {
	_, err := NewRestyTransport(TransportConfig{ProxyURL: "://bad"})
	assert.Error(t, err)
}

func TestRestyTransportRateLimiterHonorsContext(t *testing.T) {
	tr, err := NewRestyTransport(TransportConfig{RequestsPerSecond: 0.001, Burst: 1})
	require.NoError(t, err)
	// Drain the single token.
	require.True(t, tr.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	c := submitAndWait(t, tr, ctx, NewRequest(http.MethodGet, "https://api.airtable.com/v0", nil))

	assert.Error(t, c.err)
}

func TestTransportFunc(t *testing.T) {
	var got *Request
	tr := TransportFunc(func(_ context.Context, req *Request, done CompletionFunc) error {
		got = req
		done(&Response{StatusCode: http.StatusOK}, nil)
		return nil
	})
	req := newRecordsRequest()

	require.NoError(t, tr.Submit(context.Background(), req, func(*Response, error) {}))
	assert.Same(t, req, got)
}
