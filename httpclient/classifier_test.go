package httpclient

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-airtable/codec"
)

func TestStatusClassifierOutcomes(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		name   string
		status int
		kind   OutcomeKind
		reason string
	}{
		{name: "ok", status: http.StatusOK, kind: OutcomeSuccess, reason: ReasonSuccess},
		{name: "created", status: http.StatusCreated, kind: OutcomeSuccess, reason: ReasonSuccess},
		{name: "no content", status: http.StatusNoContent, kind: OutcomeSuccess, reason: ReasonSuccess},
		{name: "rate limited", status: http.StatusTooManyRequests, kind: OutcomeRetryable, reason: ReasonRateLimited},
		{name: "redirect", status: http.StatusFound, kind: OutcomeTerminal, reason: ReasonStatus},
		{name: "not found", status: http.StatusNotFound, kind: OutcomeTerminal, reason: ReasonStatus},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, kind: OutcomeTerminal, reason: ReasonStatus},
		{name: "server error", status: http.StatusInternalServerError, kind: OutcomeTerminal, reason: ReasonStatus},
		{name: "unavailable", status: http.StatusServiceUnavailable, kind: OutcomeTerminal, reason: ReasonStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &Response{StatusCode: tt.status}
			outcome := classifier.Classify(resp, nil)

			assert.Equal(t, tt.kind, outcome.Kind)
			assert.Equal(t, tt.reason, outcome.Reason)
			assert.Same(t, resp, outcome.Response)
			if tt.kind == OutcomeSuccess {
				assert.Nil(t, outcome.Err)
			} else {
				require.NotNil(t, outcome.Err)
				assert.Equal(t, tt.status, outcome.Err.StatusCode)
			}
		})
	}
}

func TestStatusClassifierTransportFault(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	outcome := NewClassifier(nil).Classify(nil, cause)

	assert.Equal(t, OutcomeTerminal, outcome.Kind)
	assert.Equal(t, ReasonTransportFault, outcome.Reason)
	require.NotNil(t, outcome.Err)
	assert.Equal(t, 0, outcome.Err.StatusCode)
	assert.ErrorIs(t, outcome.Err, cause)
}

func TestStatusClassifierNoResponseNoError(t *testing.T) {
	outcome := NewClassifier(nil).Classify(nil, nil)

	assert.Equal(t, OutcomeTerminal, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, ErrNilResponse)
}

func TestStatusClassifierDecodesErrorPayloads(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected *ErrorDetail
	}{
		{
			name:     "object form",
			body:     `{"error":{"type":"INVALID_PERMISSIONS","message":"You are not permitted"}}`,
			expected: &ErrorDetail{Type: "INVALID_PERMISSIONS", Message: "You are not permitted"},
		},
		{
			name:     "string form",
			body:     `{"error":"NOT_FOUND"}`,
			expected: &ErrorDetail{Type: "NOT_FOUND"},
		},
		{name: "empty body", body: "", expected: nil},
		{name: "not json", body: "<html>bad gateway</html>", expected: nil},
		{name: "no error key", body: `{"message":"x"}`, expected: nil},
		{name: "empty object", body: `{"error":{}}`, expected: nil},
	}

	for _, c := range []codec.Codec{codec.Sonic(), codec.Standard()} {
		classifier := NewClassifier(c)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				outcome := classifier.Classify(&Response{StatusCode: http.StatusNotFound, Body: []byte(tt.body)}, nil)

				require.NotNil(t, outcome.Err)
				assert.Equal(t, tt.expected, outcome.Err.Detail)
				assert.Equal(t, tt.body, outcome.Err.Body)
			})
		}
	}
}

func TestClassifierIsPure(t *testing.T) {
	classifier := NewClassifier(nil)
	resp := &Response{StatusCode: http.StatusTooManyRequests, Body: []byte(`{"error":"RATE_LIMIT_REACHED"}`)}

	first := classifier.Classify(resp, nil)
	second := classifier.Classify(resp, nil)

	assert.Equal(t, first, second)
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "retryable", OutcomeRetryable.String())
	assert.Equal(t, "terminal", OutcomeTerminal.String())
	assert.Equal(t, "unknown", OutcomeKind(0).String())
}

func TestClassifierFunc(t *testing.T) {
	var called bool
	f := ClassifierFunc(func(_ *Response, _ error) Outcome {
		called = true
		return Outcome{Kind: OutcomeSuccess}
	})

	assert.Equal(t, OutcomeSuccess, f.Classify(nil, nil).Kind)
	assert.True(t, called)
}
