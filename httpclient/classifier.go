package httpclient

import (
	"net/http"

	"github.com/gaborage/go-airtable/codec"
)

// OutcomeKind is the classifier's decision about one attempt.
type OutcomeKind int

const (
	// OutcomeSuccess completes the call with the response.
	OutcomeSuccess OutcomeKind = iota + 1
	// OutcomeRetryable resubmits the request.
	OutcomeRetryable
	// OutcomeTerminal completes the call with the error.
	OutcomeTerminal
)

// String returns the lowercase name of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Reasons attached to outcomes.
const (
	ReasonSuccess        = "success"
	ReasonRateLimited    = "rate_limited"
	ReasonStatus         = "status"
	ReasonTransportFault = "transport_fault"
)

// Outcome is the classification of one attempt. Err is set for retryable and terminal
// outcomes; a retryable outcome carries the error surfaced if no further attempt is made.
type Outcome struct {
	Kind     OutcomeKind
	Response *Response
	Err      *Error
	Reason   string
}

// Classifier decides what a completed attempt means. Implementations must be pure.
type Classifier interface {
	Classify(resp *Response, err error) Outcome
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(resp *Response, err error) Outcome

// Classify calls f.
func (f ClassifierFunc) Classify(resp *Response, err error) Outcome {
	return f(resp, err)
}

// StatusClassifier implements the Airtable policy: 2xx succeeds, 429 retries, any other
// status or transport fault is terminal.
type StatusClassifier struct {
	codec codec.Codec
}

// NewClassifier returns a StatusClassifier decoding error payloads with c.
// A nil codec uses codec.Default().
func NewClassifier(c codec.Codec) *StatusClassifier {
	if c == nil {
		c = codec.Default()
	}
	return &StatusClassifier{codec: c}
}

// Classify implements Classifier.
func (c *StatusClassifier) Classify(resp *Response, err error) Outcome {
	if err != nil {
		return Outcome{Kind: OutcomeTerminal, Err: NewTransportError(err), Reason: ReasonTransportFault}
	}
	if resp == nil {
		return Outcome{Kind: OutcomeTerminal, Err: NewTransportError(ErrNilResponse), Reason: ReasonTransportFault}
	}

	switch {
	case IsSuccessStatus(resp.StatusCode):
		return Outcome{Kind: OutcomeSuccess, Response: resp, Reason: ReasonSuccess}
	case resp.StatusCode == http.StatusTooManyRequests:
		return Outcome{
			Kind:     OutcomeRetryable,
			Response: resp,
			Err:      NewStatusError(resp.StatusCode, resp.Body, c.decodeDetail(resp.Body)),
			Reason:   ReasonRateLimited,
		}
	default:
		return Outcome{
			Kind:     OutcomeTerminal,
			Response: resp,
			Err:      NewStatusError(resp.StatusCode, resp.Body, c.decodeDetail(resp.Body)),
			Reason:   ReasonStatus,
		}
	}
}

// decodeDetail understands {"error":{"type":..,"message":..}} and {"error":"TYPE"}.
func (c *StatusClassifier) decodeDetail(body []byte) *ErrorDetail {
	if len(body) == 0 {
		return nil
	}
	var envelope struct {
		Error any `json:"error"`
	}
	if err := c.codec.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	switch e := envelope.Error.(type) {
	case string:
		if e == "" {
			return nil
		}
		return &ErrorDetail{Type: e}
	case map[string]any:
		typ, _ := e["type"].(string)
		msg, _ := e["message"].(string)
		if typ == "" && msg == "" {
			return nil
		}
		return &ErrorDetail{Type: typ, Message: msg}
	default:
		return nil
	}
}
