package httpclient

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Retry defaults. Airtable asks clients to back off for up to 30 seconds after a 429.
const (
	DefaultMaxRetries = 5
	DefaultMinWait    = 1 * time.Second
	DefaultMaxWait    = 30 * time.Second
)

// RetryPolicy bounds the resubmission of rate-limited requests.
//
// MaxRetries < 0 retries forever; MaxRetries == 0 never retries. MinWait and MaxWait
// bound an exponential backoff; both zero resubmits immediately. A Retry-After header on
// the 429 response overrides the computed delay.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		MinWait:    DefaultMinWait,
		MaxWait:    DefaultMaxWait,
	}
}

// UnboundedRetryPolicy retries every 429 immediately and forever.
func UnboundedRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: -1}
}

// Allows reports whether retry number retry (0-based) may be attempted.
func (p RetryPolicy) Allows(retry int) bool {
	return p.MaxRetries < 0 || retry < p.MaxRetries
}

// Delay returns the wait before retry number retry (0-based) following resp.
func (p RetryPolicy) Delay(retry int, resp *Response) time.Duration {
	maxWait := p.MaxWait
	if maxWait < p.MinWait {
		maxWait = p.MinWait
	}
	var hr *http.Response
	if resp != nil {
		hr = &http.Response{StatusCode: resp.StatusCode, Header: resp.Header}
	}
	return retryablehttp.DefaultBackoff(p.MinWait, maxWait, retry, hr)
}
