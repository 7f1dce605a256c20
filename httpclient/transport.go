package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/time/rate"
)

// CompletionFunc receives the result of one physical attempt: a response for any HTTP
// status, or an error when no response was obtained.
type CompletionFunc func(resp *Response, err error)

// Transport submits one physical attempt without blocking the caller.
//
// A non-nil return value is a submission fault and done is never called. Otherwise done
// is called exactly once, on a goroutine owned by the transport.
type Transport interface {
	Submit(ctx context.Context, req *Request, done CompletionFunc) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request, done CompletionFunc) error

// Submit calls f.
func (f TransportFunc) Submit(ctx context.Context, req *Request, done CompletionFunc) error {
	return f(ctx, req, done)
}

// TransportConfig configures a RestyTransport.
type TransportConfig struct {
	// Timeout bounds a single attempt, including reading the body. Zero disables it.
	Timeout time.Duration
	// ProxyURL overrides the proxy taken from HTTP_PROXY/HTTPS_PROXY.
	ProxyURL string
	// UserAgent is sent on every request that does not set one.
	UserAgent string
	// RequestsPerSecond enables a client-side token bucket. Zero disables it.
	RequestsPerSecond float64
	// Burst is the bucket size; defaults to 1 when a rate is set.
	Burst int
}

// DefaultUserAgent is sent when TransportConfig.UserAgent is empty.
const DefaultUserAgent = "go-airtable/1.0"

// RestyTransport runs each attempt on its own goroutine through a shared resty client,
// so connection pooling is shared across calls.
type RestyTransport struct {
	resty   *resty.Client
	limiter *rate.Limiter
}

var _ Transport = (*RestyTransport)(nil)

// NewRestyTransport builds a transport over a pooled net/http transport.
func NewRestyTransport(cfg TransportConfig) (*RestyTransport, error) {
	base := cleanhttp.DefaultPooledTransport()
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		base.Proxy = http.ProxyURL(proxy)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New().
		SetTransport(base).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &RestyTransport{resty: client, limiter: limiter}, nil
}

// Submit implements Transport.
func (t *RestyTransport) Submit(ctx context.Context, req *Request, done CompletionFunc) error {
	if req == nil {
		return ErrNilRequest
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("parse request url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, req.URL)
	}

	go func() {
		done(t.do(ctx, req))
	}()
	return nil
}

func (t *RestyTransport) do(ctx context.Context, req *Request) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	r := t.resty.R().SetContext(ctx)
	for name, values := range req.Header {
		for _, v := range values {
			r.Header.Add(name, v)
		}
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header().Clone(),
		Body:       resp.Body(),
	}, nil
}
