// Package airtable is the typed entry point of the client. An Airtable holds the API key,
// endpoint and execution core; Async and Sync bind it to one table of one base.
//
//	at, err := airtable.NewBuilder(log).Build()
//	tasks, err := airtable.SyncDefault[Task](at, "Tasks")
//	page, err := tasks.List(ctx, &airtable.ListOptions{View: "Open"})
package airtable

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gaborage/go-airtable/codec"
	"github.com/gaborage/go-airtable/config"
	"github.com/gaborage/go-airtable/httpclient"
	"github.com/gaborage/go-airtable/logger"
	"github.com/gaborage/go-airtable/trace"
)

const (
	headerAuthorization = "Authorization"
	headerAccept        = "Accept"
	headerContentType   = "Content-Type"
	contentTypeJSON     = "application/json"
)

// Airtable is a configured client. It is safe for concurrent use.
type Airtable struct {
	client   httpclient.Client
	codec    codec.Codec
	logger   logger.Logger
	apiKey   string
	base     string
	endpoint string
	pool     *httpclient.WorkerPool
}

// Base returns the default base ID, possibly empty.
func (a *Airtable) Base() string {
	return a.base
}

// Endpoint returns the API root, without a trailing slash.
func (a *Airtable) Endpoint() string {
	return a.endpoint
}

// Client returns the execution core used for every call.
func (a *Airtable) Client() httpclient.Client {
	return a.client
}

// Close waits for completion handlers still running on the owned worker pool.
func (a *Airtable) Close() error {
	if a.pool == nil {
		return nil
	}
	return a.pool.Close()
}

// Builder assembles an Airtable.
type Builder struct {
	logger logger.Logger
	config *config.Config
	client httpclient.Client
	codec  codec.Codec
}

// NewBuilder starts a builder. A nil logger is replaced by one built from the config.
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{logger: log}
}

// WithConfig uses cfg instead of loading configuration from the environment.
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	b.config = cfg
	return b
}

// WithHTTPClient replaces the execution core. HTTP, retry and payload logging settings in
// the config are then ignored.
func (b *Builder) WithHTTPClient(c httpclient.Client) *Builder {
	b.client = c
	return b
}

// WithCodec replaces the JSON codec.
func (b *Builder) WithCodec(c codec.Codec) *Builder {
	b.codec = c
	return b
}

// Build loads configuration when none was given and wires the execution core.
func (b *Builder) Build() (*Airtable, error) {
	cfg := b.config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	log := b.logger
	if log == nil {
		log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	}
	jsonCodec := b.codec
	if jsonCodec == nil {
		jsonCodec = codec.Default()
	}

	a := &Airtable{
		codec:    jsonCodec,
		logger:   log,
		apiKey:   cfg.Airtable.APIKey,
		base:     cfg.Airtable.Base,
		endpoint: strings.TrimRight(cfg.Airtable.EndpointURL, "/"),
		client:   b.client,
	}

	if a.client == nil {
		hb := httpclient.NewBuilder(log).
			WithTimeout(cfg.HTTP.Timeout).
			WithProxy(cfg.HTTP.Proxy).
			WithUserAgent(cfg.HTTP.UserAgent).
			WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.Burst).
			WithRetryPolicy(httpclient.RetryPolicy{
				MaxRetries: cfg.Retry.MaxRetries,
				MinWait:    cfg.Retry.MinWait,
				MaxWait:    cfg.Retry.MaxWait,
			}).
			WithPayloadLogging(cfg.Log.Payloads, cfg.Log.MaxPayloadBytes).
			WithRequestIDHeader(trace.HeaderXRequestID).
			WithCodec(jsonCodec)
		if cfg.HTTP.Workers > 0 {
			a.pool = httpclient.NewWorkerPool(cfg.HTTP.Workers)
			hb.WithExecutor(a.pool)
		}
		client, err := hb.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build http client: %w", err)
		}
		a.client = client
	}

	log.Debug().
		Str("endpoint", a.endpoint).
		Str("base", a.base).
		Int("workers", cfg.HTTP.Workers).
		Msg("Airtable client configured")

	return a, nil
}

// newRequest builds {endpoint}/{base}/{table}[/{recordID}] with the bearer token and a JSON
// body when payload is non-nil.
func (a *Airtable) newRequest(method, baseID, table, recordID string, query url.Values, payload any) (*httpclient.Request, error) {
	target := a.endpoint + "/" + url.PathEscape(baseID) + "/" + url.PathEscape(table)
	if recordID != "" {
		target += "/" + url.PathEscape(recordID)
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body []byte
	if payload != nil {
		encoded, err := a.codec.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode record: %w", err)
		}
		body = encoded
	}

	req := httpclient.NewRequest(method, target, body)
	req.Header.Set(headerAuthorization, "Bearer "+a.apiKey)
	req.Header.Set(headerAccept, contentTypeJSON)
	if body != nil {
		req.Header.Set(headerContentType, contentTypeJSON)
	}
	return req, nil
}

// call executes req and decodes a successful body into a fresh V.
func call[V any](ctx context.Context, a *Airtable, req *httpclient.Request) *httpclient.Future[*V] {
	return httpclient.Map(a.client.Execute(ctx, req), func(resp *httpclient.Response) (*V, error) {
		out := new(V)
		if err := a.codec.Unmarshal(resp.Body, out); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		return out, nil
	})
}
