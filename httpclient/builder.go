package httpclient

import (
	"time"

	"github.com/gaborage/go-airtable/codec"
	"github.com/gaborage/go-airtable/logger"
)

// Builder assembles a Client.
type Builder struct {
	logger          logger.Logger
	config          *Config
	transportConfig TransportConfig
	transport       Transport
	classifier      Classifier
	executor        Executor
	codec           codec.Codec
}

// NewBuilder starts a builder with the default retry policy and no payload logging.
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		logger: log,
		config: &Config{
			Retry:              DefaultRetryPolicy(),
			MaxPayloadLogBytes: defaultMaxPayloadLogBytes,
		},
	}
}

// WithTimeout bounds each physical attempt.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.transportConfig.Timeout = timeout
	return b
}

// WithProxy routes requests through proxyURL.
func (b *Builder) WithProxy(proxyURL string) *Builder {
	b.transportConfig.ProxyURL = proxyURL
	return b
}

// WithUserAgent overrides the User-Agent header.
func (b *Builder) WithUserAgent(userAgent string) *Builder {
	b.transportConfig.UserAgent = userAgent
	return b
}

// WithRateLimit enables a client-side token bucket.
func (b *Builder) WithRateLimit(requestsPerSecond float64, burst int) *Builder {
	b.transportConfig.RequestsPerSecond = requestsPerSecond
	b.transportConfig.Burst = burst
	return b
}

// WithRetryPolicy replaces the retry policy.
func (b *Builder) WithRetryPolicy(policy RetryPolicy) *Builder {
	b.config.Retry = policy
	return b
}

// WithPayloadLogging enables debug payload logging capped at maxBytes.
func (b *Builder) WithPayloadLogging(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithRequestIDHeader propagates the call's request ID in header.
func (b *Builder) WithRequestIDHeader(header string) *Builder {
	b.config.RequestIDHeader = header
	return b
}

// WithTransport replaces the resty transport; transport options are then ignored.
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

// WithClassifier replaces the default StatusClassifier.
func (b *Builder) WithClassifier(c Classifier) *Builder {
	b.classifier = c
	return b
}

// WithExecutor sets the executor that runs completion handlers.
func (b *Builder) WithExecutor(e Executor) *Builder {
	b.executor = e
	return b
}

// WithCodec sets the codec used by the default classifier.
func (b *Builder) WithCodec(c codec.Codec) *Builder {
	b.codec = c
	return b
}

// Build creates the client.
func (b *Builder) Build() (Client, error) {
	transport := b.transport
	if transport == nil {
		t, err := NewRestyTransport(b.transportConfig)
		if err != nil {
			return nil, err
		}
		transport = t
	}
	classifier := b.classifier
	if classifier == nil {
		classifier = NewClassifier(b.codec)
	}
	cfg := *b.config
	return New(transport, classifier, b.executor, b.logger, &cfg)
}
