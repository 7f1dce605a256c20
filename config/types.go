package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the client configuration assembled by Load.
type Config struct {
	Airtable AirtableConfig `koanf:"airtable" json:"airtable" yaml:"airtable"`
	HTTP     HTTPConfig     `koanf:"http" json:"http" yaml:"http"`
	Retry    RetryConfig    `koanf:"retry" json:"retry" yaml:"retry"`
	Log      LogConfig      `koanf:"log" json:"log" yaml:"log"`

	// k keeps the merged sources for keys not covered by the struct.
	k *koanf.Koanf
}

// AirtableConfig identifies the account and the API endpoint.
type AirtableConfig struct {
	APIKey      string `koanf:"apikey" json:"-" yaml:"apikey" validate:"required"`
	Base        string `koanf:"base" json:"base" yaml:"base"`
	EndpointURL string `koanf:"endpointurl" json:"endpointurl" yaml:"endpointurl" validate:"required,url"`
}

// HTTPConfig tunes the transport.
type HTTPConfig struct {
	Timeout   time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Proxy     string        `koanf:"proxy" json:"proxy" yaml:"proxy" validate:"omitempty,url"`
	UserAgent string        `koanf:"useragent" json:"useragent" yaml:"useragent"`
	Workers   int           `koanf:"workers" json:"workers" yaml:"workers" validate:"gte=0"`       // 0 runs completions inline
	RateLimit float64       `koanf:"ratelimit" json:"ratelimit" yaml:"ratelimit" validate:"gte=0"` // requests per second, 0 disables
	Burst     int           `koanf:"burst" json:"burst" yaml:"burst" validate:"gte=0"`
}

// RetryConfig bounds resubmission of rate-limited requests. MaxRetries -1 retries forever.
type RetryConfig struct {
	MaxRetries int           `koanf:"maxretries" json:"maxretries" yaml:"maxretries" validate:"gte=-1"`
	MinWait    time.Duration `koanf:"minwait" json:"minwait" yaml:"minwait"`
	MaxWait    time.Duration `koanf:"maxwait" json:"maxwait" yaml:"maxwait"`
}

// LogConfig configures the zerolog logger and request logging.
type LogConfig struct {
	Level           string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty          bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
	Payloads        bool   `koanf:"payloads" json:"payloads" yaml:"payloads"`
	MaxPayloadBytes int    `koanf:"maxpayloadbytes" json:"maxpayloadbytes" yaml:"maxpayloadbytes" validate:"gte=0"`
}

// String returns the value at a dotted key, or "" when unset.
func (c *Config) String(key string) string {
	if c.k == nil {
		return ""
	}
	return c.k.String(key)
}

// Exists reports whether any source set key.
func (c *Config) Exists(key string) bool {
	return c.k != nil && c.k.Exists(key)
}

// Unmarshal decodes the section at key into out using koanf struct tags. Sections owned by
// other packages, such as "observability", are read this way. A missing section leaves out
// untouched.
func (c *Config) Unmarshal(key string, out any) error {
	if c.k == nil || !c.k.Exists(key) {
		return nil
	}
	return c.k.Unmarshal(key, out)
}
