// Package config loads client configuration from defaults, an optional YAML file, a
// credentials file, the environment and programmatic overrides, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Well-known file names looked up in the working directory.
const (
	DefaultFile            = "airtable.yaml"
	DefaultCredentialsFile = "credentials.properties"
	DefaultEndpointURL     = "https://api.airtable.com/v0"
	envPrefix              = "AIRTABLE_"
)

// Environment variables, also accepted as keys of the credentials file.
const (
	EnvAPIKey      = "AIRTABLE_API_KEY"
	EnvBase        = "AIRTABLE_BASE"
	EnvEndpointURL = "AIRTABLE_ENDPOINT_URL"
	EnvTimeout     = "AIRTABLE_TIMEOUT"
	EnvProxy       = "AIRTABLE_PROXY"
	EnvMaxRetries  = "AIRTABLE_MAX_RETRIES"
	EnvLogLevel    = "AIRTABLE_LOG_LEVEL"
)

var envKeys = map[string]string{
	EnvAPIKey:      "airtable.apikey",
	EnvBase:        "airtable.base",
	EnvEndpointURL: "airtable.endpointurl",
	EnvTimeout:     "http.timeout",
	EnvProxy:       "http.proxy",
	EnvMaxRetries:  "retry.maxretries",
	EnvLogLevel:    "log.level",
}

type loadOptions struct {
	file            string
	fileRequired    bool
	raw             []byte
	credentialsFile string
	environ         func() []string
	overrides       map[string]any
}

// Option customizes Load.
type Option func(*loadOptions)

// WithFile reads YAML from path. Unlike the default airtable.yaml, the file must exist.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
		o.fileRequired = true
	}
}

// WithYAML loads YAML content in place of a file.
func WithYAML(raw []byte) Option {
	return func(o *loadOptions) {
		o.raw = raw
	}
}

// WithCredentialsFile reads KEY=value credentials from path. Empty disables the lookup.
func WithCredentialsFile(path string) Option {
	return func(o *loadOptions) {
		o.credentialsFile = path
	}
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(environ func() []string) Option {
	return func(o *loadOptions) {
		o.environ = environ
	}
}

// WithOverrides applies dotted keys on top of every other source.
func WithOverrides(values map[string]any) Option {
	return func(o *loadOptions) {
		o.overrides = values
	}
}

// WithAPIKey overrides the API key.
func WithAPIKey(apiKey string) Option {
	return withOverride("airtable.apikey", apiKey)
}

// WithBase overrides the default base ID.
func WithBase(base string) Option {
	return withOverride("airtable.base", base)
}

func withOverride(key string, value any) Option {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]any)
		}
		o.overrides[key] = value
	}
}

// Load builds and validates the configuration. Priority, lowest first: defaults, YAML,
// credentials file, environment, overrides.
func Load(opts ...Option) (*Config, error) {
	o := &loadOptions{
		file:            DefaultFile,
		credentialsFile: DefaultCredentialsFile,
		environ:         os.Environ,
	}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadYAML(k, o); err != nil {
		return nil, err
	}

	if err := loadCredentials(k, o.credentialsFile); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: transformEnv,
		EnvironFunc:   o.environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(o.overrides) > 0 {
		if err := k.Load(confmap.Provider(o.overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"airtable.endpointurl": DefaultEndpointURL,

		"http.timeout":   "30s",
		"http.useragent": "go-airtable/1.0",
		"http.workers":   0,
		"http.ratelimit": 0,
		"http.burst":     0,

		"retry.maxretries": 5,
		"retry.minwait":    "1s",
		"retry.maxwait":    "30s",

		"log.level":           "info",
		"log.pretty":          false,
		"log.payloads":        false,
		"log.maxpayloadbytes": 1024,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

func loadYAML(k *koanf.Koanf, o *loadOptions) error {
	if o.raw != nil {
		if err := k.Load(rawbytes.Provider(o.raw), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to parse yaml: %w", err)
		}
		return nil
	}
	if o.file == "" {
		return nil
	}
	if _, err := os.Stat(o.file); errors.Is(err, fs.ErrNotExist) && !o.fileRequired {
		return nil
	}
	if err := k.Load(file.Provider(o.file), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s: %w", o.file, err)
	}
	return nil
}

// transformEnv maps AIRTABLE_* variables onto config keys; unknown variables are skipped.
func transformEnv(key, value string) (string, any) {
	path, ok := envKeys[strings.ToUpper(key)]
	if !ok || value == "" {
		return "", nil
	}
	return path, value
}
