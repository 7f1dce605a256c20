package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

var validate = validator.New()

// Validate checks cfg and reports every problem found as ConfigErrors joined together.
func Validate(cfg *Config) error {
	var errs []error

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, toConfigError(fe))
		}
	}

	if cfg.HTTP.Timeout < 0 {
		errs = append(errs, NewInvalidFieldError("http.timeout", "must not be negative", nil))
	}
	if cfg.Retry.MinWait < 0 {
		errs = append(errs, NewInvalidFieldError("retry.minwait", "must not be negative", nil))
	}
	if cfg.Retry.MaxWait < cfg.Retry.MinWait {
		errs = append(errs, NewInvalidFieldError("retry.maxwait", "must not be lower than retry.minwait", nil))
	}

	return errors.Join(errs...)
}

// toConfigError translates a validator failure using the koanf path of the field.
func toConfigError(fe validator.FieldError) *ConfigError {
	field := fieldPath(fe.StructNamespace())

	switch fe.Tag() {
	case "required":
		if field == "airtable.apikey" {
			return newMissingAPIKeyError()
		}
		return NewMissingFieldError(field, envVarFor(field), field)
	case "url":
		return NewInvalidFieldError(field, fmt.Sprintf("%q is not a valid url", fe.Value()), nil)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("%q is not supported", fe.Value()), validLogLevels)
	case "gte":
		return NewInvalidFieldError(field, "must be at least "+fe.Param(), nil)
	default:
		return NewInvalidFieldError(field, "failed "+fe.Tag()+" validation", nil)
	}
}

var fieldPaths = map[string]string{
	"Airtable.APIKey":      "airtable.apikey",
	"Airtable.EndpointURL": "airtable.endpointurl",
	"HTTP.Proxy":           "http.proxy",
	"HTTP.Workers":         "http.workers",
	"HTTP.RateLimit":       "http.ratelimit",
	"HTTP.Burst":           "http.burst",
	"Retry.MaxRetries":     "retry.maxretries",
	"Log.Level":            "log.level",
	"Log.MaxPayloadBytes":  "log.maxpayloadbytes",
}

// fieldPath turns "Config.Airtable.APIKey" into "airtable.apikey".
func fieldPath(namespace string) string {
	ns := strings.TrimPrefix(namespace, "Config.")
	if path, ok := fieldPaths[ns]; ok {
		return path
	}
	return strings.ToLower(ns)
}

func envVarFor(path string) string {
	for name, key := range envKeys {
		if key == path {
			return name
		}
	}
	return envPrefix + strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
}
