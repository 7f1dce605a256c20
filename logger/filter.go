package logger

import (
	"net/http"
	"strings"
)

// DefaultMaskValue replaces sensitive values in log output.
const DefaultMaskValue = "***"

// FilterConfig lists the field names whose values must never be logged.
type FilterConfig struct {
	SensitiveFields []string
	MaskValue       string
}

// DefaultFilterConfig masks credentials and authorization material.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "secret",
			"api_key", "apikey", "key",
			"token", "access_token",
			"authorization", "auth",
			"credential", "credentials",
			"proxy_authorization",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks values of sensitive keys in strings, maps and HTTP headers.
type SensitiveDataFilter struct {
	fields map[string]struct{}
	mask   string
}

// NewSensitiveDataFilter builds a filter; nil config uses DefaultFilterConfig.
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	mask := config.MaskValue
	if mask == "" {
		mask = DefaultMaskValue
	}
	fields := make(map[string]struct{}, len(config.SensitiveFields))
	for _, f := range config.SensitiveFields {
		fields[normalizeKey(f)] = struct{}{}
	}
	return &SensitiveDataFilter{fields: fields, mask: mask}
}

// FilterString returns the mask when key is sensitive.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.isSensitive(key) {
		return f.mask
	}
	return value
}

// FilterValue masks sensitive keys and walks maps and headers one level at a time.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	if f.isSensitive(key) {
		return f.mask
	}
	switch v := value.(type) {
	case map[string]any:
		return f.FilterFields(v)
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, s := range v {
			out[k] = f.FilterString(k, s)
		}
		return out
	case http.Header:
		return f.FilterHeader(v)
	default:
		return value
	}
}

// FilterFields returns a copy of fields with sensitive values masked.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = f.FilterValue(k, v)
	}
	return out
}

// FilterHeader returns a copy of h with sensitive header values masked.
func (f *SensitiveDataFilter) FilterHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vals := range h {
		if f.isSensitive(k) {
			out[k] = []string{f.mask}
			continue
		}
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func (f *SensitiveDataFilter) isSensitive(key string) bool {
	_, ok := f.fields[normalizeKey(key)]
	return ok
}

// normalizeKey folds "X-Api-Key", "api-key" and "API_KEY" onto "x_api_key"/"api_key".
func normalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, "-", "_")
	return strings.TrimPrefix(k, "x_")
}
