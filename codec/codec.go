// Package codec defines the JSON encode/decode dependency shared by the HTTP core and the
// Airtable façade. A Codec is passed explicitly at construction time and never mutated.
package codec

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Codec encodes and decodes JSON payloads.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// sonicCodec uses bytedance/sonic with encoding/json compatible behaviour.
type sonicCodec struct {
	api sonic.API
}

// Sonic returns the default codec backed by sonic's standard-compatible configuration.
func Sonic() Codec {
	return sonicCodec{api: sonic.ConfigStd}
}

func (c sonicCodec) Marshal(v any) ([]byte, error) {
	return c.api.Marshal(v)
}

func (c sonicCodec) Unmarshal(data []byte, v any) error {
	return c.api.Unmarshal(data, v)
}

type standardCodec struct{}

// Standard returns a codec backed by encoding/json.
func Standard() Codec {
	return standardCodec{}
}

func (standardCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (standardCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Default returns the codec used when none is configured.
func Default() Codec {
	return Sonic()
}
