package jsoncompat

import "github.com/bytedance/sonic"

var api = sonic.ConfigStd

// Marshal encodes with sonic using standard library compatible settings.
func Marshal(v any) ([]byte, error) { return api.Marshal(v) }

// MarshalIndent is Marshal with indentation, used for files meant to be read by people.
func MarshalIndent(v any) ([]byte, error) { return api.MarshalIndent(v, "", "  ") }

// Unmarshal decodes with sonic using standard library compatible settings.
func Unmarshal(data []byte, v any) error { return api.Unmarshal(data, v) }
