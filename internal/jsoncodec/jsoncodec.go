// Package jsoncodec is the single JSON entry point for the API. Values decoded
// into interfaces keep their numbers as json.Number so integers stored by the
// rest of the platform round-trip without turning into floats.
package jsoncodec

import (
	"errors"
	"io"

	"github.com/bytedance/sonic"
)

// ErrNotObject is returned by Object for valid JSON that is not an object.
var ErrNotObject = errors.New("json value is not an object")

var (
	defaultConfig = sonic.ConfigStd
	numberConfig  = sonic.Config{
		EscapeHTML:       true,
		SortMapKeys:      true,
		CompactMarshaler: true,
		CopyString:       true,
		ValidateString:   true,
		UseNumber:        true,
	}.Froze()
)

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

// Unmarshal decodes data into v, preserving numbers in interface values.
func Unmarshal(data []byte, v any) error {
	return numberConfig.Unmarshal(data, v)
}

func Encode(w io.Writer, v any) error {
	return defaultConfig.NewEncoder(w).Encode(v)
}

// Valid reports whether data is a single well-formed JSON value.
func Valid(data []byte) bool {
	return numberConfig.Valid(data)
}

// Object decodes data as a JSON object. A value of any other type is reported
// as an error.
func Object(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotObject
	}
	return out, nil
}
