// Package backend holds the JSON helpers shared by the response normalizers.
//
// Normalizers distinguish two kinds of fields: required keys, whose absence
// means the response does not match the expected schema, and optional keys,
// which may be missing or null and then read as empty values.
package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
)

// ErrMissingKey is returned when a required key is absent or null.
var ErrMissingKey = errors.New("missing required key")

// ErrUnexpectedType is returned when a key holds the wrong JSON type.
var ErrUnexpectedType = errors.New("unexpected JSON type")

func path(keys []string) string {
	return strings.Join(keys, ".")
}

// Required returns the raw value at keys. Absent and null values are errors.
func Required(data []byte, keys ...string) ([]byte, jsonparser.ValueType, error) {
	value, dataType, _, err := jsonparser.Get(data, keys...)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) || dataType == jsonparser.NotExist || dataType == jsonparser.Null {
		return nil, dataType, fmt.Errorf("%w: %s", ErrMissingKey, path(keys))
	}
	if err != nil {
		return nil, dataType, fmt.Errorf("read %s: %w", path(keys), err)
	}
	return value, dataType, nil
}

// RequiredString returns the string at keys.
func RequiredString(data []byte, keys ...string) (string, error) {
	value, dataType, err := Required(data, keys...)
	if err != nil {
		return "", err
	}
	if dataType != jsonparser.String {
		return "", fmt.Errorf("%w: %s is %s, want string", ErrUnexpectedType, path(keys), dataType)
	}
	return jsonparser.ParseString(value)
}

// OptionalString returns the scalar at keys as text. Absent and null values
// read as "". Numbers and booleans are returned verbatim.
func OptionalString(data []byte, keys ...string) (string, error) {
	value, dataType, _, err := jsonparser.Get(data, keys...)
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError), dataType == jsonparser.NotExist, dataType == jsonparser.Null:
		return "", nil
	case err != nil:
		return "", fmt.Errorf("read %s: %w", path(keys), err)
	}

	switch dataType {
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Number, jsonparser.Boolean:
		return string(value), nil
	default:
		return "", fmt.Errorf("%w: %s is %s, want scalar", ErrUnexpectedType, path(keys), dataType)
	}
}

// Each calls fn for every element of the array at keys. An absent or null
// array yields no calls. The first error returned by fn stops the iteration.
func Each(data []byte, fn func(item []byte, dataType jsonparser.ValueType) error, keys ...string) error {
	value, dataType, _, err := jsonparser.Get(data, keys...)
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError), dataType == jsonparser.NotExist, dataType == jsonparser.Null:
		return nil
	case err != nil:
		return fmt.Errorf("read %s: %w", path(keys), err)
	case dataType != jsonparser.Array:
		return fmt.Errorf("%w: %s is %s, want array", ErrUnexpectedType, path(keys), dataType)
	}

	var cbErr error
	_, err = jsonparser.ArrayEach(value, func(item []byte, itemType jsonparser.ValueType, _ int, _ error) {
		if cbErr != nil {
			return
		}
		cbErr = fn(item, itemType)
	})
	if cbErr != nil {
		return cbErr
	}
	if err != nil {
		return fmt.Errorf("iterate %s: %w", path(keys), err)
	}
	return nil
}
