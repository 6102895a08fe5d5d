package backend

import (
	"errors"
	"testing"

	"github.com/buger/jsonparser"
)

var doc = []byte(`{
	"id": "1ABC",
	"score": 2.5,
	"flag": true,
	"nothing": null,
	"obj": {"name": "x"},
	"list": [{"v": "a"}, {"v": "b"}],
	"empty": [],
	"escaped": "a\"b"
}`)

func TestRequiredString(t *testing.T) {
	if got, err := RequiredString(doc, "id"); err != nil || got != "1ABC" {
		t.Errorf("RequiredString(id) = %q, %v", got, err)
	}
	if got, err := RequiredString(doc, "escaped"); err != nil || got != `a"b` {
		t.Errorf("RequiredString(escaped) = %q, %v", got, err)
	}
	if _, err := RequiredString(doc, "missing"); !errors.Is(err, ErrMissingKey) {
		t.Errorf("expected ErrMissingKey for absent key, got %v", err)
	}
	if _, err := RequiredString(doc, "nothing"); !errors.Is(err, ErrMissingKey) {
		t.Errorf("expected ErrMissingKey for null, got %v", err)
	}
	if _, err := RequiredString(doc, "score"); !errors.Is(err, ErrUnexpectedType) {
		t.Errorf("expected ErrUnexpectedType, got %v", err)
	}
}

func TestOptionalString(t *testing.T) {
	tests := []struct {
		keys []string
		want string
	}{
		{[]string{"id"}, "1ABC"},
		{[]string{"score"}, "2.5"},
		{[]string{"flag"}, "true"},
		{[]string{"nothing"}, ""},
		{[]string{"missing"}, ""},
		{[]string{"obj", "name"}, "x"},
		{[]string{"obj", "missing"}, ""},
	}
	for _, tt := range tests {
		got, err := OptionalString(doc, tt.keys...)
		if err != nil || got != tt.want {
			t.Errorf("OptionalString(%v) = %q, %v; want %q", tt.keys, got, err, tt.want)
		}
	}

	if _, err := OptionalString(doc, "obj"); !errors.Is(err, ErrUnexpectedType) {
		t.Errorf("expected ErrUnexpectedType for object, got %v", err)
	}
}

func TestEach(t *testing.T) {
	var values []string
	err := Each(doc, func(item []byte, _ jsonparser.ValueType) error {
		v, err := RequiredString(item, "v")
		values = append(values, v)
		return err
	}, "list")
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	if len(values) != 2 || values[0] != "a" || values[1] != "b" {
		t.Errorf("unexpected values %v", values)
	}

	for _, key := range []string{"empty", "nothing", "missing"} {
		calls := 0
		if err := Each(doc, func([]byte, jsonparser.ValueType) error { calls++; return nil }, key); err != nil || calls != 0 {
			t.Errorf("Each(%s) = %v with %d calls", key, err, calls)
		}
	}

	if err := Each(doc, func([]byte, jsonparser.ValueType) error { return nil }, "obj"); !errors.Is(err, ErrUnexpectedType) {
		t.Errorf("expected ErrUnexpectedType for object, got %v", err)
	}

	stop := errors.New("stop")
	calls := 0
	err = Each(doc, func([]byte, jsonparser.ValueType) error { calls++; return stop }, "list")
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("expected first callback error to stop iteration, got %v after %d calls", err, calls)
	}
}
