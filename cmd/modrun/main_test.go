package main

import (
	"errors"
	"testing"

	"github.com/tetratelabs/wazero/api"
)

func TestParseArgs(t *testing.T) {
	params := []api.ValueType{api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64}
	args, err := parseArgs([]string{"1", " -2", "1.5", "2.25"}, params)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{int32(1), int64(-2), float32(1.5), 2.25}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %v (%T), want %v (%T)", i, args[i], args[i], want[i], want[i])
		}
	}

	if _, err := parseArgs([]string{"1"}, nil); err == nil {
		t.Error("arity mismatch should fail")
	}
	if _, err := parseArgs([]string{"x"}, []api.ValueType{api.ValueTypeI32}); err == nil {
		t.Error("non-numeric i32 should fail")
	}
	if _, err := parseArgs([]string{"1"}, []api.ValueType{api.ValueTypeExternref}); err == nil {
		t.Error("externref should be rejected")
	}
}

func TestFormat(t *testing.T) {
	if got := formatValue(errors.New("boom")); got != "<boom>" {
		t.Errorf("formatValue(error) = %q", got)
	}
	if got := formatValue(3); got != "3" {
		t.Errorf("formatValue(3) = %q", got)
	}
	got := formatCycles([][]string{{"file:///a", "file:///b"}, {"file:///c"}})
	if got != "[file:///a <-> file:///b], [file:///c]" {
		t.Errorf("formatCycles = %q", got)
	}
}
