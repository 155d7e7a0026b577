package driver

import (
	"bytes"
	"context"

	"github.com/wippyai/modloader/errors"
	"github.com/wippyai/modloader/loader"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// WasmModule is the part of a WebAssembly engine the Mux needs.
type WasmModule interface {
	loader.Scanner
	loader.Evaluator
}

// Mux picks collaborators by source content so one loader can hold both
// WebAssembly binaries and text modules.
type Mux struct {
	// Wasm scans and evaluates sources starting with the WebAssembly magic number.
	Wasm WasmModule

	// Text scans every other source.
	Text loader.Scanner

	// TextEvaluator compiles text modules. When nil, text module bodies do
	// nothing and the modules contribute only their re-exports.
	TextEvaluator loader.Evaluator
}

var (
	_ loader.Scanner   = Mux{}
	_ loader.Evaluator = Mux{}
)

// IsWasm reports whether source is a WebAssembly binary.
func IsWasm(source []byte) bool {
	return bytes.HasPrefix(source, wasmMagic)
}

// Scan implements loader.Scanner.
func (m Mux) Scan(source []byte) ([]loader.Decl, error) {
	if IsWasm(source) {
		if m.Wasm == nil {
			return nil, errors.Unsupported(errors.PhaseScan, "WebAssembly modules")
		}
		return m.Wasm.Scan(source)
	}
	if m.Text == nil {
		return nil, errors.Unsupported(errors.PhaseScan, "text modules")
	}
	return m.Text.Scan(source)
}

// Compile implements loader.Evaluator.
func (m Mux) Compile(ctx context.Context, mod *loader.Module, scope *loader.Scope) (loader.Body, error) {
	if IsWasm(mod.Source()) {
		if m.Wasm == nil {
			return nil, errors.Unsupported(errors.PhaseInstantiate, "WebAssembly modules")
		}
		return m.Wasm.Compile(ctx, mod, scope)
	}
	if m.TextEvaluator == nil {
		return func(context.Context, *loader.Context) error { return nil }, nil
	}
	return m.TextEvaluator.Compile(ctx, mod, scope)
}
