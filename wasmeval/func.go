package wasmeval

import (
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/modloader/errors"
)

// Func is a function exported by an instantiated WebAssembly module.
// Each call looks the function up on the instance, so a Func is safe to call
// from several goroutines.
type Func struct {
	mod  api.Module
	def  api.FunctionDefinition
	name string
}

// Name returns the export name.
func (f *Func) Name() string {
	return f.name
}

// Params returns the parameter types.
func (f *Func) Params() []api.ValueType {
	return f.def.ParamTypes()
}

// Results returns the result types.
func (f *Func) Results() []api.ValueType {
	return f.def.ResultTypes()
}

// Call invokes the function with raw stack values.
func (f *Func) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	fn := f.mod.ExportedFunction(f.name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseHost, "exported function", f.name)
	}
	return fn.Call(ctx, params...)
}

// Invoke encodes args by the parameter types, calls the function, and
// decodes the results.
func (f *Func) Invoke(ctx context.Context, args ...any) ([]any, error) {
	params := f.Params()
	if len(args) != len(params) {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Path(f.mod.Name(), f.name).
			Detail("want %d arguments, got %d", len(params), len(args)).
			Build()
	}

	raw := make([]uint64, len(args))
	for i, a := range args {
		v, err := encode(a, params[i])
		if err != nil {
			return nil, err
		}
		raw[i] = v
	}

	out, err := f.Call(ctx, raw...)
	if err != nil {
		return nil, err
	}

	results := f.Results()
	decoded := make([]any, len(out))
	for i, r := range out {
		decoded[i] = decode(r, results[i])
	}
	return decoded, nil
}

func (f *Func) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "func %s(", f.name)
	for i, p := range f.Params() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteByte(')')
	if results := f.Results(); len(results) > 0 {
		b.WriteString(" ->")
		for _, r := range results {
			b.WriteByte(' ')
			b.WriteString(api.ValueTypeName(r))
		}
	}
	return b.String()
}
