package wasmeval

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/modloader/errors"
)

// encode converts a Go number to the raw stack representation of vt.
func encode(v any, vt api.ValueType) (uint64, error) {
	switch vt {
	case api.ValueTypeI32:
		n, ok := toInt64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseHost, nil, "i32", v)
		}
		return api.EncodeI32(int32(n)), nil
	case api.ValueTypeI64:
		n, ok := toInt64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseHost, nil, "i64", v)
		}
		return api.EncodeI64(n), nil
	case api.ValueTypeF32:
		f, ok := toFloat64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseHost, nil, "f32", v)
		}
		return api.EncodeF32(float32(f)), nil
	case api.ValueTypeF64:
		f, ok := toFloat64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseHost, nil, "f64", v)
		}
		return api.EncodeF64(f), nil
	}
	return 0, errors.Unsupported(errors.PhaseHost, "value type "+api.ValueTypeName(vt))
}

// decode converts a raw stack value of type vt to a Go value.
// Reference types are returned as their raw uint64.
func decode(raw uint64, vt api.ValueType) any {
	switch vt {
	case api.ValueTypeI32:
		return api.DecodeI32(raw)
	case api.ValueTypeI64:
		return int64(raw)
	case api.ValueTypeF32:
		return api.DecodeF32(raw)
	case api.ValueTypeF64:
		return api.DecodeF64(raw)
	}
	return raw
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
