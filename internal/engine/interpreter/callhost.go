package interpreter

import (
	"context"
	"math"
	"reflect"

	"github.com/wasmedge-go/core/api"
	"github.com/wasmedge-go/core/internal/wasm"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	moduleType  = reflect.TypeOf((*api.Module)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// callGoFunc invokes a host function defined via reflect.Value (spec.md
// §4.10, §6.4's HostFunctionBuilder.WithFunc): it maps the flat []uint64
// params onto the Go func's actual parameter types, optionally prepending
// ctx and/or the calling module depending on the func's declared leading
// parameters, the same inference builder.go's reflection-based WithFunc
// documents for the teacher's own host-function bridge.
func callGoFunc(cf *wasm.CallingFrame, fn *wasm.FunctionInstance, params []uint64) ([]uint64, error) {
	rv := *fn.GoFunc
	rt := rv.Type()

	in := make([]reflect.Value, rt.NumIn())
	i, p := 0, 0
	if i < rt.NumIn() && rt.In(i) == contextType {
		in[i] = reflect.ValueOf(cf.Context())
		i++
	}
	if i < rt.NumIn() && rt.In(i) == moduleType {
		in[i] = reflect.ValueOf(cf.Module)
		i++
	}
	for ; i < rt.NumIn(); i, p = i+1, p+1 {
		in[i] = decodeParam(rt.In(i), params[p])
	}

	out := rv.Call(in)

	var err error
	if n := len(out); n > 0 && rt.Out(n-1) == errorType {
		if e, _ := out[n-1].Interface().(error); e != nil {
			err = e
		}
		out = out[:n-1]
	}
	if err != nil {
		return nil, err
	}

	results := make([]uint64, len(out))
	for idx, o := range out {
		results[idx] = encodeResult(o)
	}
	return results, nil
}

func decodeParam(t reflect.Type, v uint64) reflect.Value {
	switch t.Kind() {
	case reflect.Uint32:
		return reflect.ValueOf(uint32(v)).Convert(t)
	case reflect.Int32:
		return reflect.ValueOf(int32(v)).Convert(t)
	case reflect.Uint64:
		return reflect.ValueOf(v).Convert(t)
	case reflect.Int64:
		return reflect.ValueOf(int64(v)).Convert(t)
	case reflect.Float32:
		return reflect.ValueOf(math.Float32frombits(uint32(v)))
	case reflect.Float64:
		return reflect.ValueOf(math.Float64frombits(v))
	case reflect.Uintptr:
		return reflect.ValueOf(uintptr(v))
	default:
		return reflect.ValueOf(uint32(v)).Convert(t)
	}
}

func encodeResult(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Convert(reflect.TypeOf(uint64(0))).Uint()
	case reflect.Int32:
		return uint64(uint32(v.Int()))
	case reflect.Int64:
		return uint64(v.Int())
	case reflect.Float32:
		return uint64(math.Float32bits(float32(v.Float())))
	case reflect.Float64:
		return math.Float64bits(v.Float())
	default:
		return uint64(v.Convert(reflect.TypeOf(uint32(0))).Uint())
	}
}
