package wasm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/wasmedge-go/core/api"
)

// FunctionKind classifies a reflect-bound Go host function by which implicit
// leading parameter, if any, it declares (spec.md §6.4's HostFunctionBuilder.
// WithFunc). Grounded on the teacher's internal/wasm/gofunc.go (retrieved
// only as gofunc_test.go in this pack; reconstructed from that test's
// expectations).
type FunctionKind byte

const (
	FunctionKindGoNoContext FunctionKind = iota
	FunctionKindGoContext
	FunctionKindGoModule
)

var (
	goContextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	goModuleType  = reflect.TypeOf((*api.Module)(nil)).Elem()
	goErrorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// GetFunctionType derives the WebAssembly signature of a Go func bound via
// WithFunc, along with whether its final return value is a trailing error
// (permitted only when allowErrorResult, since HostModuleBuilder.Export
// allows a func that only ever traps to skip declaring a numeric result).
func GetFunctionType(fn *reflect.Value, allowErrorResult bool) (FunctionKind, *FunctionType, bool, error) {
	rt := fn.Type()
	if rt.Kind() != reflect.Func {
		return 0, nil, false, fmt.Errorf("kind != func: %s", rt.Kind())
	}

	kind := FunctionKindGoNoContext
	pi := 0
	if rt.NumIn() > 0 {
		switch rt.In(0) {
		case goContextType:
			kind = FunctionKindGoContext
			pi = 1
		case goModuleType:
			kind = FunctionKindGoModule
			pi = 1
		}
	}

	params := make([]ValueType, 0, rt.NumIn()-pi)
	for i := pi; i < rt.NumIn(); i++ {
		t := rt.In(i)
		if t == goContextType || t == goModuleType {
			name := "context.Context"
			if t == goModuleType {
				name = "api.Module"
			}
			return 0, nil, false, fmt.Errorf("param[%d] is a %s, which may be defined only once as param[0]", i, name)
		}
		vt, ok := goTypeToValueType(t)
		if !ok {
			return 0, nil, false, fmt.Errorf("param[%d] is unsupported: %s", i, t)
		}
		params = append(params, vt)
	}

	numResults := rt.NumOut()
	hasErrorResult := numResults > 0 && rt.Out(numResults-1) == goErrorType
	if hasErrorResult {
		numResults--
	}
	if hasErrorResult && !allowErrorResult {
		return 0, nil, false, fmt.Errorf("result[%d] is an error, which is unsupported", rt.NumOut()-1)
	}
	if numResults > 1 {
		return 0, nil, false, fmt.Errorf("multiple results are unsupported")
	}

	results := make([]ValueType, 0, numResults)
	if numResults == 1 {
		vt, ok := goTypeToValueType(rt.Out(0))
		if !ok {
			return 0, nil, false, fmt.Errorf("result[0] is unsupported: %s", rt.Out(0))
		}
		results = append(results, vt)
	}

	return kind, &FunctionType{Params: params, Results: results}, hasErrorResult, nil
}

func goTypeToValueType(t reflect.Type) (ValueType, bool) {
	switch t.Kind() {
	case reflect.Uint32, reflect.Int32:
		return ValueTypeI32, true
	case reflect.Uint64, reflect.Int64, reflect.Uintptr:
		return ValueTypeI64, true
	case reflect.Float32:
		return ValueTypeF32, true
	case reflect.Float64:
		return ValueTypeF64, true
	default:
		return 0, false
	}
}
