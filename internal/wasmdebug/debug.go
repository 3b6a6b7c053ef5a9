// Package wasmdebug builds a readable Wasm call-stack trace to attach to a
// recovered trap, mirroring the teacher's wasmdebug package. Only the test
// file survived retrieval for this package, so FuncName/ErrorBuilder's
// shapes below are reconstructed to satisfy that observed contract.
package wasmdebug

import (
	"fmt"
	"strings"

	"github.com/wasmedge-go/core/api"
)

// FuncName formats a debug name for a function: "module.name", falling back
// to "$index" when name is empty, matching the teacher's convention used in
// FunctionDefinition.DebugName.
func FuncName(moduleName, funcName string, funcIdx uint32) string {
	if funcName == "" {
		funcName = fmt.Sprintf("$%d", funcIdx)
	}
	return moduleName + "." + funcName
}

func signature(name string, paramTypes, resultTypes []api.ValueType) string {
	var params strings.Builder
	for i, p := range paramTypes {
		if i > 0 {
			params.WriteByte(',')
		}
		params.WriteString(api.ValueTypeName(p))
	}

	switch len(resultTypes) {
	case 0:
		return fmt.Sprintf("%s(%s)", name, params.String())
	case 1:
		return fmt.Sprintf("%s(%s) %s", name, params.String(), api.ValueTypeName(resultTypes[0]))
	default:
		var results strings.Builder
		for i, r := range resultTypes {
			if i > 0 {
				results.WriteByte(',')
			}
			results.WriteString(api.ValueTypeName(r))
		}
		return fmt.Sprintf("%s(%s) (%s)", name, params.String(), results.String())
	}
}

// ErrorBuilder accumulates call frames (innermost first, as they are
// discovered while unwinding) and produces a wrapped error with a formatted
// "wasm stack trace:" tail.
type ErrorBuilder interface {
	// AddFrame records one call frame. paramTypes/resultTypes may be nil for
	// frames where the signature isn't relevant to the trace.
	AddFrame(name string, paramTypes, resultTypes []api.ValueType)

	// FromRecovered wraps a recovered panic value (error or runtime.Error)
	// with the accumulated stack trace, preserving Unwrap() to the original.
	FromRecovered(recovered interface{}) error
}

type errorBuilder struct {
	frames []string
}

// NewErrorBuilder returns an empty ErrorBuilder.
func NewErrorBuilder() ErrorBuilder {
	return &errorBuilder{}
}

func (b *errorBuilder) AddFrame(name string, paramTypes, resultTypes []api.ValueType) {
	b.frames = append(b.frames, signature(name, paramTypes, resultTypes))
}

func (b *errorBuilder) FromRecovered(recovered interface{}) error {
	var cause error
	switch v := recovered.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (recovered)\nwasm stack trace:", cause.Error())
	for _, f := range b.frames {
		sb.WriteString("\n\t")
		sb.WriteString(f)
	}

	return &traceError{cause: cause, msg: sb.String()}
}

type traceError struct {
	cause error
	msg   string
}

func (e *traceError) Error() string { return e.msg }
func (e *traceError) Unwrap() error { return e.cause }
