package wasmruntime

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrapKind_String(t *testing.T) {
	cases := map[TrapKind]string{
		TrapKindUnreachable:              "unreachable",
		TrapKindDivideByZero:             "integer divide by zero",
		TrapKindIntegerOverflow:          "integer overflow",
		TrapKindInvalidConvToInt:         "invalid conversion to integer",
		TrapKindMemoryOutOfBounds:        "out of bounds memory access",
		TrapKindTableOutOfBounds:         "out of bounds table access",
		TrapKindUndefinedElement:         "undefined element",
		TrapKindIndirectCallTypeMismatch: "indirect call type mismatch",
		TrapKindRefTypeMismatch:          "reference type mismatch",
		TrapKindNonNullRequired:          "non-nullable reference required",
		TrapKindCastFailed:               "cast failed",
		TrapKindArrayOutOfBounds:         "out of bounds array access",
		TrapKindOutOfMemory:              "out of memory",
		TrapKindCostLimitExceeded:        "gas limit exceeded",
		TrapKindInterrupted:              "interrupted",
		TrapKindUncaughtException:        "uncaught exception",
		TrapKindIllegalOpCode:            "illegal opcode",
		TrapKindCallStackOverflow:        "callstack overflow",
		TrapKindImmutableGlobal:          "immutable global",
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.String())
	}
	require.Equal(t, "unknown trap", TrapKind(999).String())
}

func TestError_Error(t *testing.T) {
	require.Equal(t, "wasm error: integer divide by zero", ErrRuntimeIntegerDivideByZero.Error())
}

func TestError_Is(t *testing.T) {
	require.True(t, errors.Is(ErrRuntimeUnreachable, ErrRuntimeUnreachable))
	require.False(t, errors.Is(ErrRuntimeUnreachable, ErrRuntimeOutOfMemory))

	wrapped := fmt.Errorf("invoke: %w", ErrRuntimeCallStackOverflow)
	require.True(t, errors.Is(wrapped, ErrRuntimeCallStackOverflow))
}

func TestAs(t *testing.T) {
	kind, ok := As(ErrRuntimeIndirectCallTypeMismatch)
	require.True(t, ok)
	require.Equal(t, TrapKindIndirectCallTypeMismatch, kind)

	kind, ok = As(fmt.Errorf("wrapped: %w", ErrRuntimeOutOfMemory))
	require.True(t, ok)
	require.Equal(t, TrapKindOutOfMemory, kind)

	_, ok = As(errors.New("not a trap"))
	require.False(t, ok)

	_, ok = As("panic string, not even an error")
	require.False(t, ok)
}
