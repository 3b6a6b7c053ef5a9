package wasmdebug

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmedge-go/core/api"
)

func TestFuncName(t *testing.T) {
	require.Equal(t, "env.add", FuncName("env", "add", 3))
	require.Equal(t, "env.$3", FuncName("env", "", 3))
}

func TestErrorBuilder_FromRecovered(t *testing.T) {
	b := NewErrorBuilder()
	b.AddFrame("env.add", []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32})
	b.AddFrame("env.main", nil, nil)

	cause := errors.New("boom")
	err := b.FromRecovered(cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "boom (recovered)")
	require.Contains(t, err.Error(), "wasm stack trace:")
	require.Contains(t, err.Error(), "env.add(i32,i32) i32")
	require.Contains(t, err.Error(), "env.main()")
}

func TestErrorBuilder_FromRecovered_NonError(t *testing.T) {
	b := NewErrorBuilder()
	err := b.FromRecovered("panic string")
	require.ErrorContains(t, err, "panic string")
}
