package features

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet_Set(t *testing.T) {
	f := Baseline20

	f = f.Set(GC, true)
	require.True(t, f.IsEnabled(GC))
	require.True(t, f.IsEnabled(Baseline20))

	f = f.Set(GC, false)
	require.False(t, f.IsEnabled(GC))
	require.True(t, f.IsEnabled(Baseline20))
}

func TestSet_IsEnabled(t *testing.T) {
	f := TailCall | Threads

	require.True(t, f.IsEnabled(TailCall))
	require.True(t, f.IsEnabled(Threads))
	require.True(t, f.IsEnabled(TailCall|Threads))
	require.False(t, f.IsEnabled(GC))
	require.False(t, f.IsEnabled(TailCall|GC))
}

func TestAll_EnablesEverything(t *testing.T) {
	require.True(t, All.IsEnabled(Baseline20))
	require.True(t, All.IsEnabled(GC|Threads|Memory64|TailCall))
}

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		set      Set
		expected string
	}{
		{"none", Set(0), "none"},
		{"one flag", TailCall, "tail-call"},
		{"two flags in declaration order", TailCall | GC, "tail-call,gc"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.set.String())
		})
	}
}
