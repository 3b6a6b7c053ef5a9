package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCounters_InstructionCount(t *testing.T) {
	c := &Counters{}
	c.CountInstruction() // disabled, no-op
	require.Equal(t, uint64(0), c.Snapshot().InstructionCount)

	c.EnableInstructionCount(true)
	c.CountInstruction()
	c.CountInstruction()
	require.Equal(t, uint64(2), c.Snapshot().InstructionCount)
}

func TestCounters_ChargeGas(t *testing.T) {
	c := &Counters{}
	require.False(t, c.ChargeGas(100)) // disabled, never exceeds

	c.EnableGas(true, 10)
	require.False(t, c.ChargeGas(5))
	require.True(t, c.ChargeGas(6))
	require.Equal(t, uint64(10), c.Snapshot().GasUsed)
}

func TestCounters_Timers(t *testing.T) {
	c := &Counters{}
	c.EnableTime(true)

	c.StartWasmTimer()
	time.Sleep(time.Millisecond)
	c.StartHostTimer()
	time.Sleep(time.Millisecond)
	c.StopTimer()

	snap := c.Snapshot()
	require.Greater(t, snap.WasmTime, time.Duration(0))
	require.Greater(t, snap.HostTime, time.Duration(0))
}

func TestCounters_Clear(t *testing.T) {
	c := &Counters{}
	c.EnableInstructionCount(true)
	c.CountInstruction()
	require.Equal(t, uint64(1), c.Snapshot().InstructionCount)

	c.Clear()
	require.Equal(t, uint64(0), c.Snapshot().InstructionCount)
}
