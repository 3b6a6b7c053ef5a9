// Package stats implements the four toggleable execution counters spec.md
// §4.8 describes: instruction count, gas used/limit, and wasm/host time,
// with mutually-exclusive timer accounting across the host/wasm boundary.
package stats

import (
	"sync"
	"time"
)

// Counters is one invocation's (or one Runtime-lifetime's, if shared
// across calls) set of toggleable statistics. All methods are safe for
// concurrent use so a single Counters can be shared by an Async handle's
// background goroutine and the foreground Wait caller (spec.md §4.8, §4.9).
type Counters struct {
	mu sync.Mutex

	instructionCountEnabled bool
	instructionCount        uint64

	gasEnabled bool
	gasUsed    uint64
	gasLimit   uint64

	timeEnabled bool
	wasmTime    time.Duration
	hostTime    time.Duration
	// timerSide is 0 when no timer is running, 1 while wasm-side, 2 while
	// host-side; accounting is mutually exclusive so nested host<->wasm
	// re-entrancy (a host function calling back into Wasm) still attributes
	// every nanosecond to exactly one side.
	timerSide  int
	timerStart time.Time
}

const (
	timerNone = 0
	timerWasm = 1
	timerHost = 2
)

// EnableInstructionCount/EnableGas/EnableTime toggle the corresponding
// counter family; each is independently optional per spec.md §4.8.
func (c *Counters) EnableInstructionCount(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instructionCountEnabled = enabled
}

func (c *Counters) EnableGas(enabled bool, limit uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gasEnabled = enabled
	c.gasLimit = limit
}

func (c *Counters) EnableTime(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeEnabled = enabled
}

// CountInstruction increments the instruction counter by one, a no-op when
// disabled, called by the interpreter once per dispatched opcode.
func (c *Counters) CountInstruction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.instructionCountEnabled {
		c.instructionCount++
	}
}

// ErrGasLimitExceeded-style trap signaling is the interpreter's
// responsibility (wasmruntime.ErrRuntimeCostLimitExceeded); ChargeGas only
// does the bookkeeping and reports whether the charge would exceed the
// limit, so the caller decides whether/how to trap. On overflow gasUsed is
// saturated at gasLimit rather than left to overshoot it (spec.md §4.8: "the
// counter is saturated at the limit").
func (c *Counters) ChargeGas(cost uint64) (exceeded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gasEnabled {
		return false
	}
	c.gasUsed += cost
	if c.gasUsed > c.gasLimit {
		c.gasUsed = c.gasLimit
		return true
	}
	return false
}

// StartWasmTimer/StartHostTimer switch timer accounting to the named side,
// flushing whatever was accrued under the previous side first. Calling
// either while disabled is a cheap no-op.
func (c *Counters) StartWasmTimer() { c.startTimer(timerWasm) }
func (c *Counters) StartHostTimer() { c.startTimer(timerHost) }

func (c *Counters) startTimer(side int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.timeEnabled {
		return
	}
	c.flushLocked()
	c.timerSide = side
	c.timerStart = time.Now()
}

// StopTimer flushes accrued time and disarms timing, called once the top-
// level invocation returns.
func (c *Counters) StopTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
	c.timerSide = timerNone
}

func (c *Counters) flushLocked() {
	if c.timerSide == timerNone || c.timerStart.IsZero() {
		return
	}
	elapsed := time.Since(c.timerStart)
	switch c.timerSide {
	case timerWasm:
		c.wasmTime += elapsed
	case timerHost:
		c.hostTime += elapsed
	}
}

// Snapshot is a point-in-time, concurrency-safe copy of all counters.
type Snapshot struct {
	InstructionCount        uint64
	GasUsed, GasLimit       uint64
	WasmTime, HostTime      time.Duration
}

func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
	return Snapshot{
		InstructionCount: c.instructionCount,
		GasUsed:          c.gasUsed,
		GasLimit:         c.gasLimit,
		WasmTime:         c.wasmTime,
		HostTime:         c.hostTime,
	}
}

// Clear resets every counter to zero without changing which families are
// enabled (spec.md §4.8 "Clear").
func (c *Counters) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instructionCount = 0
	c.gasUsed = 0
	c.wasmTime = 0
	c.hostTime = 0
	c.timerStart = time.Time{}
}
