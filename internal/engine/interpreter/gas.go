package interpreter

import "github.com/wasmedge-go/core/internal/wasm"

// costTable maps each Op to its gas charge (spec.md §4.8 "each opcode
// contributes cost_table[opcode] (default 1)"). Grounded on the cost
// table the original implementation keeps alongside its statistics
// recorder (a flat array, every entry defaulting to 1, customizable in
// bulk): unlike that implementation this one has no setter, since no
// SPEC_FULL.md component needs a caller-supplied table yet.
var costTable = buildCostTable()

func buildCostTable() [wasm.OpTailDispatchBoundary + 1]uint64 {
	var t [wasm.OpTailDispatchBoundary + 1]uint64
	for i := range t {
		t[i] = 1
	}
	return t
}

func opCost(op wasm.Op) uint64 {
	if int(op) < 0 || int(op) >= len(costTable) {
		return 1
	}
	return costTable[op]
}
