package interpreter

import (
	"github.com/wasmedge-go/core/internal/wasm"
)

func effectiveAddr(ce *callEngine, mem wasm.MemArg) uint32 {
	return uint32(ce.pop()) + mem.Offset
}

func execLoad(ce *callEngine, m *wasm.MemoryInstance, instr wasm.Instruction) {
	addr := effectiveAddr(ce, instr.Mem)
	switch wasm.LoadStoreKind(instr.Imm) {
	case wasm.LSKindI32:
		ce.push(uint64(m.ReadUint32Le(addr)))
	case wasm.LSKindI64:
		ce.push(m.ReadUint64Le(addr))
	case wasm.LSKindF32:
		ce.push(uint64(m.ReadUint32Le(addr)))
	case wasm.LSKindF64:
		ce.push(m.ReadUint64Le(addr))
	case wasm.LSKindI32_8S:
		ce.push(uint64(uint32(int32(int8(m.ReadByte(addr))))))
	case wasm.LSKindI32_8U:
		ce.push(uint64(m.ReadByte(addr)))
	case wasm.LSKindI32_16S:
		ce.push(uint64(uint32(int32(int16(m.ReadUint16Le(addr))))))
	case wasm.LSKindI32_16U:
		ce.push(uint64(m.ReadUint16Le(addr)))
	case wasm.LSKindI64_8S:
		ce.push(uint64(int64(int8(m.ReadByte(addr)))))
	case wasm.LSKindI64_8U:
		ce.push(uint64(m.ReadByte(addr)))
	case wasm.LSKindI64_16S:
		ce.push(uint64(int64(int16(m.ReadUint16Le(addr)))))
	case wasm.LSKindI64_16U:
		ce.push(uint64(m.ReadUint16Le(addr)))
	case wasm.LSKindI64_32S:
		ce.push(uint64(int64(int32(m.ReadUint32Le(addr)))))
	case wasm.LSKindI64_32U:
		ce.push(uint64(m.ReadUint32Le(addr)))
	}
}

func execStore(ce *callEngine, m *wasm.MemoryInstance, instr wasm.Instruction) {
	var val uint64
	kind := wasm.LoadStoreKind(instr.Imm)
	val = ce.pop()
	addr := effectiveAddr(ce, instr.Mem)
	switch kind {
	case wasm.LSKindI32, wasm.LSKindF32:
		m.WriteUint32Le(addr, uint32(val))
	case wasm.LSKindI64, wasm.LSKindF64:
		m.WriteUint64Le(addr, val)
	case wasm.LSKindI32_8S, wasm.LSKindI32_8U, wasm.LSKindI64_8S, wasm.LSKindI64_8U:
		m.WriteByte(addr, byte(val))
	case wasm.LSKindI32_16S, wasm.LSKindI32_16U, wasm.LSKindI64_16S, wasm.LSKindI64_16U:
		m.WriteUint16Le(addr, uint16(val))
	case wasm.LSKindI64_32S, wasm.LSKindI64_32U:
		m.WriteUint32Le(addr, uint32(val))
	}
}
