package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/r5sim/insts"
)

// DefaultMemorySize is the physical memory size allocated when no
// memory is supplied.
const DefaultMemorySize = 64 << 20 // 64 MiB

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (via exit syscall).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Err is set if an error occurred during execution, including any
	// memory fault surfaced by the MMU.
	Err error
}

// A MemoryObserver is notified of every completed data memory access,
// with the resolved physical offset. It allows cache models to watch
// the emulator's memory traffic without being on the execution path.
type MemoryObserver interface {
	Access(write bool, paddr uint64, size int)
}

// Emulator executes RV64 instructions functionally. All memory traffic,
// including instruction fetch, goes through the MMU so that address
// translation and fault semantics match the simulated architecture.
type Emulator struct {
	regFile        *RegFile
	memory         *Memory
	mmu            *MMU
	decoder        *insts.Decoder
	syscallHandler SyscallHandler
	memObserver    MemoryObserver

	// I/O
	stdout io.Writer
	stderr io.Writer

	// Execution state
	compressedEnabled bool
	instructionCount  uint64
	maxInstructions   uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithMemory supplies the physical memory the emulator runs against,
// replacing the default allocation.
func WithMemory(mem *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = mem
	}
}

// WithStackPointer sets the initial stack pointer value.
func WithStackPointer(sp uint64) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.WriteReg(RegSP, sp)
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithCompressed enables compressed (16-bit) instruction fetch.
func WithCompressed(on bool) EmulatorOption {
	return func(e *Emulator) {
		e.compressedEnabled = on
	}
}

// WithMemoryObserver registers an observer for data memory accesses.
func WithMemoryObserver(obs MemoryObserver) EmulatorOption {
	return func(e *Emulator) {
		e.memObserver = obs
	}
}

// NewEmulator creates a new RV64 emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		decoder: insts.NewDecoder(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	// Apply options first (may set memory/stdout/stderr)
	for _, opt := range opts {
		opt(e)
	}

	if e.memory == nil {
		e.memory = NewMemory(DefaultMemorySize)
	}
	e.mmu = NewMMU(e.memory, e.decoder)

	if e.regFile.ReadReg(RegSP) == 0 {
		e.regFile.WriteReg(RegSP, e.memory.Size()-16)
	}

	if e.syscallHandler == nil {
		e.syscallHandler = NewDefaultSyscallHandler(e.regFile, e.mmu, e.stdout, e.stderr)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's physical memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// MMU returns the emulator's memory management unit.
func (e *Emulator) MMU() *MMU {
	return e.mmu
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram copies a flat program image into memory at the entry
// address and points the PC at it.
func (e *Emulator) LoadProgram(entry uint64, program []byte) {
	for i, b := range program {
		e.memory.Write8(entry+uint64(i), b)
	}
	e.regFile.PC = entry
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("max instructions reached"),
		}
	}

	pc := e.regFile.PC
	_, handle, err := e.mmu.FetchInstruction(pc, e.compressedEnabled)
	if err != nil {
		return StepResult{
			Err: fmt.Errorf("fetch at PC=0x%X: %w", pc, err),
		}
	}

	inst, ok := handle.(*insts.Instruction)
	if !ok || inst.Op == insts.OpUnknown {
		return StepResult{
			Err: fmt.Errorf("unknown instruction at PC=0x%X", pc),
		}
	}

	result := e.execute(inst)
	e.instructionCount++

	return result
}

// Run executes instructions until the program exits or an error occurs.
// Returns the exit code (-1 if error).
func (e *Emulator) Run() int64 {
	for {
		result := e.Step()
		if result.Exited {
			return result.ExitCode
		}
		if result.Err != nil {
			_, _ = fmt.Fprintf(e.stderr, "Emulation error: %v\n", result.Err)
			return -1
		}
	}
}

// execute dispatches a decoded instruction. The PC is advanced here for
// everything except taken control transfers, which set it themselves.
func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	switch inst.Format {
	case insts.FormatU:
		e.executeUpperImm(inst)
	case insts.FormatJ, insts.FormatB:
		e.executeControl(inst)
		return StepResult{} // PC already updated
	case insts.FormatI:
		if inst.Op == insts.OpJALR {
			e.executeJALR(inst)
			return StepResult{} // PC already updated
		}
		if isLoad(inst.Op) {
			return e.executeLoad(inst)
		}
		e.executeOpImm(inst)
	case insts.FormatS:
		return e.executeStore(inst)
	case insts.FormatR:
		e.executeOp(inst)
	case insts.FormatSystem:
		return e.executeSystem(inst)
	default:
		return StepResult{
			Err: fmt.Errorf("unimplemented format %d at PC=0x%X", inst.Format, e.regFile.PC),
		}
	}

	e.regFile.PC += inst.Length()
	return StepResult{}
}

func isLoad(op insts.Op) bool {
	switch op {
	case insts.OpLB, insts.OpLH, insts.OpLW, insts.OpLD,
		insts.OpLBU, insts.OpLHU, insts.OpLWU:
		return true
	}
	return false
}

// executeUpperImm executes LUI and AUIPC.
func (e *Emulator) executeUpperImm(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpLUI:
		e.regFile.WriteReg(inst.Rd, uint64(inst.Imm))
	case insts.OpAUIPC:
		e.regFile.WriteReg(inst.Rd, e.regFile.PC+uint64(inst.Imm))
	}
}

// executeControl executes JAL and the conditional branches.
func (e *Emulator) executeControl(inst *insts.Instruction) {
	pc := e.regFile.PC

	if inst.Op == insts.OpJAL {
		e.regFile.WriteReg(inst.Rd, pc+inst.Length())
		e.regFile.PC = pc + uint64(inst.Imm)
		return
	}

	rs1 := e.regFile.ReadReg(inst.Rs1)
	rs2 := e.regFile.ReadReg(inst.Rs2)

	var taken bool
	switch inst.Op {
	case insts.OpBEQ:
		taken = rs1 == rs2
	case insts.OpBNE:
		taken = rs1 != rs2
	case insts.OpBLT:
		taken = int64(rs1) < int64(rs2)
	case insts.OpBGE:
		taken = int64(rs1) >= int64(rs2)
	case insts.OpBLTU:
		taken = rs1 < rs2
	case insts.OpBGEU:
		taken = rs1 >= rs2
	}

	if taken {
		e.regFile.PC = pc + uint64(inst.Imm)
	} else {
		e.regFile.PC = pc + inst.Length()
	}
}

// executeJALR executes the indirect jump.
func (e *Emulator) executeJALR(inst *insts.Instruction) {
	pc := e.regFile.PC
	target := (e.regFile.ReadReg(inst.Rs1) + uint64(inst.Imm)) &^ 1
	e.regFile.WriteReg(inst.Rd, pc+inst.Length())
	e.regFile.PC = target
}

// executeLoad executes the load group through the MMU.
func (e *Emulator) executeLoad(inst *insts.Instruction) StepResult {
	addr := e.regFile.ReadReg(inst.Rs1) + uint64(inst.Imm)

	var value uint64
	var size int
	var err error

	switch inst.Op {
	case insts.OpLB:
		var v int64
		v, err = e.mmu.LoadInt8(addr)
		value, size = uint64(v), 1
	case insts.OpLH:
		var v int64
		v, err = e.mmu.LoadInt16(addr)
		value, size = uint64(v), 2
	case insts.OpLW:
		var v int64
		v, err = e.mmu.LoadInt32(addr)
		value, size = uint64(v), 4
	case insts.OpLD:
		var v int64
		v, err = e.mmu.LoadInt64(addr)
		value, size = uint64(v), 8
	case insts.OpLBU:
		var v uint8
		v, err = e.mmu.LoadUint8(addr)
		value, size = uint64(v), 1
	case insts.OpLHU:
		var v uint16
		v, err = e.mmu.LoadUint16(addr)
		value, size = uint64(v), 2
	case insts.OpLWU:
		var v uint32
		v, err = e.mmu.LoadUint32(addr)
		value, size = uint64(v), 4
	}

	if err != nil {
		return StepResult{Err: fmt.Errorf("load at PC=0x%X: %w", e.regFile.PC, err)}
	}

	if e.memObserver != nil {
		if paddr, perr := e.mmu.Translate(addr, AccessLoad); perr == nil {
			e.memObserver.Access(false, paddr, size)
		}
	}

	e.regFile.WriteReg(inst.Rd, value)
	e.regFile.PC += inst.Length()
	return StepResult{}
}

// executeStore executes the store group through the MMU.
func (e *Emulator) executeStore(inst *insts.Instruction) StepResult {
	addr := e.regFile.ReadReg(inst.Rs1) + uint64(inst.Imm)
	value := e.regFile.ReadReg(inst.Rs2)

	var size int
	var err error

	switch inst.Op {
	case insts.OpSB:
		err = e.mmu.StoreUint8(addr, uint8(value))
		size = 1
	case insts.OpSH:
		err = e.mmu.StoreUint16(addr, uint16(value))
		size = 2
	case insts.OpSW:
		err = e.mmu.StoreUint32(addr, uint32(value))
		size = 4
	case insts.OpSD:
		err = e.mmu.StoreUint64(addr, value)
		size = 8
	}

	if err != nil {
		return StepResult{Err: fmt.Errorf("store at PC=0x%X: %w", e.regFile.PC, err)}
	}

	if e.memObserver != nil {
		if paddr, perr := e.mmu.Translate(addr, AccessStore); perr == nil {
			e.memObserver.Access(true, paddr, size)
		}
	}

	e.regFile.PC += inst.Length()
	return StepResult{}
}

// executeOpImm executes the register-immediate arithmetic group.
func (e *Emulator) executeOpImm(inst *insts.Instruction) {
	rs1 := e.regFile.ReadReg(inst.Rs1)
	imm := inst.Imm

	var result uint64
	switch inst.Op {
	case insts.OpADDI:
		result = rs1 + uint64(imm)
	case insts.OpSLTI:
		if int64(rs1) < imm {
			result = 1
		}
	case insts.OpSLTIU:
		if rs1 < uint64(imm) {
			result = 1
		}
	case insts.OpXORI:
		result = rs1 ^ uint64(imm)
	case insts.OpORI:
		result = rs1 | uint64(imm)
	case insts.OpANDI:
		result = rs1 & uint64(imm)
	case insts.OpSLLI:
		result = rs1 << (imm & 0x3F)
	case insts.OpSRLI:
		result = rs1 >> (imm & 0x3F)
	case insts.OpSRAI:
		result = uint64(int64(rs1) >> (imm & 0x3F))
	case insts.OpADDIW:
		result = signExtend32(uint32(rs1) + uint32(imm))
	case insts.OpSLLIW:
		result = signExtend32(uint32(rs1) << (imm & 0x1F))
	case insts.OpSRLIW:
		result = signExtend32(uint32(rs1) >> (imm & 0x1F))
	case insts.OpSRAIW:
		result = signExtend32(uint32(int32(rs1) >> (imm & 0x1F)))
	}

	e.regFile.WriteReg(inst.Rd, result)
}

// executeOp executes the register-register arithmetic group, including
// the M-extension multiply/divide operations.
func (e *Emulator) executeOp(inst *insts.Instruction) {
	rs1 := e.regFile.ReadReg(inst.Rs1)
	rs2 := e.regFile.ReadReg(inst.Rs2)

	var result uint64
	switch inst.Op {
	case insts.OpADD:
		result = rs1 + rs2
	case insts.OpSUB:
		result = rs1 - rs2
	case insts.OpSLL:
		result = rs1 << (rs2 & 0x3F)
	case insts.OpSLT:
		if int64(rs1) < int64(rs2) {
			result = 1
		}
	case insts.OpSLTU:
		if rs1 < rs2 {
			result = 1
		}
	case insts.OpXOR:
		result = rs1 ^ rs2
	case insts.OpSRL:
		result = rs1 >> (rs2 & 0x3F)
	case insts.OpSRA:
		result = uint64(int64(rs1) >> (rs2 & 0x3F))
	case insts.OpOR:
		result = rs1 | rs2
	case insts.OpAND:
		result = rs1 & rs2
	case insts.OpADDW:
		result = signExtend32(uint32(rs1) + uint32(rs2))
	case insts.OpSUBW:
		result = signExtend32(uint32(rs1) - uint32(rs2))
	case insts.OpSLLW:
		result = signExtend32(uint32(rs1) << (rs2 & 0x1F))
	case insts.OpSRLW:
		result = signExtend32(uint32(rs1) >> (rs2 & 0x1F))
	case insts.OpSRAW:
		result = signExtend32(uint32(int32(rs1) >> (rs2 & 0x1F)))
	case insts.OpMUL:
		result = rs1 * rs2
	case insts.OpDIV:
		result = div64(int64(rs1), int64(rs2))
	case insts.OpDIVU:
		result = divu64(rs1, rs2)
	case insts.OpREM:
		result = rem64(int64(rs1), int64(rs2))
	case insts.OpREMU:
		result = remu64(rs1, rs2)
	}

	e.regFile.WriteReg(inst.Rd, result)
}

// executeSystem executes ECALL, EBREAK and FENCE.
func (e *Emulator) executeSystem(inst *insts.Instruction) StepResult {
	switch inst.Op {
	case insts.OpECALL:
		// Syscall return address is the next instruction.
		e.regFile.PC += inst.Length()
		syscallResult := e.syscallHandler.Handle()
		return StepResult{
			Exited:   syscallResult.Exited,
			ExitCode: syscallResult.ExitCode,
		}
	case insts.OpEBREAK:
		return StepResult{
			Exited:   true,
			ExitCode: -1,
			Err:      fmt.Errorf("EBREAK trap at PC=0x%X", e.regFile.PC),
		}
	default: // FENCE is a no-op for a single in-order context.
		e.regFile.PC += inst.Length()
		return StepResult{}
	}
}
